// Package errors provides structured error types for the jni-bridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the member being resolved, the value category involved,
// a path into the argument list, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
//		Member("lv/gusc/jni/tests/StaticClass.setInt(I)V").
//		Path("arg0").
//		Category("int").
//		Detail("got string").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ArityMismatch(member, 9, 2)
//	err := errors.DoubleRelease(errors.PhaseBridge, h)
//
// Each Kind has a sentinel usable with errors.Is regardless of phase:
//
//	if errors.Is(err, errors.ErrUseAfterRelease) { ... }
//
// DoubleRelease and UseAfterRelease are lifetime-discipline violations and
// report Unrecoverable() == true. Every other kind may be retried with
// corrected input.
package errors
