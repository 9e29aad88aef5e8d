package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve  Phase = "resolve"  // signature token resolution
	PhaseMarshal  Phase = "marshal"  // managed <-> native value conversion
	PhaseBridge   Phase = "bridge"   // array/string view lifetime
	PhaseDispatch Phase = "dispatch" // binding lookup and validation
	PhaseRegistry Phase = "registry" // object reference lifetime
	PhaseNative   Phase = "native"   // native entry point execution
	PhaseHeap     Phase = "heap"     // native heap allocation
	PhaseBuild    Phase = "build"    // binding table construction
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownSignature             Kind = "unknown_signature"
	KindUnsupportedNesting           Kind = "unsupported_nesting"
	KindConversionOverflow           Kind = "conversion_overflow"
	KindDoubleRelease                Kind = "double_release"
	KindUseAfterRelease              Kind = "use_after_release"
	KindBindingNotFound              Kind = "binding_not_found"
	KindArityMismatch                Kind = "arity_mismatch"
	KindTypeMismatch                 Kind = "type_mismatch"
	KindNullTargetForInstanceMember  Kind = "null_target_for_instance_member"
	KindNonNullTargetForStaticMember Kind = "non_null_target_for_static_member"
	KindNativeInvocationFailed       Kind = "native_invocation_failed"
	KindReentrantAcquire             Kind = "reentrant_acquire"
	KindAllocation                   Kind = "allocation"
	KindOutOfBounds                  Kind = "out_of_bounds"
	KindInvalidInput                 Kind = "invalid_input"
	KindDuplicateBinding             Kind = "duplicate_binding"
)

// Sentinels for errors.Is matching by kind alone.
var (
	ErrUnknownSignature             = &Error{Kind: KindUnknownSignature}
	ErrUnsupportedNesting           = &Error{Kind: KindUnsupportedNesting}
	ErrConversionOverflow           = &Error{Kind: KindConversionOverflow}
	ErrDoubleRelease                = &Error{Kind: KindDoubleRelease}
	ErrUseAfterRelease              = &Error{Kind: KindUseAfterRelease}
	ErrBindingNotFound              = &Error{Kind: KindBindingNotFound}
	ErrArityMismatch                = &Error{Kind: KindArityMismatch}
	ErrTypeMismatch                 = &Error{Kind: KindTypeMismatch}
	ErrNullTargetForInstanceMember  = &Error{Kind: KindNullTargetForInstanceMember}
	ErrNonNullTargetForStaticMember = &Error{Kind: KindNonNullTargetForStaticMember}
	ErrNativeInvocationFailed       = &Error{Kind: KindNativeInvocationFailed}
	ErrReentrantAcquire             = &Error{Kind: KindReentrantAcquire}
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Member   string
	Category string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Member != "" {
		b.WriteString(" in ")
		b.WriteString(e.Member)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Category != "" {
		b.WriteString(": category ")
		b.WriteString(e.Category)
	}

	if e.Detail != "" {
		if e.Category != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Unrecoverable reports whether the error is a lifetime-discipline violation.
func (e *Error) Unrecoverable() bool {
	return e.Kind == KindDoubleRelease || e.Kind == KindUseAfterRelease
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the argument/field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Member sets the member being resolved or invoked
func (b *Builder) Member(m string) *Builder {
	b.err.Member = m
	return b
}

// Category sets the value category name
func (b *Builder) Category(c string) *Builder {
	b.err.Category = c
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownSignature creates an error for an unsupported signature token
func UnknownSignature(token string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnknownSignature,
		Detail: fmt.Sprintf("unsupported signature token %q", token),
		Value:  token,
	}
}

// UnsupportedNesting creates an error for arrays nested deeper than one level
func UnsupportedNesting(token string, depth int) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnsupportedNesting,
		Detail: fmt.Sprintf("array depth %d in %q exceeds 1", depth, token),
		Value:  token,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, category string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		Category: category,
		Detail:   fmt.Sprintf("got Go type %s", goType),
	}
}

// Overflow creates a conversion overflow error
func Overflow(phase Phase, path []string, value any, category string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindConversionOverflow,
		Path:     path,
		Category: category,
		Detail:   fmt.Sprintf("value %v overflows %s", value, category),
		Value:    value,
	}
}

// DoubleRelease creates an error for releasing an already released handle
func DoubleRelease(phase Phase, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDoubleRelease,
		Detail: fmt.Sprintf("handle %v already released", handle),
		Value:  handle,
	}
}

// UseAfterRelease creates an error for dereferencing a released handle
func UseAfterRelease(phase Phase, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUseAfterRelease,
		Detail: fmt.Sprintf("handle %v used after release", handle),
		Value:  handle,
	}
}

// BindingNotFound creates an error for a missing method or field binding
func BindingNotFound(what, member string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindBindingNotFound,
		Member: member,
		Detail: fmt.Sprintf("%s not registered", what),
	}
}

// ArityMismatch creates an error for a wrong argument count
func ArityMismatch(member string, want, got int) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindArityMismatch,
		Member: member,
		Detail: fmt.Sprintf("expected %d arguments, got %d", want, got),
		Value:  got,
	}
}

// NullTarget creates an error for an instance member invoked without a target
func NullTarget(member string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindNullTargetForInstanceMember,
		Member: member,
		Detail: "instance member requires a target",
	}
}

// NonNullTarget creates an error for a static member invoked with a target
func NonNullTarget(member string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindNonNullTargetForStaticMember,
		Member: member,
		Detail: "static member must not have a target",
	}
}

// NativeInvocationFailed wraps a failure reported by a native entry point
func NativeInvocationFailed(member string, cause error) *Error {
	return &Error{
		Phase:  PhaseNative,
		Kind:   KindNativeInvocationFailed,
		Member: member,
		Cause:  cause,
	}
}

// ReentrantAcquire creates an error for a second live view on the same source
func ReentrantAcquire(detail string) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindReentrantAcquire,
		Detail: detail,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size, align uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseHeap,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// DuplicateBinding creates an error for a (class, name, signature) key registered twice
func DuplicateBinding(member string) *Error {
	return &Error{
		Phase:  PhaseBuild,
		Kind:   KindDuplicateBinding,
		Member: member,
		Detail: "binding already registered",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// IsUnrecoverable reports whether err carries a lifetime-discipline violation
// anywhere in its chain, including joined errors.
func IsUnrecoverable(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Unrecoverable() {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if IsUnrecoverable(inner) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsUnrecoverable(u.Unwrap())
	}
	return false
}
