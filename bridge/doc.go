// Package bridge lends native code temporary views of managed arrays and
// strings.
//
// A view is an independent native copy of the source. Native mutations
// reach the managed array only when the view is released with writeBack;
// managed mutations never reach a live view.
//
//	b := bridge.New(marshaler)
//	scope := b.NewScope()
//	h, _ := scope.Acquire(arr)
//	v, _ := b.View(h)
//	v.Set(0, int32(7))
//	err := scope.ReleaseAll(true) // writes back, frees, invalidates h
//
// A Scope covers one logical call. It refuses a second live view on the
// same array (ReentrantAcquire) and releases its views most recent first.
// Share returns the view already held for a source so one array passed in
// two argument positions is copied once.
//
// Releasing a view twice fails with DoubleRelease; touching a released
// view fails with UseAfterRelease. Strings are immutable on the managed
// side, so writeBack on a string view has no effect.
package bridge
