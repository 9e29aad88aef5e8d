// Package refs implements the object reference registry.
//
// Objects cross the boundary as handles. A handle is either local or
// persistent:
//
//	local       owned by a Frame, released when the frame closes
//	persistent  survives frames, released explicitly
//
// A Frame is opened for each boundary crossing:
//
//	reg := refs.NewRegistry()
//	frame := reg.PushFrame()
//	defer frame.Close()
//
//	h, _ := frame.RegisterLocal(obj)
//	v, _ := reg.Deref(h)
//	_ = reg.PromoteToPersistent(h) // h now outlives frame
//
// Releasing a handle twice fails with DoubleRelease; dereferencing a
// released handle fails with UseAfterRelease. Releasing a persistent
// handle as local, or the reverse, fails with TypeMismatch. Promoting an
// already persistent handle is a no-op.
//
// The registry is mutex-serialised and never calls out to other
// components while holding its lock.
package refs
