package dispatch

import (
	"context"

	"go.uber.org/multierr"

	"github.com/wippyai/jni-bridge/bridge"
	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/refs"
	"github.com/wippyai/jni-bridge/signature"
)

// Env is handed to an entry point for the duration of one call. Values it
// creates are local to the call: views and local references are released
// when the entry point returns. Use NewPersistent to keep an object.
type Env struct {
	ctx   context.Context
	d     *Dispatcher
	m     *marshal.Marshaler
	frame *refs.Frame
	scope *bridge.Scope
}

func (d *Dispatcher) newEnv(ctx context.Context) *Env {
	frame := d.reg.PushFrame()
	return &Env{
		ctx:   ctx,
		d:     d,
		m:     d.m.WithReferences(frame),
		frame: frame,
		scope: d.bridge.NewScope(),
	}
}

// release frees the call's views, most recent first, then its locals.
func (e *Env) release(writeBack bool) error {
	errs := e.scope.ReleaseAll(writeBack)
	return multierr.Append(errs, e.frame.Close())
}

// Context returns the context of the call.
func (e *Env) Context() context.Context { return e.ctx }

// Marshaler returns the marshaler of the call. Buffers it creates are
// owned by the caller.
func (e *Env) Marshaler() *marshal.Marshaler { return e.m }

// Call invokes a managed member. this is the null native for static
// members.
func (e *Env) Call(k Key, this marshal.Native, args ...marshal.Native) (marshal.Native, error) {
	m, err := e.d.table.method(k)
	if err != nil {
		return marshal.Native{}, err
	}
	if len(args) != len(m.Sig.Params) {
		return marshal.Native{}, errors.ArityMismatch(k.String(), len(m.Sig.Params), len(args))
	}
	target, err := e.target(this)
	if err != nil {
		return marshal.Native{}, err
	}
	values := make([]any, len(args))
	for i, p := range m.Sig.Params {
		if values[i], err = e.toManaged(args[i], p); err != nil {
			return marshal.Native{}, at(err, k.String(), "arg")
		}
	}

	v, err := e.d.Invoke(e.ctx, k, target, values...)
	if err != nil {
		return marshal.Native{}, err
	}
	if m.Sig.IsVoid() {
		return marshal.Void, nil
	}
	return e.toNative(v, m.Sig.Return)
}

// GetField reads a managed field.
func (e *Env) GetField(k Key, this marshal.Native) (marshal.Native, error) {
	target, err := e.target(this)
	if err != nil {
		return marshal.Native{}, err
	}
	v, err := e.d.GetField(e.ctx, k, target)
	if err != nil {
		return marshal.Native{}, err
	}
	f, err := e.d.table.field(k)
	if err != nil {
		return marshal.Native{}, err
	}
	return e.toNative(v, f.Desc)
}

// SetField writes a managed field.
func (e *Env) SetField(k Key, this, value marshal.Native) error {
	f, err := e.d.table.field(k)
	if err != nil {
		return err
	}
	target, err := e.target(this)
	if err != nil {
		return err
	}
	v, err := e.toManaged(value, f.Desc)
	if err != nil {
		return at(err, k.String(), "value")
	}
	return e.d.SetField(e.ctx, k, target, v)
}

// NewObject constructs a managed object and returns a local reference.
func (e *Env) NewObject(class, ctorSig string, args ...marshal.Native) (marshal.Native, error) {
	ms, err := signature.ParseMethod(ctorSig)
	if err != nil {
		return marshal.Native{}, err
	}
	k := Key{Owner: class, Name: signature.ConstructorName, Signature: ctorSig}
	if len(args) != len(ms.Params) {
		return marshal.Native{}, errors.ArityMismatch(k.String(), len(ms.Params), len(args))
	}
	values := make([]any, len(args))
	for i, p := range ms.Params {
		if values[i], err = e.toManaged(args[i], p); err != nil {
			return marshal.Native{}, at(err, k.String(), "arg")
		}
	}
	obj, err := e.d.NewObject(e.ctx, class, ctorSig, values...)
	if err != nil {
		return marshal.Native{}, err
	}
	return e.local(obj, signature.Object(class))
}

// NewString creates a string owned by the call, as native code does to
// build a string result.
func (e *Env) NewString(s string) (marshal.Native, error) {
	h, err := e.scope.NewString(s)
	if err != nil {
		return marshal.Native{}, err
	}
	return e.d.bridge.Native(h)
}

// NewArray creates a zero-filled primitive array owned by the call. Fill
// it through View.
func (e *Env) NewArray(elem *signature.Descriptor, n int) (marshal.Native, error) {
	_, h, err := e.scope.NewArray(elem, n)
	if err != nil {
		return marshal.Native{}, err
	}
	return e.d.bridge.Native(h)
}

// View returns the accessor of an array or string argument.
func (e *Env) View(n marshal.Native) (*bridge.View, error) {
	if n.View == 0 {
		return nil, errors.InvalidInput(errors.PhaseBridge, "value is not a view")
	}
	return e.d.bridge.View(n.View)
}

// String decodes a string value.
func (e *Env) String(n marshal.Native) (string, error) {
	v, err := e.m.ToManaged(n, signature.String)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", errors.InvalidInput(errors.PhaseMarshal, "null string")
	}
	return v.(string), nil
}

// Deref returns the managed value behind a reference. The null native
// yields nil.
func (e *Env) Deref(n marshal.Native) (any, error) {
	if n.Null {
		return nil, nil
	}
	if n.Ref == 0 {
		return nil, errors.InvalidInput(errors.PhaseRegistry, "value is not a reference")
	}
	return e.d.reg.Deref(n.Ref)
}

// NewLocal registers a managed value as a local reference of the call.
func (e *Env) NewLocal(v any) (marshal.Native, error) {
	var d *signature.Descriptor
	switch x := v.(type) {
	case *managed.Object:
		d = signature.Object(x.Class())
	case *managed.Array:
		d = x.Descriptor()
	case string:
		d = signature.String
	default:
		return marshal.Native{}, errors.TypeMismatch(errors.PhaseRegistry, nil, describe(v), "reference")
	}
	if isNullRef(v) {
		return marshal.NullOf(d), nil
	}
	return e.local(v, d)
}

// NewPersistent creates a persistent reference to the object behind n.
// It outlives the call and must be released with ReleasePersistent.
func (e *Env) NewPersistent(n marshal.Native) (marshal.Native, error) {
	v, err := e.Deref(n)
	if err != nil {
		return marshal.Native{}, err
	}
	if v == nil {
		return marshal.NullOf(n.Desc), nil
	}
	return marshal.Object(n.Desc, e.d.reg.NewPersistent(v)), nil
}

// ReleasePersistent releases a reference made by NewPersistent.
func (e *Env) ReleasePersistent(n marshal.Native) error {
	if n.Null {
		return nil
	}
	return e.d.reg.ReleasePersistent(n.Ref)
}

// IsSameObject reports whether a and b refer to the same object.
func (e *Env) IsSameObject(a, b marshal.Native) (bool, error) {
	return e.d.reg.IsSameObject(a.Ref, b.Ref)
}

func (e *Env) target(this marshal.Native) (any, error) {
	if this.Null || (this.Ref == 0 && this.Desc == nil) {
		return nil, nil
	}
	return e.Deref(this)
}

func (e *Env) local(v any, d *signature.Descriptor) (marshal.Native, error) {
	h, err := e.frame.RegisterLocal(v)
	if err != nil {
		return marshal.Native{}, err
	}
	return marshal.Object(d, h), nil
}

// toNative converts a validated managed value for native code. Strings
// and primitive arrays become views of the call; other references become
// locals.
func (e *Env) toNative(v any, d *signature.Descriptor) (marshal.Native, error) {
	switch {
	case d.IsPrimitive():
		return e.m.ToNative(v, d)
	case isNullRef(v):
		return marshal.NullOf(d), nil
	case d.Category == signature.CategoryString:
		h, err := e.scope.Acquire(v)
		if err != nil {
			return marshal.Native{}, err
		}
		return e.d.bridge.Native(h)
	case d.IsPrimitiveArray():
		h, err := e.scope.Share(v)
		if err != nil {
			return marshal.Native{}, err
		}
		return e.d.bridge.Native(h)
	}
	return e.local(v, d)
}

// toManaged converts a native value. A view of a managed array yields
// that array, which receives the native contents when the call's views
// are written back.
func (e *Env) toManaged(n marshal.Native, d *signature.Descriptor) (any, error) {
	if n.View != 0 && !n.Null {
		src, err := e.d.bridge.Source(n.View)
		if err != nil {
			return nil, err
		}
		if arr, ok := src.(*managed.Array); ok {
			if err := checkReference(e.d.table, arr, d); err != nil {
				return nil, err
			}
			return arr, nil
		}
	}
	return e.m.ToManaged(n, d)
}
