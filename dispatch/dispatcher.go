package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/jni-bridge/bridge"
	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/refs"
	"github.com/wippyai/jni-bridge/signature"
)

// Dispatcher executes calls and field accesses against a Table.
type Dispatcher struct {
	table  *Table
	m      *marshal.Marshaler
	bridge *bridge.Bridge
	reg    *refs.Registry
}

// New creates a dispatcher. m copies strings and arrays into native
// memory; reg owns object handles.
func New(table *Table, m *marshal.Marshaler, reg *refs.Registry) *Dispatcher {
	return &Dispatcher{
		table:  table,
		m:      m,
		bridge: bridge.New(m),
		reg:    reg,
	}
}

// Table returns the binding table.
func (d *Dispatcher) Table() *Table { return d.table }

// Bridge returns the view bridge used for array and string arguments.
func (d *Dispatcher) Bridge() *bridge.Bridge { return d.bridge }

// Registry returns the object reference registry.
func (d *Dispatcher) Registry() *refs.Registry { return d.reg }

// Invoke calls the method k. target is nil for static methods and the
// receiver object for instance methods. The result is the managed return
// value, nil for void.
func (d *Dispatcher) Invoke(ctx context.Context, k Key, target any, args ...any) (any, error) {
	m, obj, err := d.resolveMethod(k, target, args)
	if err != nil {
		return nil, err
	}
	entry, err := d.table.entry(m)
	if err != nil {
		return nil, err
	}
	return d.call(ctx, m, entry, obj, args)
}

// NewObject allocates an instance of class, initialises its fields and
// runs the constructor with signature ctorSig. A class without
// constructors accepts "()V".
func (d *Dispatcher) NewObject(ctx context.Context, class, ctorSig string, args ...any) (*managed.Object, error) {
	if _, ok := d.table.Class(class); !ok {
		return nil, errors.BindingNotFound("class", class)
	}
	k := Key{Owner: class, Name: signature.ConstructorName, Signature: ctorSig}
	m, err := d.table.method(k)
	if err != nil {
		if ctorSig != "()V" || d.hasConstructor(class) {
			return nil, err
		}
		if len(args) != 0 {
			return nil, errors.ArityMismatch(k.String(), 0, len(args))
		}
		return d.allocate(class), nil
	}
	if err := d.checkArgs(m, args); err != nil {
		return nil, err
	}
	entry, err := d.table.entry(m)
	if err != nil {
		return nil, err
	}

	obj := d.allocate(class)
	if _, err := d.call(ctx, m, entry, obj, args); err != nil {
		return nil, err
	}
	return obj, nil
}

// GetField reads field k of target, or the static field k when target is
// nil.
func (d *Dispatcher) GetField(_ context.Context, k Key, target any) (any, error) {
	f, obj, err := d.resolveField(k, target)
	if err != nil {
		return nil, err
	}
	if f.Static {
		return d.table.slot(f.Key()).load(), nil
	}
	if v, ok := obj.Field(f.Name); ok {
		return v, nil
	}
	return zeroValue(f.Desc), nil
}

// SetField writes field k of target, or the static field k when target
// is nil. value is validated like an argument of the field's type.
func (d *Dispatcher) SetField(_ context.Context, k Key, target, value any) error {
	f, obj, err := d.resolveField(k, target)
	if err != nil {
		return err
	}
	if err := checkValue(d.table, value, f.Desc); err != nil {
		return at(err, k.String(), "value")
	}
	v, err := normalize(value, f.Desc)
	if err != nil {
		return at(err, k.String(), "value")
	}
	if f.Static {
		d.table.slot(f.Key()).store(v)
		return nil
	}
	obj.SetField(f.Name, v)
	return nil
}

func (d *Dispatcher) resolveMethod(k Key, target any, args []any) (*MethodBinding, *managed.Object, error) {
	m, err := d.table.method(k)
	if err != nil {
		return nil, nil, err
	}
	obj, err := d.checkTarget(k, m.Owner, m.Static, target)
	if err != nil {
		return nil, nil, err
	}
	if err := d.checkArgs(m, args); err != nil {
		return nil, nil, err
	}
	if obj != nil && !m.IsConstructor() && obj.Class() != m.Owner {
		m = d.override(m, obj.Class())
	}
	return m, obj, nil
}

// override finds the most specific binding of m for an instance of class.
func (d *Dispatcher) override(m *MethodBinding, class string) *MethodBinding {
	for owner := class; owner != "" && owner != m.Owner; owner = d.table.super(owner) {
		if o, ok := d.table.methods[Key{Owner: owner, Name: m.Name, Signature: m.Signature}]; ok && !o.Static {
			return o
		}
	}
	return m
}

func (d *Dispatcher) resolveField(k Key, target any) (*FieldBinding, *managed.Object, error) {
	f, err := d.table.field(k)
	if err != nil {
		return nil, nil, err
	}
	obj, err := d.checkTarget(k, f.Owner, f.Static, target)
	if err != nil {
		return nil, nil, err
	}
	return f, obj, nil
}

func (d *Dispatcher) checkTarget(k Key, owner string, static bool, target any) (*managed.Object, error) {
	null := isNullRef(target)
	switch {
	case static && !null:
		return nil, errors.NonNullTarget(k.String())
	case static:
		return nil, nil
	case null:
		return nil, errors.NullTarget(k.String())
	}
	obj, ok := target.(*managed.Object)
	if !ok || !d.table.IsAssignable(obj.Class(), owner) {
		return nil, at(errors.TypeMismatch(errors.PhaseDispatch, nil, describe(target), "L"+owner+";"), k.String(), "this")
	}
	return obj, nil
}

func (d *Dispatcher) checkArgs(m *MethodBinding, args []any) error {
	if len(args) != len(m.Sig.Params) {
		return errors.ArityMismatch(m.Key().String(), len(m.Sig.Params), len(args))
	}
	for i, p := range m.Sig.Params {
		if err := checkValue(d.table, args[i], p); err != nil {
			return at(err, m.Key().String(), fmt.Sprintf("arg[%d]", i))
		}
	}
	return nil
}

func (d *Dispatcher) hasConstructor(class string) bool {
	for k := range d.table.methods {
		if k.Owner == class && k.Name == signature.ConstructorName {
			return true
		}
	}
	return false
}

// allocate creates an instance with every instance field of the class
// chain at its initial value.
func (d *Dispatcher) allocate(class string) *managed.Object {
	fields := make(map[string]any)
	for owner := class; owner != ""; owner = d.table.super(owner) {
		for k, f := range d.table.fields {
			if k.Owner != owner || f.Static {
				continue
			}
			if arr, ok := f.Initial.(*managed.Array); ok {
				fields[f.Name] = arr.Clone()
			} else {
				fields[f.Name] = f.Initial
			}
		}
	}
	return managed.NewObject(class, fields)
}

// call runs one validated invocation: marshal, invoke, convert, release.
func (d *Dispatcher) call(ctx context.Context, m *MethodBinding, entry EntryPoint, obj *managed.Object, args []any) (result any, err error) {
	d.table.seal()
	member := m.Key().String()

	env := d.newEnv(ctx)
	defer func() {
		if rerr := env.release(err == nil); rerr != nil {
			Logger().Warn("release after call failed",
				zap.String("member", member),
				zap.Error(rerr))
			err = multierr.Append(err, rerr)
			result = nil
		}
	}()

	this := marshal.NullOf(signature.Object(m.Owner))
	if obj != nil {
		if this, err = env.local(obj, signature.Object(m.Owner)); err != nil {
			return nil, err
		}
	}

	natives := make([]marshal.Native, len(args))
	for i, p := range m.Sig.Params {
		if natives[i], err = env.toNative(args[i], p); err != nil {
			return nil, at(err, member, fmt.Sprintf("arg[%d]", i))
		}
	}

	out, err := entry(ctx, env, this, natives)
	if err != nil {
		Logger().Debug("entry point failed",
			zap.String("member", member),
			zap.Error(err))
		return nil, errors.NativeInvocationFailed(member, err)
	}

	if m.Sig.IsVoid() {
		out.Free(d.m.Heap())
		return nil, nil
	}
	result, err = env.toManaged(out, m.Sig.Return)
	out.Free(d.m.Heap())
	if err != nil {
		return nil, at(err, member, "return")
	}
	return result, nil
}
