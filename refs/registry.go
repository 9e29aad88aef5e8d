package refs

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/handle"
)

// Kind tells local and persistent handles apart.
type Kind uint32

const (
	KindLocal Kind = iota + 1
	KindPersistent
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindPersistent:
		return "persistent"
	}
	return "unknown"
}

// Registry owns every object handle handed to native code.
type Registry struct {
	table  *handle.Table
	owners map[handle.Handle]*Frame
	mu     sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		table:  handle.NewTable(errors.PhaseRegistry),
		owners: make(map[handle.Handle]*Frame),
	}
}

// PushFrame opens a frame for one boundary crossing.
func (r *Registry) PushFrame() *Frame {
	return &Frame{reg: r}
}

// NewPersistent registers obj directly as a persistent handle. Like
// RegisterLocal, obj is a string, *managed.Object or *managed.Array.
func (r *Registry) NewPersistent(obj any) handle.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Insert(uint32(KindPersistent), obj)
}

// Deref returns the object behind h. The null handle yields nil.
func (r *Registry) Deref(h handle.Handle) (any, error) {
	if h == 0 {
		return nil, nil
	}
	return r.table.Get(h)
}

// KindOf returns whether h is local or persistent.
func (r *Registry) KindOf(h handle.Handle) (Kind, error) {
	tag, err := r.table.Tag(h)
	return Kind(tag), err
}

// PromoteToPersistent turns a local handle into a persistent one. The
// handle value does not change; it is detached from its frame.
func (r *Registry) PromoteToPersistent(h handle.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tag, err := r.table.Tag(h)
	if err != nil {
		return err
	}
	if Kind(tag) == KindPersistent {
		return nil
	}
	if f := r.owners[h]; f != nil {
		f.forget(h)
		delete(r.owners, h)
	}
	return r.table.Retag(h, uint32(KindPersistent))
}

// ReleaseLocal releases a local handle before its frame closes.
func (r *Registry) ReleaseLocal(h handle.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.expect(h, KindLocal, errors.DoubleRelease); err != nil {
		return err
	}
	if f := r.owners[h]; f != nil {
		f.forget(h)
		delete(r.owners, h)
	}
	_, err := r.table.Release(h)
	return err
}

// ReleasePersistent releases a persistent handle.
func (r *Registry) ReleasePersistent(h handle.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.expect(h, KindPersistent, errors.DoubleRelease); err != nil {
		return err
	}
	_, err := r.table.Release(h)
	return err
}

// expect checks that h is live and of kind want.
func (r *Registry) expect(h handle.Handle, want Kind, onReleased func(errors.Phase, any) *errors.Error) error {
	tag, err := r.table.Tag(h)
	if err != nil {
		if stale, ok := err.(*errors.Error); ok && stale.Kind == errors.KindUseAfterRelease {
			return onReleased(errors.PhaseRegistry, h)
		}
		return err
	}
	if got := Kind(tag); got != want {
		return errors.New(errors.PhaseRegistry, errors.KindTypeMismatch).
			Category(want.String()).
			Value(h).
			Detail("handle %v is %s", h, got).
			Build()
	}
	return nil
}

// IsSameObject reports whether a and b refer to the same object. Null
// handles are the same as each other.
func (r *Registry) IsSameObject(a, b handle.Handle) (bool, error) {
	va, err := r.Deref(a)
	if err != nil {
		return false, err
	}
	vb, err := r.Deref(b)
	if err != nil {
		return false, err
	}
	return va == vb, nil
}

// Live returns the number of live handles.
func (r *Registry) Live() int { return r.table.Len() }

// LiveLocal returns the number of live local handles.
func (r *Registry) LiveLocal() int { return r.table.Count(uint32(KindLocal)) }

// LivePersistent returns the number of live persistent handles.
func (r *Registry) LivePersistent() int { return r.table.Count(uint32(KindPersistent)) }

// Subscribe observes handle lifecycle events.
func (r *Registry) Subscribe(o handle.Observer) (cancel func()) {
	return r.table.Subscribe(o)
}

// Frame owns the local handles created during one boundary crossing.
type Frame struct {
	reg    *Registry
	locals []handle.Handle
	closed bool
}

// RegisterLocal registers obj as a local handle owned by f. obj is a
// string, *managed.Object or *managed.Array; handles are compared by
// identity of those values.
func (f *Frame) RegisterLocal(obj any) (handle.Handle, error) {
	r := f.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.closed {
		return 0, errors.InvalidInput(errors.PhaseRegistry, "frame already closed")
	}
	h := r.table.Insert(uint32(KindLocal), obj)
	f.locals = append(f.locals, h)
	r.owners[h] = f
	return h, nil
}

// NewLocal is RegisterLocal under the name marshal.References uses.
func (f *Frame) NewLocal(obj any) (handle.Handle, error) {
	return f.RegisterLocal(obj)
}

// Deref resolves h through the owning registry.
func (f *Frame) Deref(h handle.Handle) (any, error) {
	return f.reg.Deref(h)
}

// Registry returns the registry f belongs to.
func (f *Frame) Registry() *Registry { return f.reg }

// Len returns the number of locals still owned by f.
func (f *Frame) Len() int {
	f.reg.mu.Lock()
	defer f.reg.mu.Unlock()
	return len(f.locals)
}

// Close releases every local still owned by f, most recent first.
// Closing a closed frame is a no-op.
func (f *Frame) Close() error {
	r := f.reg
	r.mu.Lock()
	if f.closed {
		r.mu.Unlock()
		return nil
	}
	f.closed = true
	locals := f.locals
	f.locals = nil

	var errs error
	for i := len(locals) - 1; i >= 0; i-- {
		h := locals[i]
		delete(r.owners, h)
		if _, err := r.table.Release(h); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	r.mu.Unlock()

	if len(locals) > 0 {
		Logger().Debug("frame closed with live locals",
			zap.Int("released", len(locals)))
	}
	if errs != nil {
		Logger().Warn("frame release failed", zap.Error(errs))
	}
	return errs
}

// forget drops h from f's locals. Caller holds the registry lock.
func (f *Frame) forget(h handle.Handle) {
	for i, l := range f.locals {
		if l == h {
			f.locals = append(f.locals[:i], f.locals[i+1:]...)
			return
		}
	}
}
