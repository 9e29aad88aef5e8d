package bridge

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/handle"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/signature"
)

// view is the table entry behind a view handle.
type view struct {
	src    any
	native marshal.Native
}

// Bridge owns the live views of one native heap.
type Bridge struct {
	m     *marshal.Marshaler
	table *handle.Table
}

// New creates a bridge copying through m.
func New(m *marshal.Marshaler) *Bridge {
	return &Bridge{m: m, table: handle.NewTable(errors.PhaseBridge)}
}

// Marshaler returns the marshaler views are copied with.
func (b *Bridge) Marshaler() *marshal.Marshaler { return b.m }

// AcquireView copies a primitive array or string into native memory and
// returns the handle of the view.
func (b *Bridge) AcquireView(v any) (handle.Handle, error) {
	var (
		n   marshal.Native
		err error
	)
	switch src := v.(type) {
	case string:
		n, err = b.m.CopyString(src)
	case *managed.Array:
		if src == nil {
			return 0, errors.InvalidInput(errors.PhaseBridge, "view of null array")
		}
		if !src.Elem().IsPrimitive() {
			return 0, errors.TypeMismatch(errors.PhaseBridge, nil, src.Descriptor().String(), "primitive array")
		}
		n, err = b.m.CopyArray(src)
	case nil:
		return 0, errors.InvalidInput(errors.PhaseBridge, "view of null reference")
	default:
		return 0, errors.TypeMismatch(errors.PhaseBridge, nil, fmt.Sprintf("%T", v), "array or string")
	}
	if err != nil {
		return 0, err
	}

	h := b.table.Insert(0, &view{src: v, native: n})
	return h, nil
}

// Release frees the view behind h. With writeBack, native mutations are
// copied into the source array first. The buffer is freed and h
// invalidated even when the write back fails.
func (b *Bridge) Release(h handle.Handle, writeBack bool) error {
	val, err := b.table.Release(h)
	if err != nil {
		return err
	}
	vw := val.(*view)

	var errs error
	if arr, ok := vw.src.(*managed.Array); ok && writeBack {
		errs = b.m.WriteBack(vw.native, arr)
	}
	vw.native.Free(b.m.Heap())
	return errs
}

// View returns an accessor for the live view h.
func (b *Bridge) View(h handle.Handle) (*View, error) {
	if _, err := b.lookup(h); err != nil {
		return nil, err
	}
	return &View{b: b, h: h}, nil
}

// Native returns the native form of view h as passed to entry points.
func (b *Bridge) Native(h handle.Handle) (marshal.Native, error) {
	vw, err := b.lookup(h)
	if err != nil {
		return marshal.Native{}, err
	}
	n := vw.native
	n.View = h
	n.Disown()
	return n, nil
}

// Source returns the managed value view h was acquired from.
func (b *Bridge) Source(h handle.Handle) (any, error) {
	vw, err := b.lookup(h)
	if err != nil {
		return nil, err
	}
	return vw.src, nil
}

// Live returns the number of live views.
func (b *Bridge) Live() int { return b.table.Len() }

// Subscribe observes view acquire and release events.
func (b *Bridge) Subscribe(o handle.Observer) (cancel func()) {
	return b.table.Subscribe(o)
}

// NewScope opens a scope for one logical call.
func (b *Bridge) NewScope() *Scope {
	return &Scope{b: b, bySource: make(map[*managed.Array]handle.Handle)}
}

func (b *Bridge) lookup(h handle.Handle) (*view, error) {
	v, err := b.table.Get(h)
	if err != nil {
		return nil, err
	}
	return v.(*view), nil
}

// Scope tracks the views acquired during one logical call. Not safe for
// concurrent use; a call runs on one goroutine.
type Scope struct {
	b        *Bridge
	bySource map[*managed.Array]handle.Handle
	handles  []handle.Handle
}

// Bridge returns the bridge the scope acquires from.
func (s *Scope) Bridge() *Bridge { return s.b }

// Acquire acquires a view owned by the scope. A second acquire of an
// array already viewed in this scope fails with ReentrantAcquire.
func (s *Scope) Acquire(v any) (handle.Handle, error) {
	arr, isArray := v.(*managed.Array)
	if isArray {
		if _, live := s.bySource[arr]; live {
			return 0, errors.ReentrantAcquire(fmt.Sprintf("array %s already has a live view in this scope", arr.Descriptor()))
		}
	}
	h, err := s.b.AcquireView(v)
	if err != nil {
		return 0, err
	}
	if isArray {
		s.bySource[arr] = h
	}
	s.handles = append(s.handles, h)
	return h, nil
}

// Share returns the live view of v in this scope, acquiring one if none
// exists.
func (s *Scope) Share(v any) (handle.Handle, error) {
	if arr, ok := v.(*managed.Array); ok {
		if h, live := s.bySource[arr]; live {
			return h, nil
		}
	}
	return s.Acquire(v)
}

// NewString creates a native string view with no managed source, the way
// native code builds a string result.
func (s *Scope) NewString(str string) (handle.Handle, error) {
	return s.Acquire(str)
}

// NewArray creates a zero-filled managed array of n elements and a view
// on it for native code to fill.
func (s *Scope) NewArray(elem *signature.Descriptor, n int) (*managed.Array, handle.Handle, error) {
	if !elem.IsPrimitive() {
		return nil, 0, errors.TypeMismatch(errors.PhaseBridge, nil, elem.String()+"[]", "primitive array")
	}
	arr, err := managed.NewArray(elem, n)
	if err != nil {
		return nil, 0, err
	}
	h, err := s.Acquire(arr)
	if err != nil {
		return nil, 0, err
	}
	return arr, h, nil
}

// Release releases one view of the scope ahead of ReleaseAll.
func (s *Scope) Release(h handle.Handle, writeBack bool) error {
	idx := -1
	for i, sh := range s.handles {
		if sh == h {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s.b.Release(h, writeBack)
	}
	s.handles = append(s.handles[:idx], s.handles[idx+1:]...)
	s.forget(h)
	return s.b.Release(h, writeBack)
}

// ReleaseAll releases every view of the scope, most recent first. All
// views are released even if some fail; the failures are combined.
func (s *Scope) ReleaseAll(writeBack bool) error {
	var errs error
	for i := len(s.handles) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, s.b.Release(s.handles[i], writeBack))
	}
	s.handles = s.handles[:0]
	clear(s.bySource)
	return errs
}

// Len returns the number of views held by the scope.
func (s *Scope) Len() int { return len(s.handles) }

func (s *Scope) forget(h handle.Handle) {
	for arr, sh := range s.bySource {
		if sh == h {
			delete(s.bySource, arr)
			return
		}
	}
}
