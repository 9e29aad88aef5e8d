package handle

import (
	"fmt"
	"sync"

	"github.com/wippyai/jni-bridge/errors"
)

type entry struct {
	value any
	gen   uint32
	tag   uint32
	valid bool
}

type subscription struct {
	obs Observer
	id  uint64
}

// Table maps handles to values with use-after-release and double-release
// detection. Safe for concurrent use.
type Table struct {
	entries   []entry
	freeList  []uint32
	observers []subscription
	phase     errors.Phase
	live      int
	nextObs   uint64
	mu        sync.RWMutex
	obsMu     sync.RWMutex
}

// NewTable creates an empty table. phase tags the errors it reports.
func NewTable(phase errors.Phase) *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
		phase:    phase,
	}
}

// Insert stores value under a fresh handle.
func (t *Table) Insert(tag uint32, value any) Handle {
	t.mu.Lock()
	var idx uint32
	if n := len(t.freeList); n > 0 {
		idx = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		e := &t.entries[idx]
		e.value = value
		e.tag = tag
		e.valid = true
	} else {
		idx = uint32(len(t.entries))
		t.entries = append(t.entries, entry{value: value, tag: tag, valid: true})
	}
	h := makeHandle(idx, t.entries[idx].gen)
	t.live++
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Tag: tag, Value: value})
	return h
}

// lookup returns the live entry for h. onReleased builds the error for a
// handle that was valid once and has since been released.
func (t *Table) lookup(h Handle, onReleased func(errors.Phase, any) *errors.Error) (*entry, error) {
	idx, ok := h.index()
	if !ok {
		return nil, errors.InvalidInput(t.phase, "null handle")
	}
	if int(idx) >= len(t.entries) {
		return nil, errors.InvalidInput(t.phase, fmt.Sprintf("unknown handle %v", h))
	}
	e := &t.entries[idx]
	switch {
	case h.generation() > e.gen:
		return nil, errors.InvalidInput(t.phase, fmt.Sprintf("unknown handle %v", h))
	case h.generation() < e.gen || !e.valid:
		return nil, onReleased(t.phase, h)
	}
	return e, nil
}

// Get returns the value of a live handle.
func (t *Table) Get(h Handle) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookup(h, errors.UseAfterRelease)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// Tag returns the tag of a live handle.
func (t *Table) Tag(h Handle) (uint32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookup(h, errors.UseAfterRelease)
	if err != nil {
		return 0, err
	}
	return e.tag, nil
}

// Retag changes the tag of a live handle. Retagging to the current tag
// is a no-op and emits no event.
func (t *Table) Retag(h Handle, tag uint32) error {
	t.mu.Lock()
	e, err := t.lookup(h, errors.UseAfterRelease)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if e.tag == tag {
		t.mu.Unlock()
		return nil
	}
	e.tag = tag
	value := e.value
	t.mu.Unlock()

	t.notify(Event{Type: EventRetagged, Handle: h, Tag: tag, Value: value})
	return nil
}

// Release invalidates h and returns its value. A second release fails
// with DoubleRelease.
func (t *Table) Release(h Handle) (any, error) {
	t.mu.Lock()
	e, err := t.lookup(h, errors.DoubleRelease)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	value, tag := e.value, e.tag
	idx, _ := h.index()
	e.value = nil
	e.valid = false
	e.gen++
	t.freeList = append(t.freeList, idx)
	t.live--
	t.mu.Unlock()

	t.notify(Event{Type: EventReleased, Handle: h, Tag: tag, Value: value})
	return value, nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// Count returns the number of live handles carrying tag.
func (t *Table) Count(tag uint32) int {
	n := 0
	t.Each(func(_ Handle, tg uint32, _ any) bool {
		if tg == tag {
			n++
		}
		return true
	})
	return n
}

// Each calls fn for every live handle until fn returns false. fn must not
// call back into the table.
func (t *Table) Each(fn func(h Handle, tag uint32, value any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.entries {
		e := &t.entries[i]
		if !e.valid {
			continue
		}
		if !fn(makeHandle(uint32(i), e.gen), e.tag, e.value) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events and returns a function
// that removes it.
func (t *Table) Subscribe(o Observer) (cancel func()) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.nextObs++
	id := t.nextObs
	t.observers = append(t.observers, subscription{id: id, obs: o})
	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		for i, s := range t.observers {
			if s.id == id {
				t.observers = append(t.observers[:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, s := range t.observers {
		s.obs.OnHandleEvent(e)
	}
}
