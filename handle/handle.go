package handle

import "fmt"

// Handle is an opaque reference to a table slot. Handle 0 is invalid.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) index() (uint32, bool) {
	lo := uint32(h)
	if lo == 0 {
		return 0, false
	}
	return lo - 1, true
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

func (h Handle) String() string {
	if h == 0 {
		return "null"
	}
	return fmt.Sprintf("#%d.%d", uint32(h), h.generation())
}

// EventType is the kind of lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetagged
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventRetagged:
		return "retagged"
	case EventReleased:
		return "released"
	}
	return "unknown"
}

// Event is a handle lifecycle notification.
type Event struct {
	Value  any
	Handle Handle
	Tag    uint32
	Type   EventType
}

// Observer receives handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }
