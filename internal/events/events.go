// Package events provides the page-scoped pointer event bus that editor
// instances subscribe to. Every subscription is explicit and owned by the
// subscriber, which must release it through the returned unsubscribe func.
//
// A Bus is not safe for concurrent use. It models a single UI event loop:
// callers serialize Dispatch, Subscribe and unsubscribe calls themselves.
package events

import (
	"fmt"
	"strings"
)

type EventType int

const (
	PointerDown EventType = iota
	PointerMove
	PointerUp
)

func (t EventType) String() string {
	switch t {
	case PointerDown:
		return "pointerdown"
	case PointerMove:
		return "pointermove"
	case PointerUp:
		return "pointerup"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pointerdown", "mousedown", "down":
		return PointerDown, nil
	case "pointermove", "mousemove", "move":
		return PointerMove, nil
	case "pointerup", "mouseup", "up":
		return PointerUp, nil
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// TargetKind tells what kind of element an event landed on.
type TargetKind int

const (
	TargetOutside TargetKind = iota
	TargetText
	TargetMedia
	TargetWrapper
	TargetHandle
)

func (k TargetKind) String() string {
	switch k {
	case TargetOutside:
		return "outside"
	case TargetText:
		return "text"
	case TargetMedia:
		return "media"
	case TargetWrapper:
		return "wrapper"
	case TargetHandle:
		return "handle"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

func ParseTargetKind(s string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "outside":
		return TargetOutside, nil
	case "text":
		return TargetText, nil
	case "media", "image", "img":
		return TargetMedia, nil
	case "wrapper":
		return TargetWrapper, nil
	case "handle":
		return TargetHandle, nil
	}
	return 0, fmt.Errorf("unknown target kind %q", s)
}

// Target identifies the element under the pointer. Editor is the id of the
// editor whose surface contains the element; it is empty for page chrome.
type Target struct {
	Editor  string
	Kind    TargetKind
	MediaID string
}

// Box is the rendered size of the target as measured by the host.
type Box struct {
	Width  float64
	Height float64
}

type Event struct {
	Type   EventType
	Target Target
	X, Y   float64
	Box    Box
}

type Listener func(Event)

type subscription struct {
	typ     EventType
	fn      Listener
	removed bool
}

type Bus struct {
	subs []*subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for events of type t. The returned func removes the
// subscription; calling it more than once is a no-op.
func (b *Bus) Subscribe(t EventType, fn Listener) (unsubscribe func()) {
	s := &subscription{typ: t, fn: fn}
	b.subs = append(b.subs, s)

	return func() {
		if s.removed {
			return
		}
		s.removed = true
		b.remove(s)
	}
}

func (b *Bus) remove(s *subscription) {
	subs := make([]*subscription, 0, len(b.subs))
	for _, other := range b.subs {
		if other != s {
			subs = append(subs, other)
		}
	}
	b.subs = subs
}

// Dispatch delivers e to the listeners subscribed to its type, in subscription
// order. Listeners added during dispatch first see the next event; listeners
// removed during dispatch are not called.
func (b *Bus) Dispatch(e Event) {
	snapshot := b.subs
	for _, s := range snapshot {
		if s.removed || s.typ != e.Type {
			continue
		}
		s.fn(e)
	}
}

// Listeners reports how many subscriptions are registered for t.
func (b *Bus) Listeners(t EventType) int {
	n := 0
	for _, s := range b.subs {
		if s.typ == t {
			n++
		}
	}
	return n
}
