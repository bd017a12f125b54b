package events

import (
	"testing"
)

func TestParseTargetKind(t *testing.T) {
	tests := []struct {
		in   string
		want TargetKind
	}{
		{"", TargetOutside},
		{"outside", TargetOutside},
		{"text", TargetText},
		{"media", TargetMedia},
		{"IMG", TargetMedia},
		{"wrapper", TargetWrapper},
		{"handle", TargetHandle},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTargetKind(tt.in)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := ParseTargetKind("toolbar"); err == nil {
		t.Error("Expected error for unknown target kind")
	}
}

func TestParseEventType(t *testing.T) {
	for in, want := range map[string]EventType{
		"pointerdown": PointerDown,
		"mousemove":   PointerMove,
		"up":          PointerUp,
	} {
		got, err := ParseEventType(in)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", in, err)
		}
		if got != want {
			t.Errorf("Expected %v for %q, got %v", want, in, got)
		}
	}

	if _, err := ParseEventType("click"); err == nil {
		t.Error("Expected error for unknown event type")
	}
}

func TestBus(t *testing.T) {
	t.Run("Dispatch in subscription order", func(t *testing.T) {
		bus := NewBus()
		var order []int
		bus.Subscribe(PointerDown, func(Event) { order = append(order, 1) })
		bus.Subscribe(PointerDown, func(Event) { order = append(order, 2) })
		bus.Subscribe(PointerMove, func(Event) { order = append(order, 99) })

		bus.Dispatch(Event{Type: PointerDown})

		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("Expected [1 2], got %v", order)
		}
	})

	t.Run("Unsubscribe is idempotent", func(t *testing.T) {
		bus := NewBus()
		calls := 0
		unsub := bus.Subscribe(PointerUp, func(Event) { calls++ })
		other := bus.Subscribe(PointerUp, func(Event) {})

		unsub()
		unsub()

		if n := bus.Listeners(PointerUp); n != 1 {
			t.Errorf("Expected 1 listener, got %d", n)
		}
		bus.Dispatch(Event{Type: PointerUp})
		if calls != 0 {
			t.Errorf("Expected removed listener not to be called, got %d calls", calls)
		}

		other()
		if n := bus.Listeners(PointerUp); n != 0 {
			t.Errorf("Expected 0 listeners, got %d", n)
		}
	})

	t.Run("Listener removed during dispatch is skipped", func(t *testing.T) {
		bus := NewBus()
		var second func()
		calls := 0
		bus.Subscribe(PointerMove, func(Event) { second() })
		second = bus.Subscribe(PointerMove, func(Event) { calls++ })

		bus.Dispatch(Event{Type: PointerMove})

		if calls != 0 {
			t.Errorf("Expected 0 calls, got %d", calls)
		}
	})

	t.Run("Listener added during dispatch waits for the next event", func(t *testing.T) {
		bus := NewBus()
		calls := 0
		added := false
		bus.Subscribe(PointerDown, func(Event) {
			if !added {
				added = true
				bus.Subscribe(PointerDown, func(Event) { calls++ })
			}
		})

		bus.Dispatch(Event{Type: PointerDown})
		if calls != 0 {
			t.Errorf("Expected 0 calls on the first dispatch, got %d", calls)
		}

		bus.Dispatch(Event{Type: PointerDown})
		if calls != 1 {
			t.Errorf("Expected 1 call on the second dispatch, got %d", calls)
		}
	})
}
