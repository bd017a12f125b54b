package richtext

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/debemdeboas/archive-editor/internal/events"
)

const tolerance = 0.02

// startDrag activates the only media of ed and presses its handle at x with
// the given rendered box.
func startDrag(t *testing.T, ed *Editor, bus *events.Bus, x float64, box events.Box) string {
	t.Helper()
	id := ed.Media()[0].ID
	press(bus, ed, events.TargetMedia, id)
	bus.Dispatch(events.Event{
		Type:   events.PointerDown,
		Target: events.Target{Editor: ed.ID(), Kind: events.TargetHandle, MediaID: id},
		X:      x,
		Box:    box,
	})
	if !ed.IsDragging() {
		t.Fatal("Expected drag to start")
	}
	return id
}

func move(bus *events.Bus, x float64) {
	bus.Dispatch(events.Event{Type: events.PointerMove, X: x})
}

func release(bus *events.Bus, x float64) {
	bus.Dispatch(events.Event{Type: events.PointerUp, X: x})
}

func TestDragResizeScenarios(t *testing.T) {
	tests := []struct {
		name       string
		deltaX     float64
		wantWidth  float64
		wantHeight float64
	}{
		{"grow by 100", 100, 400, 266.67},
		{"shrink past the floor", -1000, 50, 33.33},
		{"shrink a little", -60, 240, 160},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, bus, rec := newMounted(t, "<p>Hello</p>")
			if err := ed.Exec(CmdInsertImage, "https://x/img.png"); err != nil {
				t.Fatal(err)
			}
			rec.calls = nil

			id := startDrag(t, ed, bus, 500, events.Box{Width: 300, Height: 200})
			d, _ := ed.Drag()
			if d.AspectRatio != 1.5 || d.StartWidth != 300 || d.StartHeight != 200 {
				t.Errorf("Expected 300x200 at ratio 1.5, got %+v", d)
			}
			if ed.MediaState(id) != StateDragging {
				t.Errorf("Expected dragging state, got %v", ed.MediaState(id))
			}

			move(bus, 500+tt.deltaX)
			release(bus, 500+tt.deltaX)

			m := ed.Media()[0]
			if math.Abs(m.Width-tt.wantWidth) > tolerance {
				t.Errorf("Expected width %v, got %v", tt.wantWidth, m.Width)
			}
			if m.AutoHeight || math.Abs(m.Height-tt.wantHeight) > tolerance {
				t.Errorf("Expected height %v, got %v (auto=%v)", tt.wantHeight, m.Height, m.AutoHeight)
			}
			if ed.MediaState(id) != StateActive {
				t.Errorf("Expected active state after release, got %v", ed.MediaState(id))
			}
			if len(rec.calls) != 2 {
				t.Errorf("Expected one change per move plus one at release, got %d", len(rec.calls))
			}
		})
	}
}

func TestDragListenersReleasedOnce(t *testing.T) {
	ed, bus, rec := newMounted(t, `<img src="a.png" style="width: 300px; height: 200px;"/>`)
	startDrag(t, ed, bus, 0, events.Box{})

	if bus.Listeners(events.PointerMove) != 1 || bus.Listeners(events.PointerUp) != 1 {
		t.Fatalf("Expected one move and one up listener, got %d and %d",
			bus.Listeners(events.PointerMove), bus.Listeners(events.PointerUp))
	}

	move(bus, 30)
	move(bus, 60)
	release(bus, 60)
	changes := len(rec.calls)

	if bus.Listeners(events.PointerMove) != 0 || bus.Listeners(events.PointerUp) != 0 {
		t.Errorf("Expected drag listeners to be removed, got %d move and %d up",
			bus.Listeners(events.PointerMove), bus.Listeners(events.PointerUp))
	}
	if changes != 3 {
		t.Errorf("Expected 3 changes, got %d", changes)
	}

	move(bus, 400)
	release(bus, 400)
	if len(rec.calls) != changes {
		t.Errorf("Expected no changes after release, got %d more", len(rec.calls)-changes)
	}
	if w := ed.Media()[0].Width; w != 360 {
		t.Errorf("Expected width 360, got %v", w)
	}
}

func TestDragFallsBackToDeclaredSize(t *testing.T) {
	ed, bus, _ := newMounted(t, `<img src="a.png" style="width: 200px; height: 100px;"/>`)
	startDrag(t, ed, bus, 10, events.Box{})

	move(bus, 110)

	m := ed.Media()[0]
	if m.Width != 300 || m.Height != 150 {
		t.Errorf("Expected 300x150, got %vx%v", m.Width, m.Height)
	}
	release(bus, 110)
}

func TestDragKeepsAspectRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		startW := 20 + rng.Float64()*800
		startH := 20 + rng.Float64()*800
		ratio := startW / startH

		ed, bus, rec := newMounted(t, `<p><img src="a.png"/></p>`)
		startDrag(t, ed, bus, 0, events.Box{Width: startW, Height: startH})

		for frame := 0; frame < 20; frame++ {
			x := (rng.Float64()*2 - 1) * 2000
			move(bus, x)

			m := ed.Media()[0]
			if m.Width < DefaultMinWidth {
				t.Fatalf("run %d frame %d: width %v below the floor", run, frame, m.Width)
			}
			want := math.Max(DefaultMinWidth, startW+x)
			if math.Abs(m.Width-want) > tolerance {
				t.Fatalf("run %d frame %d: expected width %v, got %v", run, frame, want, m.Width)
			}
			if math.Abs(m.Height-want/ratio) > tolerance {
				t.Fatalf("run %d frame %d: height %v does not match width %v at ratio %v", run, frame, m.Height, want, ratio)
			}
			if strings.Contains(rec.last(), "NaN") || strings.Contains(rec.last(), "Inf") {
				t.Fatalf("run %d frame %d: non-finite size in %q", run, frame, rec.last())
			}
		}
		release(bus, 0)
	}
}

func TestDragDegenerateMedia(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		box    events.Box
	}{
		{"zero rendered height", `<img src="a.png" style="width: 120px;"/>`, events.Box{Width: 120, Height: 0}},
		{"zero declared height", `<img src="a.png" style="width: 120px; height: 0px;"/>`, events.Box{}},
		{"nothing known", `<img src="a.png"/>`, events.Box{}},
		{"non-finite box", `<img src="a.png" style="width: 120px;"/>`, events.Box{Width: math.Inf(1), Height: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, bus, rec := newMounted(t, tt.markup)
			startDrag(t, ed, bus, 0, tt.box)

			d, _ := ed.Drag()
			if d.AspectRatio != 0 {
				t.Errorf("Expected no usable ratio, got %v", d.AspectRatio)
			}

			move(bus, 40)
			move(bus, -500)
			release(bus, -500)

			for _, markup := range rec.calls {
				if strings.Contains(markup, "NaN") || strings.Contains(markup, "Inf") {
					t.Fatalf("Expected finite sizes, got %q", markup)
				}
			}
			m := ed.Media()[0]
			if m.Width != DefaultMinWidth || !m.AutoHeight {
				t.Errorf("Expected clamped width with auto height, got %+v", m)
			}
		})
	}
}

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		w, h float64
		want float64
		ok   bool
	}{
		{300, 200, 1.5, true},
		{300, 0, 0, false},
		{0, 200, 0, false},
		{-10, 20, 0, false},
		{math.NaN(), 10, 0, false},
		{10, math.Inf(1), 0, false},
	}

	for _, tt := range tests {
		got, ok := AspectRatio(tt.w, tt.h)
		if got != tt.want || ok != tt.ok {
			t.Errorf("AspectRatio(%v, %v): expected (%v, %v), got (%v, %v)", tt.w, tt.h, tt.want, tt.ok, got, ok)
		}
	}

	if got := ResizeWidth(300, -1000, 50); got != 50 {
		t.Errorf("Expected clamp to 50, got %v", got)
	}
	if got := ResizeWidth(300, math.NaN(), 50); got != 300 {
		t.Errorf("Expected NaN delta to keep 300, got %v", got)
	}
}

func TestMinWidthOption(t *testing.T) {
	ed, bus, _ := newMounted(t, `<img src="a.png" style="width: 300px; height: 300px;"/>`, WithMinWidth(80))
	startDrag(t, ed, bus, 0, events.Box{})

	move(bus, -1000)
	release(bus, -1000)

	if m := ed.Media()[0]; m.Width != 80 || m.Height != 80 {
		t.Errorf("Expected 80x80, got %vx%v", m.Width, m.Height)
	}
}
