package richtext

import (
	"math"

	"github.com/debemdeboas/archive-editor/internal/events"
)

const (
	DefaultMinWidth   = 50
	DefaultImageWidth = 300
)

// DragSession is the state of one resize gesture, from handle press to
// pointer release. It is never persisted.
type DragSession struct {
	MediaID     string
	StartX      float64
	StartWidth  float64
	StartHeight float64
	// AspectRatio is StartWidth / StartHeight, or zero when the start size
	// cannot give a usable ratio.
	AspectRatio float64

	unsubscribe []func()
}

// AspectRatio returns width / height, and false when the ratio would be zero,
// NaN or infinite.
func AspectRatio(width, height float64) (float64, bool) {
	if !(width > 0) || !(height > 0) || !finite(width) || !finite(height) {
		return 0, false
	}
	ratio := width / height
	if !finite(ratio) || ratio <= 0 {
		return 0, false
	}
	return ratio, true
}

// ResizeWidth is the driven axis: the start width moved by deltaX, never
// below minWidth.
func ResizeWidth(startWidth, deltaX, minWidth float64) float64 {
	w := startWidth + deltaX
	if !finite(w) {
		w = startWidth
	}
	if !finite(w) {
		w = minWidth
	}
	return math.Max(minWidth, w)
}

func newDragSession(m *Media, e events.Event) *DragSession {
	w, h := e.Box.Width, e.Box.Height
	if !(w > 0) || !finite(w) {
		w, _ = m.Width()
	}
	if !(h > 0) || !finite(h) {
		h, _ = m.Height()
	}

	ratio, _ := AspectRatio(w, h)
	return &DragSession{
		MediaID:     m.ID,
		StartX:      e.X,
		StartWidth:  w,
		StartHeight: h,
		AspectRatio: ratio,
	}
}

// size computes the dimensions for pointer position x. The height is always
// derived from the width; ok is false when there is no usable ratio and the
// height must stay automatic.
func (d *DragSession) size(x, minWidth float64) (width, height float64, ok bool) {
	width = ResizeWidth(d.StartWidth, x-d.StartX, minWidth)
	if d.AspectRatio == 0 {
		return width, 0, false
	}
	return width, width / d.AspectRatio, true
}

func (d *DragSession) release() {
	for _, unsub := range d.unsubscribe {
		unsub()
	}
	d.unsubscribe = nil
}
