package richtext

import (
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Media is an embedded image of the surface. Its size and layout live in the
// inline style of the serialized element.
type Media struct {
	ID string

	attrs attrSet
}

func newMedia(attrs []html.Attribute) *Media {
	return &Media{
		ID:    uuid.NewString(),
		attrs: newAttrSet(attrs),
	}
}

// NewImage builds a media for src with a fixed width and automatic height.
func NewImage(src string, width float64) *Media {
	m := newMedia([]html.Attribute{{Key: "src", Val: src}})
	st := m.attrs.style()
	st.Set("width", formatPx(width))
	st.Set("height", "auto")
	m.attrs.touch()
	return m
}

func (m *Media) Src() string {
	v, _ := m.attrs.get("src")
	return v
}

func (m *Media) Alt() string {
	v, _ := m.attrs.get("alt")
	return v
}

// Width returns the declared width in pixels. It falls back to the width
// attribute when the style has none.
func (m *Media) Width() (float64, bool) {
	return m.dimension("width")
}

// Height returns the declared height in pixels; false for auto or unset.
func (m *Media) Height() (float64, bool) {
	return m.dimension("height")
}

func (m *Media) dimension(prop string) (float64, bool) {
	if v, ok := m.attrs.style().Get(prop); ok {
		return parsePx(v)
	}
	if v, ok := m.attrs.get(prop); ok {
		return parsePx(v)
	}
	return 0, false
}

func (m *Media) Alignment() Alignment {
	return alignmentOf(m.attrs.style())
}

// Style returns a copy of the media's inline style.
func (m *Media) Style() *Style {
	return m.attrs.style().Clone()
}

func (m *Media) setSize(width, height float64) {
	st := m.attrs.style()
	st.Set("width", formatPx(width))
	st.Set("height", formatPx(height))
	m.attrs.touch()
}

func (m *Media) setWidthAutoHeight(width float64) {
	st := m.attrs.style()
	st.Set("width", formatPx(width))
	st.Set("height", "auto")
	m.attrs.touch()
}

// MediaInfo is a read-only snapshot of a media.
type MediaInfo struct {
	ID         string
	Src        string
	Width      float64
	Height     float64
	AutoHeight bool
	Alignment  Alignment
	State      State
}
