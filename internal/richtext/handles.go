package richtext

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// handleManager decides which media is decorated with a resize wrapper and
// its handle. Decoration happens at render time; the surface tree is never
// reparented, so unwrapping cannot disturb the order of siblings.
type handleManager struct {
	wrapped []string
}

// activate removes every existing decoration, then decorates id alone.
func (h *handleManager) activate(id string) {
	h.clear()
	h.wrapped = append(h.wrapped, id)
}

func (h *handleManager) deactivate() {
	h.clear()
}

func (h *handleManager) clear() {
	h.wrapped = h.wrapped[:0]
}

func (h *handleManager) isWrapped(id string) bool {
	for _, w := range h.wrapped {
		if w == id {
			return true
		}
	}
	return false
}

// wrappers is the number of resize wrappers a render will contain.
func (h *handleManager) wrappers() int {
	return len(h.wrapped)
}

var wrapperBaseStyle = []Declaration{
	{Property: "position", Value: "relative"},
	{Property: "display", Value: "inline-block"},
}

var handleStyle = []Declaration{
	{Property: "position", Value: "absolute"},
	{Property: "right", Value: "0"},
	{Property: "bottom", Value: "0"},
	{Property: "width", Value: "10px"},
	{Property: "height", Value: "10px"},
	{Property: "cursor", Value: "nwse-resize"},
}

// decorate wraps img in a resize wrapper with one handle at the trailing
// corner. The media's layout declarations move to the wrapper, which is the
// element that takes part in the flow while decorated.
func (h *handleManager) decorate(img *html.Node, m *Media) *html.Node {
	media := m.attrs.style()

	wrapperStyle := &Style{decls: append([]Declaration(nil), wrapperBaseStyle...)}
	inner := media.Clone()
	for _, prop := range layoutProperties {
		if v, ok := media.Get(prop); ok {
			wrapperStyle.Set(prop, v)
		}
	}
	inner.Del(layoutProperties...)

	attrs := newAttrSet(img.Attr)
	attrs.parsed = inner
	attrs.dirty = true
	img.Attr = attrs.render()

	wrapper := element(atom.Span, []html.Attribute{
		{Key: "class", Val: wrapperClass},
		{Key: mediaIDAttr, Val: m.ID},
		{Key: "style", Val: wrapperStyle.String()},
	})
	handle := element(atom.Span, []html.Attribute{
		{Key: "class", Val: handleClass},
		{Key: mediaIDAttr, Val: m.ID},
		{Key: "style", Val: (&Style{decls: handleStyle}).String()},
	})

	wrapper.AppendChild(img)
	wrapper.AppendChild(handle)
	return wrapper
}
