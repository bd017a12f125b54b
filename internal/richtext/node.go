package richtext

import (
	"slices"
	"unicode/utf8"

	"golang.org/x/net/html"
)

type BlockKind int

const (
	// BlockLoose holds inline content that sits directly in the surface,
	// outside of any block element.
	BlockLoose BlockKind = iota
	BlockParagraph
	BlockBulletItem
	BlockNumberedItem
	// BlockRaw is any other block element. It is kept verbatim and is opaque
	// to selection and commands.
	BlockRaw
)

func (k BlockKind) String() string {
	switch k {
	case BlockLoose:
		return "loose"
	case BlockParagraph:
		return "paragraph"
	case BlockBulletItem:
		return "bullet-item"
	case BlockNumberedItem:
		return "numbered-item"
	case BlockRaw:
		return "raw"
	}
	return "unknown"
}

func (k BlockKind) isListItem() bool {
	return k == BlockBulletItem || k == BlockNumberedItem
}

type InlineKind int

const (
	InlineText InlineKind = iota
	InlineMedia
	InlineBreak
	InlineRaw
)

// FontSize is the legacy font size scale used by the font-size command, 1-7.
// Zero means no explicit size.
type FontSize int

type Marks struct {
	Bold      bool
	Italic    bool
	Underline bool
	Size      FontSize
}

type Inline struct {
	Kind  InlineKind
	Text  string
	Marks Marks
	Media *Media

	raw *html.Node
}

// width is the number of caret positions an inline occupies.
func (in Inline) width() int {
	if in.Kind == InlineText {
		return utf8.RuneCountInString(in.Text)
	}
	return 1
}

type Block struct {
	Kind    BlockKind
	Inlines []Inline

	attrs attrSet
	raw   *html.Node
}

// Len is the number of caret positions in the block.
func (b *Block) Len() int {
	if b.Kind == BlockRaw {
		return 0
	}
	n := 0
	for _, in := range b.Inlines {
		n += in.width()
	}
	return n
}

// TextAlign is the block's text-align, empty when unset.
func (b *Block) TextAlign() string {
	v, _ := b.attrs.style().Get("text-align")
	return v
}

func (b *Block) setTextAlign(v string) {
	st := b.attrs.style()
	if cur, ok := st.Get("text-align"); ok && cur == v {
		return
	}
	st.Set("text-align", v)
	b.attrs.touch()
}

// split makes sure an inline boundary exists at caret offset off and returns
// the index of the first inline starting at or after it.
func (b *Block) split(off int) int {
	pos := 0
	for i := range b.Inlines {
		if pos >= off {
			return i
		}
		n := b.Inlines[i].width()
		if off < pos+n {
			in := b.Inlines[i]
			r := []rune(in.Text)
			k := off - pos
			left, right := in, in
			left.Text = string(r[:k])
			right.Text = string(r[k:])
			b.Inlines[i] = left
			b.Inlines = slices.Insert(b.Inlines, i+1, right)
			return i + 1
		}
		pos += n
	}
	return len(b.Inlines)
}

// normalize merges adjacent text runs with equal marks and drops empty runs.
// Rendering groups equal marks anyway, so this never changes the markup.
func (b *Block) normalize() {
	out := b.Inlines[:0]
	for _, in := range b.Inlines {
		if in.Kind == InlineText && in.Text == "" {
			continue
		}
		if n := len(out); n > 0 && in.Kind == InlineText && out[n-1].Kind == InlineText && out[n-1].Marks == in.Marks {
			out[n-1].Text += in.Text
			continue
		}
		out = append(out, in)
	}
	b.Inlines = out
}

// Surface is the editable document: an ordered list of blocks.
type Surface struct {
	Blocks []*Block
}

// Media returns every media of the surface in document order.
func (s *Surface) Media() []*Media {
	var out []*Media
	for _, b := range s.Blocks {
		for _, in := range b.Inlines {
			if in.Kind == InlineMedia {
				out = append(out, in.Media)
			}
		}
	}
	return out
}

func (s *Surface) findMedia(id string) *Media {
	if id == "" {
		return nil
	}
	for _, m := range s.Media() {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// IsEmpty reports whether the surface has no visible content.
func (s *Surface) IsEmpty() bool {
	for _, b := range s.Blocks {
		if b.Kind == BlockRaw {
			return false
		}
		for _, in := range b.Inlines {
			if in.Kind != InlineText || in.Text != "" && !isSpace(in.Text) {
				return false
			}
		}
	}
	return true
}

// blank reports whether b is loose whitespace, such as the newline between
// two paragraphs.
func (b *Block) blank() bool {
	if b.Kind != BlockLoose {
		return false
	}
	for _, in := range b.Inlines {
		if in.Kind != InlineText || !isSpace(in.Text) {
			return false
		}
	}
	return true
}

func isSpace(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' && r != '\f' {
			return false
		}
	}
	return true
}

// attrSet keeps an element's attributes in their original order. The style
// attribute is parsed on demand and only re-rendered once it is touched, so
// elements nobody edits serialize exactly as they were read.
type attrSet struct {
	attrs  []html.Attribute
	parsed *Style
	dirty  bool
}

func newAttrSet(attrs []html.Attribute) attrSet {
	return attrSet{attrs: slices.Clone(attrs)}
}

func (a *attrSet) get(key string) (string, bool) {
	for _, at := range a.attrs {
		if at.Namespace == "" && at.Key == key {
			return at.Val, true
		}
	}
	return "", false
}

func (a *attrSet) style() *Style {
	if a.parsed == nil {
		raw, _ := a.get("style")
		a.parsed = ParseStyle(raw)
	}
	return a.parsed
}

func (a *attrSet) touch() {
	a.style()
	a.dirty = true
}

func (a *attrSet) render() []html.Attribute {
	out := slices.Clone(a.attrs)
	if !a.dirty {
		return out
	}

	value := a.parsed.String()
	for i, at := range out {
		if at.Namespace == "" && at.Key == "style" {
			if value == "" {
				return slices.Delete(out, i, i+1)
			}
			out[i].Val = value
			return out
		}
	}
	if value != "" {
		out = append(out, html.Attribute{Key: "style", Val: value})
	}
	return out
}
