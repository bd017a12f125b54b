package richtext

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	wrapperClass = "resize-wrapper"
	handleClass  = "resize-handle"
	mediaIDAttr  = "data-media-id"
)

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Details: true, atom.Div: true, atom.Dl: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Ul: true,
}

// Parse reads markup into a surface. Resize decorations left in the markup
// are removed, their content restored in place.
func Parse(markup string) (*Surface, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	b := &surfaceBuilder{}
	for _, n := range stripDecorations(nodes) {
		b.add(n)
	}
	return &Surface{Blocks: b.blocks}, nil
}

// stripDecorations unwraps every resize wrapper, at any depth and however
// nested, putting its children where the wrapper was in their original order.
// Handles are dropped.
func stripDecorations(nodes []*html.Node) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		switch {
		case hasClass(n, handleClass):
			continue
		case hasClass(n, wrapperClass):
			out = append(out, stripDecorations(detachChildren(n))...)
		default:
			if n.Type == html.ElementNode {
				for _, c := range stripDecorations(detachChildren(n)) {
					n.AppendChild(c)
				}
				if n.DataAtom == atom.Img {
					n.Attr = withoutAttr(n.Attr, mediaIDAttr)
				}
			}
			out = append(out, n)
		}
	}
	return out
}

func detachChildren(n *html.Node) []*html.Node {
	var kids []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		kids = append(kids, c)
		c = next
	}
	return kids
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func withoutAttr(attrs []html.Attribute, key string) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if a.Key != key {
			out = append(out, a)
		}
	}
	return out
}

type surfaceBuilder struct {
	blocks []*Block
	loose  *Block
}

func (sb *surfaceBuilder) add(n *html.Node) {
	if isInline(n) {
		if sb.loose == nil {
			sb.loose = &Block{Kind: BlockLoose}
			sb.blocks = append(sb.blocks, sb.loose)
		}
		inlines, ok := parseInline(n, Marks{}, sb.loose.Inlines)
		if ok {
			sb.loose.Inlines = inlines
		} else {
			sb.loose.Inlines = append(sb.loose.Inlines, Inline{Kind: InlineRaw, raw: n})
		}
		return
	}
	sb.loose = nil

	switch n.DataAtom {
	case atom.P:
		if inlines, ok := parseChildren(n, Marks{}); ok {
			sb.blocks = append(sb.blocks, &Block{Kind: BlockParagraph, Inlines: inlines, attrs: newAttrSet(n.Attr)})
			return
		}
	case atom.Ul, atom.Ol:
		if items, ok := parseList(n); ok {
			sb.blocks = append(sb.blocks, items...)
			return
		}
	}
	sb.blocks = append(sb.blocks, &Block{Kind: BlockRaw, raw: n})
}

func parseList(n *html.Node) ([]*Block, bool) {
	if len(n.Attr) > 0 || n.FirstChild == nil {
		return nil, false
	}
	kind := BlockBulletItem
	if n.DataAtom == atom.Ol {
		kind = BlockNumberedItem
	}

	var items []*Block
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			return nil, false
		}
		inlines, ok := parseChildren(c, Marks{})
		if !ok {
			return nil, false
		}
		items = append(items, &Block{Kind: kind, Inlines: inlines, attrs: newAttrSet(c.Attr)})
	}
	return items, true
}

func parseChildren(n *html.Node, marks Marks) ([]Inline, bool) {
	var out []Inline
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		var ok bool
		if out, ok = parseInline(c, marks, out); !ok {
			return nil, false
		}
	}
	return out, true
}

// parseInline appends the inline content of n to out. It fails when n holds
// block content that a text block cannot represent.
func parseInline(n *html.Node, marks Marks, out []Inline) ([]Inline, bool) {
	switch n.Type {
	case html.TextNode:
		return append(out, Inline{Kind: InlineText, Text: n.Data, Marks: marks}), true
	case html.CommentNode:
		return append(out, Inline{Kind: InlineRaw, Marks: marks, raw: n}), true
	case html.ElementNode:
	default:
		return out, true
	}
	if !isInline(n) {
		return nil, false
	}

	switch n.DataAtom {
	case atom.Img:
		return append(out, Inline{Kind: InlineMedia, Marks: marks, Media: newMedia(n.Attr)}), true
	case atom.Br:
		if len(n.Attr) == 0 {
			return append(out, Inline{Kind: InlineBreak, Marks: marks}), true
		}
	case atom.B, atom.I, atom.U, atom.Font:
		if inner, ok := markFor(n, marks); ok {
			start := len(out)
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				var ok bool
				if out, ok = parseInline(c, inner, out); !ok {
					return nil, false
				}
			}
			if len(out) > start {
				return out, true
			}
		}
	}
	if containsBlock(n) {
		return nil, false
	}
	return append(out, Inline{Kind: InlineRaw, Marks: marks, raw: n}), true
}

// markFor applies the formatting of a bare b, i, u or font element to marks.
// Elements carrying other attributes, or repeating a mark already in effect,
// are left to be kept verbatim.
func markFor(n *html.Node, marks Marks) (Marks, bool) {
	switch n.DataAtom {
	case atom.B:
		if len(n.Attr) > 0 || marks.Bold {
			return marks, false
		}
		marks.Bold = true
	case atom.I:
		if len(n.Attr) > 0 || marks.Italic {
			return marks, false
		}
		marks.Italic = true
	case atom.U:
		if len(n.Attr) > 0 || marks.Underline {
			return marks, false
		}
		marks.Underline = true
	case atom.Font:
		if len(n.Attr) != 1 || n.Attr[0].Key != "size" || marks.Size != 0 {
			return marks, false
		}
		size, err := strconv.Atoi(n.Attr[0].Val)
		if err != nil || size < 1 || size > 7 || strconv.Itoa(size) != n.Attr[0].Val {
			return marks, false
		}
		marks.Size = FontSize(size)
	default:
		return marks, false
	}
	return marks, true
}

func isInline(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return n.Type == html.TextNode || n.Type == html.CommentNode
	}
	return !blockElements[n.DataAtom]
}

func containsBlock(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (!isInline(c) || containsBlock(c)) {
			return true
		}
	}
	return false
}
