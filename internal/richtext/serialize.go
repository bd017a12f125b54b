package richtext

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Serialize renders the surface as portable markup. Resize decorations are
// never part of it.
func Serialize(s *Surface) string {
	return renderNodes(s.nodes(renderOptions{}))
}

type renderOptions struct {
	editable bool
	handles  *handleManager
}

func renderNodes(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		// Rendering into a strings.Builder cannot fail.
		_ = html.Render(&b, n)
	}
	return b.String()
}

func (s *Surface) nodes(opts renderOptions) []*html.Node {
	var out []*html.Node
	var list *html.Node
	var listKind BlockKind

	for _, b := range s.Blocks {
		if !b.Kind.isListItem() {
			list = nil
		}

		switch b.Kind {
		case BlockLoose:
			out = append(out, renderInlines(b.Inlines, 0, opts)...)
		case BlockParagraph:
			p := element(atom.P, b.attrs.render())
			appendChildren(p, renderInlines(b.Inlines, 0, opts))
			out = append(out, p)
		case BlockBulletItem, BlockNumberedItem:
			if list == nil || listKind != b.Kind {
				tag := atom.Ul
				if b.Kind == BlockNumberedItem {
					tag = atom.Ol
				}
				list = element(tag, nil)
				listKind = b.Kind
				out = append(out, list)
			}
			li := element(atom.Li, b.attrs.render())
			appendChildren(li, renderInlines(b.Inlines, 0, opts))
			list.AppendChild(li)
		case BlockRaw:
			out = append(out, cloneNode(b.raw))
		}
	}
	return out
}

// markLevels is the fixed nesting order of formatting elements: bold
// outermost, font size innermost.
const markLevels = 4

func markKey(m Marks, level int) string {
	switch level {
	case 0:
		if m.Bold {
			return "b"
		}
	case 1:
		if m.Italic {
			return "i"
		}
	case 2:
		if m.Underline {
			return "u"
		}
	case 3:
		if m.Size != 0 {
			return strconv.Itoa(int(m.Size))
		}
	}
	return ""
}

func markElement(level int, key string) *html.Node {
	switch level {
	case 0:
		return element(atom.B, nil)
	case 1:
		return element(atom.I, nil)
	case 2:
		return element(atom.U, nil)
	default:
		return element(atom.Font, []html.Attribute{{Key: "size", Val: key}})
	}
}

// renderInlines groups consecutive inlines sharing a mark under a single
// element, level by level.
func renderInlines(items []Inline, level int, opts renderOptions) []*html.Node {
	if level == markLevels {
		out := make([]*html.Node, 0, len(items))
		for _, in := range items {
			if n := renderLeaf(in, opts); n != nil {
				out = append(out, n)
			}
		}
		return out
	}

	var out []*html.Node
	for i := 0; i < len(items); {
		key := markKey(items[i].Marks, level)
		j := i + 1
		for j < len(items) && markKey(items[j].Marks, level) == key {
			j++
		}

		kids := renderInlines(items[i:j], level+1, opts)
		if key == "" {
			out = append(out, kids...)
		} else if len(kids) > 0 {
			el := markElement(level, key)
			appendChildren(el, kids)
			out = append(out, el)
		}
		i = j
	}
	return out
}

func renderLeaf(in Inline, opts renderOptions) *html.Node {
	switch in.Kind {
	case InlineText:
		if in.Text == "" {
			return nil
		}
		return &html.Node{Type: html.TextNode, Data: in.Text}
	case InlineBreak:
		return element(atom.Br, nil)
	case InlineRaw:
		return cloneNode(in.raw)
	case InlineMedia:
		img := element(atom.Img, in.Media.attrs.render())
		if !opts.editable {
			return img
		}
		img.Attr = append(img.Attr, html.Attribute{Key: mediaIDAttr, Val: in.Media.ID})
		if opts.handles != nil && opts.handles.isWrapped(in.Media.ID) {
			return opts.handles.decorate(img, in.Media)
		}
		return img
	}
	return nil
}

func element(a atom.Atom, attrs []html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func appendChildren(parent *html.Node, kids []*html.Node) {
	for _, k := range kids {
		parent.AppendChild(k)
	}
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      slices.Clone(n.Attr),
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c.AppendChild(cloneNode(k))
	}
	return c
}
