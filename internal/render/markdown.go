package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/richtext"
	"github.com/debemdeboas/archive-editor/internal/util"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkdownToMarkup converts a markdown post into editor markup. Emphasis
// becomes the editor's own marks; constructs the editor has no model for
// are kept as is. The front matter, when present, is returned separately.
func MarkdownToMarkup(md []byte, flavor string) ([]byte, *util.ExtendedTitleData, error) {
	info, body, err := util.SplitFrontMatter(md)
	if err != nil {
		return nil, nil, err
	}

	var rendered []byte
	switch flavor {
	case config.MarkdownMmark, "":
		language := "en"
		if info != nil && info.Language != "" {
			language = info.Language
		}
		rendered = renderMmark(body, language)
	case config.MarkdownClassic:
		rendered = renderClassic(body)
	default:
		return nil, nil, fmt.Errorf("unknown markdown flavor %q", flavor)
	}

	surface, err := richtext.Parse(compact(rendered))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing rendered markdown: %w", err)
	}
	return []byte(richtext.Serialize(surface)), info, nil
}

// markHook writes emphasis with the elements the editor toggles.
func markHook(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	var tag string
	switch node.(type) {
	case *ast.Strong:
		tag = "b"
	case *ast.Emph:
		tag = "i"
	default:
		return ast.GoToNext, false
	}

	if entering {
		fmt.Fprintf(w, "<%s>", tag)
	} else {
		fmt.Fprintf(w, "</%s>", tag)
	}
	return ast.GoToNext, true
}

func renderClassic(md []byte) []byte {
	opts := md_html.RendererOptions{
		Flags:          md_html.CommonFlags | md_html.HrefTargetBlank,
		RenderNodeHook: markHook,
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists |
			parser.OrderedListStart | parser.NoIntraEmphasis,
	).Parse(markdown.NormalizeNewlines(md))
	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func renderMmark(md []byte, language string) []byte {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions | parser.NoIntraEmphasis)
	init := mparser.NewInitial("")
	p.Opts = parser.Options{
		ParserHook:    mparser.Hook,
		ReadIncludeFn: init.ReadInclude,
		Flags:         parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New(language),
	}
	opts := md_html.RendererOptions{
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, ok := markHook(w, node, entering); ok {
				return status, ok
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// compact drops the whitespace the renderers put between block elements so
// that lists and paragraphs come out as editable blocks. Preformatted content
// is left alone.
func compact(rendered []byte) string {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(bytes.NewReader(rendered), context)
	if err != nil {
		return string(rendered)
	}

	var buf strings.Builder
	for _, n := range nodes {
		if isLayoutSpace(n) {
			continue
		}
		compactChildren(n)
		if err := html.Render(&buf, n); err != nil {
			return string(rendered)
		}
	}
	return buf.String()
}

func compactChildren(n *html.Node) {
	if n.Type != html.ElementNode || n.DataAtom == atom.Pre {
		return
	}
	list := n.DataAtom == atom.Ul || n.DataAtom == atom.Ol
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case list && c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			n.RemoveChild(c)
		case list && c.DataAtom == atom.Li:
			trimEdges(c)
			compactChildren(c)
		default:
			compactChildren(c)
		}
		c = next
	}
}

// trimEdges removes trailing newlines a loose list item leaves behind.
func trimEdges(li *html.Node) {
	if c := li.LastChild; c != nil && c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
		li.RemoveChild(c)
	}
}

func isLayoutSpace(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" && strings.Contains(n.Data, "\n")
}
