package richtext

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command is a toolbar command.
type Command string

const (
	CmdBold          Command = "bold"
	CmdItalic        Command = "italic"
	CmdUnderline     Command = "underline"
	CmdJustifyLeft   Command = "justify-left"
	CmdJustifyCenter Command = "justify-center"
	CmdJustifyRight  Command = "justify-right"
	CmdJustifyFull   Command = "justify-full"
	CmdBulletList    Command = "bullet-list"
	CmdNumberedList  Command = "numbered-list"
	CmdInsertImage   Command = "insert-image"
	CmdFontSize      Command = "font-size"
)

// Commands lists the toolbar in display order.
func Commands() []Command {
	return []Command{
		CmdBold, CmdItalic, CmdUnderline,
		CmdJustifyLeft, CmdJustifyCenter, CmdJustifyRight, CmdJustifyFull,
		CmdBulletList, CmdNumberedList,
		CmdInsertImage, CmdFontSize,
	}
}

func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Commands(), c) {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

const (
	FontSizeSmall      FontSize = 2
	FontSizeLarge      FontSize = 5
	FontSizeExtraLarge FontSize = 7
)

// ParseFontSize maps the toolbar size names to the font size scale. Normal
// is the absence of an explicit size.
func ParseFontSize(name string) (FontSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "small":
		return FontSizeSmall, nil
	case "normal":
		return 0, nil
	case "large":
		return FontSizeLarge, nil
	case "extra-large":
		return FontSizeExtraLarge, nil
	}
	return 0, fmt.Errorf("unknown font size %q", name)
}

var justifyValues = map[Command]string{
	CmdJustifyLeft:   "left",
	CmdJustifyCenter: "center",
	CmdJustifyRight:  "right",
	CmdJustifyFull:   "justify",
}

// toggleMark adds a mark over the selection, or removes it when every inline
// in the selection already carries it.
func (s *Surface) toggleMark(sel Selection, has func(Marks) bool, set func(*Marks, bool)) bool {
	if sel.Collapsed() {
		return false
	}

	spans := s.spans(sel)
	all, covered := true, false
	for _, sp := range spans {
		for i := sp.from; i < sp.to; i++ {
			covered = true
			if !has(sp.block.Inlines[i].Marks) {
				all = false
			}
		}
	}
	if !covered {
		return false
	}

	for _, sp := range spans {
		for i := sp.from; i < sp.to; i++ {
			set(&sp.block.Inlines[i].Marks, !all)
		}
		sp.block.normalize()
	}
	return true
}

func markAccessors(cmd Command) (func(Marks) bool, func(*Marks, bool)) {
	switch cmd {
	case CmdItalic:
		return func(m Marks) bool { return m.Italic }, func(m *Marks, v bool) { m.Italic = v }
	case CmdUnderline:
		return func(m Marks) bool { return m.Underline }, func(m *Marks, v bool) { m.Underline = v }
	default:
		return func(m Marks) bool { return m.Bold }, func(m *Marks, v bool) { m.Bold = v }
	}
}

func (s *Surface) setFontSize(sel Selection, size FontSize) bool {
	if sel.Collapsed() {
		return false
	}

	changed := false
	for _, sp := range s.spans(sel) {
		for i := sp.from; i < sp.to; i++ {
			if sp.block.Inlines[i].Marks.Size != size {
				sp.block.Inlines[i].Marks.Size = size
				changed = true
			}
		}
		sp.block.normalize()
	}
	return changed
}

// justify aligns the text of every touched block. Loose content becomes a
// paragraph, since alignment needs an element to live on.
func (s *Surface) justify(sel Selection, value string) bool {
	changed := false
	for _, b := range s.touchedBlocks(sel) {
		if b.Kind == BlockLoose {
			b.Kind = BlockParagraph
			changed = true
		}
		if b.TextAlign() != value {
			b.setTextAlign(value)
			changed = true
		}
	}
	return changed
}

// toggleList turns the touched blocks into items of kind, or back into
// paragraphs when they all already are. Whitespace between the new items is
// dropped so they end up in one list, and sel is moved to match.
func (s *Surface) toggleList(sel *Selection, kind BlockKind) bool {
	blocks := s.touchedBlocks(*sel)
	if len(blocks) == 0 {
		return false
	}

	all := true
	for _, b := range blocks {
		if b.Kind != kind {
			all = false
			break
		}
	}
	for _, b := range blocks {
		if all {
			b.Kind = BlockParagraph
		} else {
			b.Kind = kind
		}
	}
	if !all {
		s.dropBlankBetween(sel)
	}
	return true
}

func (s *Surface) dropBlankBetween(sel *Selection) {
	start, end := sel.Ordered()
	start, end = s.clamp(start), s.clamp(end)

	removed := 0
	for bi := end.Block - 1; bi > start.Block; bi-- {
		if s.Blocks[bi].blank() {
			s.Blocks = slices.Delete(s.Blocks, bi, bi+1)
			removed++
		}
	}
	if removed == 0 {
		return
	}
	end.Block -= removed
	if sel.Focus.before(sel.Anchor) {
		*sel = Selection{Anchor: end, Focus: start}
	} else {
		*sel = Selection{Anchor: start, Focus: end}
	}
}

// insertMedia puts m at the caret and returns the caret after it. Without a
// caret the media is appended at the end of the surface.
func (s *Surface) insertMedia(m *Media, caret *Position) (Position, bool) {
	in := Inline{Kind: InlineMedia, Media: m}

	if caret == nil || len(s.Blocks) == 0 {
		last := len(s.Blocks) - 1
		if last < 0 || s.Blocks[last].Kind != BlockLoose {
			s.Blocks = append(s.Blocks, &Block{Kind: BlockLoose})
			last++
		}
		b := s.Blocks[last]
		b.Inlines = append(b.Inlines, in)
		return Position{Block: last, Offset: b.Len()}, caret != nil
	}

	p := s.clamp(*caret)
	b := s.Blocks[p.Block]
	if b.Kind == BlockRaw {
		s.Blocks = slices.Insert(s.Blocks, p.Block+1, &Block{Kind: BlockLoose, Inlines: []Inline{in}})
		return Position{Block: p.Block + 1, Offset: 1}, true
	}

	i := b.split(p.Offset)
	b.Inlines = slices.Insert(b.Inlines, i, in)
	b.normalize()
	return Position{Block: p.Block, Offset: p.Offset + 1}, true
}
