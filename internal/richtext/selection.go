package richtext

// Position is a caret position: a block index and an offset in caret units
// within that block. Text counts one unit per rune; media, breaks and kept
// elements count one unit each.
type Position struct {
	Block  int `json:"block"`
	Offset int `json:"offset"`
}

func (p Position) before(o Position) bool {
	if p.Block != o.Block {
		return p.Block < o.Block
	}
	return p.Offset < o.Offset
}

// Selection is the text range toolbar commands apply to.
type Selection struct {
	Anchor Position `json:"anchor"`
	Focus  Position `json:"focus"`
}

func Caret(p Position) Selection {
	return Selection{Anchor: p, Focus: p}
}

func (s Selection) Collapsed() bool {
	return s.Anchor == s.Focus
}

// Ordered returns the selection bounds in document order.
func (s Selection) Ordered() (start, end Position) {
	if s.Focus.before(s.Anchor) {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}

func (s *Surface) clamp(p Position) Position {
	if len(s.Blocks) == 0 {
		return Position{}
	}
	p.Block = min(max(p.Block, 0), len(s.Blocks)-1)
	p.Offset = min(max(p.Offset, 0), s.Blocks[p.Block].Len())
	return p
}

// span is a run of inlines [from, to) inside one block.
type span struct {
	block    *Block
	from, to int
}

// spans splits text runs at the selection bounds and returns the inline
// ranges the selection covers, block by block. Kept block elements are
// skipped.
func (s *Surface) spans(sel Selection) []span {
	if len(s.Blocks) == 0 {
		return nil
	}
	start, end := sel.Ordered()
	start, end = s.clamp(start), s.clamp(end)

	var out []span
	for bi := start.Block; bi <= end.Block; bi++ {
		b := s.Blocks[bi]
		if b.Kind == BlockRaw {
			continue
		}
		lo, hi := 0, b.Len()
		if bi == start.Block {
			lo = start.Offset
		}
		if bi == end.Block {
			hi = end.Offset
		}
		from := b.split(lo)
		to := b.split(hi)
		out = append(out, span{block: b, from: from, to: to})
	}
	return out
}

// touchedBlocks returns the text blocks a selection starts, ends or passes in.
// Layout whitespace between blocks only counts when it is all the selection
// covers.
func (s *Surface) touchedBlocks(sel Selection) []*Block {
	if len(s.Blocks) == 0 {
		return nil
	}
	start, end := sel.Ordered()
	start, end = s.clamp(start), s.clamp(end)

	var out []*Block
	for bi := start.Block; bi <= end.Block; bi++ {
		b := s.Blocks[bi]
		if b.Kind == BlockRaw || start.Block != end.Block && b.blank() {
			continue
		}
		out = append(out, b)
	}
	return out
}
