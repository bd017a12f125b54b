package richtext

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownAlignment = errors.New("unknown alignment")

// Alignment is the layout mode of a media within the text flow.
type Alignment string

const (
	AlignNone       Alignment = ""
	AlignLeft       Alignment = "left"
	AlignCenter     Alignment = "center"
	AlignRight      Alignment = "right"
	AlignFloatLeft  Alignment = "float-left"
	AlignFloatRight Alignment = "float-right"
)

func ParseAlignment(s string) (Alignment, error) {
	switch a := Alignment(strings.ToLower(strings.TrimSpace(s))); a {
	case AlignLeft, AlignCenter, AlignRight, AlignFloatLeft, AlignFloatRight:
		return a, nil
	}
	return AlignNone, fmt.Errorf("%w: %q", ErrUnknownAlignment, s)
}

// layoutProperties are reset before any alignment is applied, so nothing
// from a previous mode survives the switch.
var layoutProperties = []string{
	"display",
	"float",
	"margin",
	"margin-left",
	"margin-right",
	"margin-top",
	"margin-bottom",
}

const DefaultFloatMargin = "16px"

type alignConfig struct {
	floatMargin string
}

func applyAlignment(st *Style, a Alignment, cfg alignConfig) {
	margin := cfg.floatMargin
	if margin == "" {
		margin = DefaultFloatMargin
	}

	st.Del(layoutProperties...)
	switch a {
	case AlignLeft:
		st.Set("display", "block")
		st.Set("margin-left", "0")
		st.Set("margin-right", "auto")
	case AlignCenter:
		st.Set("display", "block")
		st.Set("margin-left", "auto")
		st.Set("margin-right", "auto")
	case AlignRight:
		st.Set("display", "block")
		st.Set("margin-left", "auto")
		st.Set("margin-right", "0")
	case AlignFloatLeft:
		st.Set("display", "block")
		st.Set("float", "left")
		st.Set("margin-right", margin)
	case AlignFloatRight:
		st.Set("display", "block")
		st.Set("float", "right")
		st.Set("margin-left", margin)
	}
}

// alignmentOf reads the alignment back from a style. Layouts that were not
// produced by applyAlignment report AlignNone.
func alignmentOf(st *Style) Alignment {
	switch v, _ := st.Get("float"); v {
	case "left":
		return AlignFloatLeft
	case "right":
		return AlignFloatRight
	}

	if d, _ := st.Get("display"); d != "block" {
		return AlignNone
	}
	left, _ := st.Get("margin-left")
	right, _ := st.Get("margin-right")
	switch {
	case left == "auto" && right == "auto":
		return AlignCenter
	case left == "auto" && isZero(right):
		return AlignRight
	case isZero(left) && right == "auto":
		return AlignLeft
	}
	return AlignNone
}

func isZero(v string) bool {
	f, ok := parsePx(v)
	return ok && f == 0
}
