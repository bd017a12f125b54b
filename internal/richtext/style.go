package richtext

import (
	"math"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declaration is a single property: value pair of an inline style.
type Declaration struct {
	Property string
	Value    string
}

// Style is an ordered list of inline style declarations. Order is kept so an
// untouched style serializes the way it was written.
type Style struct {
	decls []Declaration
}

// ParseStyle parses the contents of a style attribute. Malformed input is
// skipped declaration by declaration, never rejected as a whole.
func ParseStyle(raw string) *Style {
	s := &Style{}
	if strings.TrimSpace(raw) == "" {
		return s
	}

	p := css.NewParser(parse.NewInputString(raw), true)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return s
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			prop := string(data)
			if gt == css.DeclarationGrammar {
				prop = strings.ToLower(prop)
			}
			if value := tokensValue(p.Values()); value != "" {
				s.Set(prop, value)
			}
		}
	}
}

func tokensValue(tokens []css.Token) string {
	var b strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.Write(t.Data)
	}
	return strings.TrimSpace(b.String())
}

func (s *Style) Get(prop string) (string, bool) {
	for _, d := range s.decls {
		if d.Property == prop {
			return d.Value, true
		}
	}
	return "", false
}

// Set replaces the value of prop in place, or appends it when missing.
func (s *Style) Set(prop, value string) {
	for i := range s.decls {
		if s.decls[i].Property == prop {
			s.decls[i].Value = value
			return
		}
	}
	s.decls = append(s.decls, Declaration{Property: prop, Value: value})
}

func (s *Style) Del(props ...string) {
	kept := s.decls[:0]
	for _, d := range s.decls {
		drop := false
		for _, p := range props {
			if d.Property == p {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, d)
		}
	}
	s.decls = kept
}

func (s *Style) Len() int {
	return len(s.decls)
}

func (s *Style) Declarations() []Declaration {
	return append([]Declaration(nil), s.decls...)
}

func (s *Style) Clone() *Style {
	return &Style{decls: s.Declarations()}
}

func (s *Style) String() string {
	parts := make([]string, 0, len(s.decls))
	for _, d := range s.decls {
		parts = append(parts, d.Property+": "+d.Value+";")
	}
	return strings.Join(parts, " ")
}

// parsePx reads a pixel length. Unitless numbers are accepted as pixels.
func parsePx(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func formatPx(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
