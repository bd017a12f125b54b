// Package render produces the highlighted source view of draft markup and
// converts markdown posts into editor markup.
package render

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/archive-editor/internal/cache"
	"github.com/debemdeboas/archive-editor/internal/theme"
	"github.com/rs/zerolog"
)

var renderLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

// HighlightMarkup renders markup as highlighted HTML source, wrapped for the
// source panel. On failure the escaped markup is returned with the error.
func HighlightMarkup(markup, highlightTheme string) (string, error) {
	lexer := lexers.Get("html")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, markup)
	if err != nil {
		return wrapSource(escape(markup)), err
	}

	var buf strings.Builder
	if err := theme.GetFormatter().Format(&buf, styles.Get(highlightTheme), iterator); err != nil {
		return wrapSource(escape(markup)), err
	}
	return wrapSource(buf.String()), nil
}

func wrapSource(s string) string {
	return `<div class="markup-source">` + s + `</div>`
}

var escape = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;").Replace

// Protects the check-render-set sequence of HighlightMarkupCached.
var highlightMutex sync.Mutex

// HighlightMarkupCached memoizes HighlightMarkup per content hash and theme.
func HighlightMarkupCached(markup, contentHash, highlightTheme string) string {
	if contentHash == "" {
		renderLogger.Warn().Msg("Content hash is empty, skipping cache check")
		out, _ := HighlightMarkup(markup, highlightTheme)
		return out
	}

	if cached, found := cache.GetHighlightedSource(contentHash, highlightTheme); found {
		renderLogger.Debug().Str("content_hash", contentHash).Str("syntax_theme", highlightTheme).Msg("Cache hit for highlighted markup")
		return cached
	}

	highlightMutex.Lock()
	defer highlightMutex.Unlock()
	if cached, found := cache.GetHighlightedSource(contentHash, highlightTheme); found {
		return cached
	}

	out, err := HighlightMarkup(markup, highlightTheme)
	if err != nil {
		renderLogger.Error().Err(err).Str("content_hash", contentHash).Msg("Error highlighting markup")
		return out
	}
	cache.SetHighlightedSource(contentHash, highlightTheme, out)
	return out
}
