// Package theme resolves the page and syntax themes of a request and builds
// the CSS for the highlighted markup view.
package theme

import (
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/archive-editor/internal/cache"
	"github.com/debemdeboas/archive-editor/internal/config"
)

func themeConfig() config.ThemeConfig {
	if config.AppConfig != nil {
		return config.AppConfig.Theme
	}
	return config.ThemeConfig{
		Default: config.DefaultTheme,
		SyntaxHighlighting: config.SyntaxConfig{
			DefaultDark:  config.DefaultDarkSyntaxTheme,
			DefaultLight: config.DefaultLightSyntaxTheme,
		},
	}
}

func GetThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieTheme); err == nil {
		return cookie.Value
	}
	return themeConfig().Default
}

func GetDefaultSyntaxTheme(theme string) string {
	cfg := themeConfig().SyntaxHighlighting
	if theme == config.LightTheme {
		return cfg.DefaultLight
	}
	return cfg.DefaultDark
}

func GetSyntaxThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return GetDefaultSyntaxTheme(GetThemeFromRequest(r))
}

func GetSyntaxThemes() []string {
	styleNames := styles.Names()
	slices.Sort(styleNames)
	return styleNames
}

// GetFormatter is the class-based formatter shared by the markup source view
// and its stylesheet, so class names always line up.
func GetFormatter() *html.Formatter {
	return html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)
}

func GenerateSyntaxCSS(theme string) template.CSS {
	if css, ok := cache.GetSyntaxCSS(theme); ok {
		return css
	}

	var buf strings.Builder
	style := styles.Get(theme)

	bg := style.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Pick a readable text colour when the theme has none
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	if err := GetFormatter().WriteCSS(&buf, style); err != nil {
		return ""
	}
	css := template.CSS(buf.String())
	cache.SetSyntaxCSS(theme, css)
	return css
}
