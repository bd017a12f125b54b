package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"
	HIfNoneMatch  = "If-None-Match"

	CTypeCSS   = "text/css"
	CTypeHTML  = "text/html; charset=utf-8"
	CTypeJSON  = "application/json"
	CTypeEvent = "text/event-stream"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	CookieTheme       = "theme"
	CookieSyntaxTheme = "syntax-theme"
	CookieDraftID     = "draft-id"
)

// Values of CookieTheme, and the chroma styles the source view falls back to
// when CookieSyntaxTheme is unset. Overridable under theme: in the config.
const (
	LightTheme = "light-theme"
	DarkTheme  = "dark-theme"

	DefaultTheme            = DarkTheme
	DefaultDarkSyntaxTheme  = "gruvbox"
	DefaultLightSyntaxTheme = "catppuccin-latte"
)
