package config

// Markdown flavours accepted by the post importer.
const (
	MarkdownMmark   = "mmark"
	MarkdownClassic = "classic"
)
