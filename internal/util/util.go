// Package util provides content hashing and front matter parsing for drafts
// and imported posts.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"

	"github.com/mmarkdown/mmark/v2/mast"
)

var ErrNoFrontMatter = errors.New("invalid front matter format")

var frontMatterDelimiter = []byte("%%%")

type ExtendedTitleData struct {
	*mast.TitleData
	Consumed     int
	ToolbarTitle string
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// ETag quotes a content hash for use as an HTTP entity tag.
func ETag(hash string) string {
	return `"` + hash + `"`
}

func normalizeMarkdown(md []byte) []byte {
	md = markdown.NormalizeNewlines(md)
	return bytes.TrimLeft(md, "\n \t\r")
}

// GetFrontMatter decodes the %%% delimited TOML block at the top of md.
// Consumed is measured on the normalized input.
func GetFrontMatter(md []byte) (*ExtendedTitleData, error) {
	md = normalizeMarkdown(md)
	delimiter := frontMatterDelimiter

	if len(md) < 2*len(delimiter) {
		return nil, ErrNoFrontMatter
	}

	first := bytes.Index(md[:len(delimiter)+1], delimiter)
	if first == -1 {
		return nil, ErrNoFrontMatter
	}

	second := bytes.Index(md[first+len(delimiter):], delimiter)
	if second == -1 {
		return nil, ErrNoFrontMatter
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		return nil, ErrNoFrontMatter
	}

	frontMatter := md[len(delimiter) : end-len(delimiter)-1]
	info := &ExtendedTitleData{
		TitleData: &mast.TitleData{},
	}

	if _, err := toml.Decode(string(frontMatter), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = end

	return info, nil
}

// SplitFrontMatter separates the front matter from the body. Without front
// matter the whole input is the body and info is nil.
func SplitFrontMatter(md []byte) (*ExtendedTitleData, []byte, error) {
	info, err := GetFrontMatter(md)
	if errors.Is(err, ErrNoFrontMatter) {
		return nil, md, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return info, normalizeMarkdown(md)[info.Consumed:], nil
}
