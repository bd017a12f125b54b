// Package model defines the persisted draft and its identifiers.
package model

import (
	"strings"
	"time"

	"github.com/debemdeboas/archive-editor/internal/util"
)

type DraftID string

// Draft is a document being edited. Markup is the serialized editor
// surface; it never carries resize decorations.
type Draft struct {
	ID DraftID

	Title  string
	Markup []byte

	// ContentHash is the hash of Markup, used as the ETag and to skip
	// redundant saves.
	ContentHash string

	CreatedDate  time.Time
	ModifiedDate time.Time

	// Optional data from the front matter of an imported post.
	Info *util.ExtendedTitleData
}

func (d *Draft) GetTitle() string {
	if d.Info != nil && d.Info.Title != "" {
		var s strings.Builder

		if d.Info.SeriesInfo.Name != "" && d.Info.SeriesInfo.Value != "" {
			s.WriteString("[")
			s.WriteString(d.Info.SeriesInfo.Name)
			s.WriteString("-")
			s.WriteString(d.Info.SeriesInfo.Value)
			s.WriteString("] ")
		}

		s.WriteString(d.Info.Title)

		return s.String()
	}
	if d.Title != "" {
		return d.Title
	}
	return "Untitled - " + d.CreatedDate.Format("2006-01-02")
}

// SetMarkup replaces the content and refreshes the hash and modification
// time. It reports whether the content changed.
func (d *Draft) SetMarkup(markup []byte, now time.Time) bool {
	hash := util.ContentHash(markup)
	if hash == d.ContentHash && d.Markup != nil {
		return false
	}
	d.Markup = markup
	d.ContentHash = hash
	d.ModifiedDate = now
	return true
}

// Summary is the list view of a draft.
type Summary struct {
	ID           DraftID   `json:"id"`
	Title        string    `json:"title"`
	ContentHash  string    `json:"content_hash"`
	ModifiedDate time.Time `json:"modified_at"`
}

func (d *Draft) Summary() Summary {
	return Summary{ID: d.ID, Title: d.GetTitle(), ContentHash: d.ContentHash, ModifiedDate: d.ModifiedDate}
}
