// Package repository persists drafts. Every backend hands out copies, so a
// caller may mutate what it reads without affecting stored state.
package repository

import (
	"errors"
	"slices"
	"time"

	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrDraftNotFound = errors.New("draft not found")

var repoLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type DraftRepository interface {
	// NewDraft allocates an unsaved draft with a fresh id.
	NewDraft() *model.Draft
	SaveDraft(d *model.Draft) error
	ReadDraft(id model.DraftID) (*model.Draft, error)
	// ListDrafts returns summaries, most recently modified first.
	ListDrafts() ([]model.Summary, error)
	DeleteDraft(id model.DraftID) error
}

func newDraft() *model.Draft {
	now := time.Now().UTC()

	return &model.Draft{
		ID: model.DraftID(uuid.New().String()),

		CreatedDate:  now,
		ModifiedDate: now,
	}
}

func copyDraft(d *model.Draft) *model.Draft {
	c := *d
	c.Markup = append([]byte(nil), d.Markup...)
	return &c
}

func sortSummaries(list []model.Summary) {
	slices.SortStableFunc(list, func(a, b model.Summary) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})
}
