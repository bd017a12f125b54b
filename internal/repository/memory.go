package repository

import (
	"fmt"

	"github.com/debemdeboas/archive-editor/internal/cache"
	"github.com/debemdeboas/archive-editor/internal/model"
)

type MemoryDraftRepository struct { // implements DraftRepository
	drafts *cache.Cache[model.DraftID, *model.Draft]
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{
		drafts: cache.NewCache[model.DraftID, *model.Draft](),
	}
}

func (r *MemoryDraftRepository) NewDraft() *model.Draft {
	return newDraft()
}

func (r *MemoryDraftRepository) SaveDraft(d *model.Draft) error {
	r.drafts.Set(d.ID, copyDraft(d))
	return nil
}

func (r *MemoryDraftRepository) ReadDraft(id model.DraftID) (*model.Draft, error) {
	if d, ok := r.drafts.Get(id); ok {
		return copyDraft(d), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
}

func (r *MemoryDraftRepository) ListDrafts() ([]model.Summary, error) {
	var list []model.Summary
	r.drafts.Range(func(_ model.DraftID, d *model.Draft) {
		list = append(list, d.Summary())
	})
	sortSummaries(list)
	return list, nil
}

func (r *MemoryDraftRepository) DeleteDraft(id model.DraftID) error {
	if !r.drafts.Delete(id) {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return nil
}
