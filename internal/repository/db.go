package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/debemdeboas/archive-editor/internal/db"
	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/debemdeboas/archive-editor/internal/util"
	"github.com/debemdeboas/archive-editor/internal/util/compression"
)

type DBDraftRepository struct { // implements DraftRepository
	db         db.DB
	compressor compression.Compressor
}

func NewDBDraftRepository(db db.DB, compressor compression.Compressor) *DBDraftRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &DBDraftRepository{
		db:         db,
		compressor: compressor,
	}
}

func (r *DBDraftRepository) NewDraft() *model.Draft {
	return newDraft()
}

func (r *DBDraftRepository) SaveDraft(d *model.Draft) error {
	compressed, err := r.compressor.Compress(d.Markup)
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}
	if d.ContentHash == "" {
		d.ContentHash = util.ContentHash(d.Markup)
	}

	res, err := r.db.Exec(
		`INSERT INTO drafts (id, title, content, content_hash, created_at, modified_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			modified_at = excluded.modified_at`,
		d.ID, d.Title, compressed, d.ContentHash, d.CreatedDate, d.ModifiedDate,
	)
	if err != nil {
		return fmt.Errorf("error saving draft %s: %w", d.ID, err)
	}

	repoLogger.Debug().Interface("result", res).Str("draft_id", string(d.ID)).Msg("Draft saved")
	return nil
}

func (r *DBDraftRepository) ReadDraft(id model.DraftID) (*model.Draft, error) {
	var d model.Draft
	var compressed []byte
	var modified sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, title, content, content_hash, created_at, modified_at FROM drafts WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &compressed, &d.ContentHash, &d.CreatedDate, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading draft %s: %w", id, err)
	}

	d.ModifiedDate = d.CreatedDate
	if modified.Valid {
		d.ModifiedDate = modified.Time
	}

	if len(compressed) > 0 {
		if d.Markup, err = r.compressor.Decompress(compressed); err != nil {
			return nil, fmt.Errorf("error decompressing draft %s: %w", id, err)
		}
	}
	return &d, nil
}

func (r *DBDraftRepository) ListDrafts() ([]model.Summary, error) {
	rows, err := r.db.Query(`SELECT id, title, content_hash, created_at, modified_at FROM drafts`)
	if err != nil {
		return nil, fmt.Errorf("error querying drafts: %w", err)
	}
	defer rows.Close()

	list := make([]model.Summary, 0)
	for rows.Next() {
		var d model.Draft
		var modified sql.NullTime
		if err := rows.Scan(&d.ID, &d.Title, &d.ContentHash, &d.CreatedDate, &modified); err != nil {
			return nil, fmt.Errorf("error scanning draft: %w", err)
		}
		d.ModifiedDate = d.CreatedDate
		if modified.Valid {
			d.ModifiedDate = modified.Time
		}
		list = append(list, d.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drafts: %w", err)
	}

	sortSummaries(list)
	return list, nil
}

func (r *DBDraftRepository) DeleteDraft(id model.DraftID) error {
	res, err := r.db.Exec(`DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting draft %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return nil
}
