package repository

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/debemdeboas/archive-editor/internal/util"
)

const draftExt = ".html"

// FSDraftRepository keeps one file per draft: a %%% TOML header with the
// title and creation date, then the markup.
type FSDraftRepository struct { // implements DraftRepository
	dir string
}

type fsHeader struct {
	Title string    `toml:"title"`
	Date  time.Time `toml:"date"`
}

func NewFSDraftRepository(dir string) (*FSDraftRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating drafts directory: %w", err)
	}
	return &FSDraftRepository{dir: dir}, nil
}

func (r *FSDraftRepository) path(id model.DraftID) (string, error) {
	name := string(id)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrDraftNotFound, name)
	}
	return filepath.Join(r.dir, name+draftExt), nil
}

func (r *FSDraftRepository) NewDraft() *model.Draft {
	return newDraft()
}

func (r *FSDraftRepository) SaveDraft(d *model.Draft) error {
	path, err := r.path(d.ID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("%%%\n")
	if err := toml.NewEncoder(&buf).Encode(fsHeader{Title: d.Title, Date: d.CreatedDate.UTC()}); err != nil {
		return fmt.Errorf("error encoding draft header: %w", err)
	}
	buf.WriteString("%%%\n")
	buf.Write(d.Markup)

	// Write then rename so a reader never sees half a draft.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("error writing draft %s: %w", d.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error replacing draft %s: %w", d.ID, err)
	}
	if d.ContentHash == "" {
		d.ContentHash = util.ContentHash(d.Markup)
	}
	return nil
}

func (r *FSDraftRepository) ReadDraft(id model.DraftID) (*model.Draft, error) {
	path, err := r.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return r.decode(id, data, info.ModTime())
}

func (r *FSDraftRepository) decode(id model.DraftID, data []byte, modTime time.Time) (*model.Draft, error) {
	front, body, err := util.SplitFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("error reading draft %s header: %w", id, err)
	}

	d := &model.Draft{
		ID:           id,
		Markup:       body,
		ContentHash:  util.ContentHash(body),
		CreatedDate:  modTime.UTC(),
		ModifiedDate: modTime.UTC(),
	}
	if front != nil {
		d.Title = front.Title
		if !front.Date.IsZero() {
			d.CreatedDate = front.Date.UTC()
		}
	}
	return d, nil
}

func (r *FSDraftRepository) ListDrafts() ([]model.Summary, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}

	list := make([]model.Summary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), draftExt) {
			continue
		}
		id := model.DraftID(strings.TrimSuffix(entry.Name(), draftExt))

		d, err := r.ReadDraft(id)
		if err != nil {
			repoLogger.Warn().Err(err).Str("draft_id", string(id)).Msg("Skipping unreadable draft")
			continue
		}
		list = append(list, d.Summary())
	}

	sortSummaries(list)
	return list, nil
}

func (r *FSDraftRepository) DeleteDraft(id model.DraftID) error {
	path, err := r.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
		}
		return err
	}
	return nil
}
