package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/debemdeboas/archive-editor/internal/model"
)

// ChangeWatcher is implemented by backends that can push change
// notifications instead of being polled.
type ChangeWatcher interface {
	WatchChanges(ctx context.Context, notify func(model.DraftID)) error
}

// WatchChanges notifies about drafts changed in storage until ctx is done,
// using the backend's own notifications when it has them and polling every
// interval otherwise.
func WatchChanges(ctx context.Context, repo DraftRepository, interval time.Duration, notify func(model.DraftID)) {
	if w, ok := repo.(ChangeWatcher); ok {
		err := w.WatchChanges(ctx, notify)
		if err == nil {
			return
		}
		repoLogger.Warn().Err(err).Msg("Change notifications unavailable, polling instead")
	}
	Watch(ctx, repo, interval, notify)
}

// WatchChanges reports every draft file written, renamed into place or
// removed in the drafts directory. Temporary files are ignored.
func (r *FSDraftRepository) WatchChanges(ctx context.Context, notify func(model.DraftID)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	repoLogger.Debug().Str("dir", r.dir).Msg("Watching drafts directory")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, draftExt) {
				continue
			}
			id := model.DraftID(strings.TrimSuffix(name, draftExt))
			repoLogger.Debug().Str("draft_id", string(id)).Str("op", event.Op.String()).Msg("Draft file changed")
			notify(id)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			repoLogger.Error().Err(err).Msg("Drafts watcher error")
		}
	}
}
