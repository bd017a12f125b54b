package repository

import (
	"context"
	"time"

	"github.com/debemdeboas/archive-editor/internal/model"
)

// Watch polls repo and calls notify for every draft that appeared, changed
// content or disappeared since the previous poll. The first poll only
// records the current state. It returns when ctx is done.
func Watch(ctx context.Context, repo DraftRepository, interval time.Duration, notify func(model.DraftID)) {
	seen, err := snapshot(repo)
	if err != nil {
		repoLogger.Error().Err(err).Msg("Error taking initial draft snapshot")
		seen = map[model.DraftID]string{}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		current, err := snapshot(repo)
		if err != nil {
			repoLogger.Error().Err(err).Msg("Error checking drafts for changes")
			continue
		}

		for id, hash := range current {
			if prev, ok := seen[id]; !ok || prev != hash {
				repoLogger.Debug().Str("draft_id", string(id)).Msg("Draft changed in storage")
				notify(id)
			}
		}
		for id := range seen {
			if _, ok := current[id]; !ok {
				repoLogger.Debug().Str("draft_id", string(id)).Msg("Draft removed from storage")
				notify(id)
			}
		}
		seen = current
	}
}

func snapshot(repo DraftRepository) (map[model.DraftID]string, error) {
	list, err := repo.ListDrafts()
	if err != nil {
		return nil, err
	}
	out := make(map[model.DraftID]string, len(list))
	for _, s := range list {
		out[s.ID] = s.ContentHash
	}
	return out, nil
}
