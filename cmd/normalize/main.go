// Command normalize rewrites stored drafts into their canonical form: markup
// is re-serialized by the editor and, for SQLite storage, timestamps written
// by older versions are rewritten in one format.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/db"
	"github.com/debemdeboas/archive-editor/internal/logger"
	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/debemdeboas/archive-editor/internal/repository"
	"github.com/debemdeboas/archive-editor/internal/richtext"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	timestamps := flag.Bool("timestamps", false, "Also rewrite SQLite timestamps")
	dryRun := flag.Bool("dry-run", false, "Report changes without saving them")
	flag.Parse()

	log := logger.New("info")
	config.SetLogger(logger.Component(log, "config"))
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	cfg := config.AppConfig

	repo, closer, err := repository.Open(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening draft storage")
	}
	defer closer.Close()

	changed, err := normalizeMarkup(repo, *dryRun, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Error normalizing drafts")
	}
	log.Info().Int("changed", changed).Bool("dry_run", *dryRun).Msg("Markup normalization complete")

	if !*timestamps {
		return
	}
	if cfg.Storage.Backend != "sqlite" {
		log.Fatal().Str("backend", cfg.Storage.Backend).Msg("Timestamps can only be rewritten in SQLite storage")
	}

	database := db.NewSQLite(cfg.Storage.SQLite.Path)
	if err := database.InitDB(); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}
	defer database.Close()

	if err := fixTimestamps(database, *dryRun, log); err != nil {
		log.Fatal().Err(err).Msg("Error rewriting timestamps")
	}
}

// normalizeMarkup re-serializes every draft and saves those whose markup
// changed. It returns how many changed.
func normalizeMarkup(repo repository.DraftRepository, dryRun bool, log zerolog.Logger) (int, error) {
	list, err := repo.ListDrafts()
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, s := range list {
		d, err := repo.ReadDraft(s.ID)
		if err != nil {
			log.Error().Err(err).Str("draft_id", string(s.ID)).Msg("Error reading draft")
			continue
		}

		canonical, err := canonicalMarkup(d)
		if err != nil {
			log.Error().Err(err).Str("draft_id", string(s.ID)).Msg("Error parsing draft")
			continue
		}
		if string(canonical) == string(d.Markup) {
			continue
		}

		changed++
		log.Info().Str("draft_id", string(d.ID)).Int("before", len(d.Markup)).Int("after", len(canonical)).Msg("Draft markup normalized")
		if dryRun {
			continue
		}
		// The modification time is kept: nobody edited the draft.
		modified := d.ModifiedDate
		d.SetMarkup(canonical, modified)
		if err := repo.SaveDraft(d); err != nil {
			log.Error().Err(err).Str("draft_id", string(d.ID)).Msg("Error saving draft")
		}
	}
	return changed, nil
}

func canonicalMarkup(d *model.Draft) ([]byte, error) {
	surface, err := richtext.Parse(string(d.Markup))
	if err != nil {
		return nil, err
	}
	return []byte(richtext.Serialize(surface)), nil
}

// parseFuzzyTime attempts to parse a timestamp string using multiple formats.
func parseFuzzyTime(timeStr string) (time.Time, error) {
	timeFormats := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		time.RFC3339,
		"2006-01-02 15:04:05", // CURRENT_TIMESTAMP defaults carry no zone
	}

	for _, format := range timeFormats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse time '%s' with any known format", timeStr)
}

type draftTimes struct {
	ID         string
	CreatedAt  string
	ModifiedAt *string
}

// fixTimestamps rewrites created_at and modified_at of every draft as UTC
// times. Values that cannot be parsed are left alone.
func fixTimestamps(database db.DB, dryRun bool, log zerolog.Logger) error {
	rows, err := database.Query("SELECT id, CAST(created_at AS TEXT), CAST(modified_at AS TEXT) FROM drafts")
	if err != nil {
		return fmt.Errorf("failed to query drafts: %w", err)
	}

	var drafts []draftTimes
	for rows.Next() {
		var d draftTimes
		if err := rows.Scan(&d.ID, &d.CreatedAt, &d.ModifiedAt); err != nil {
			log.Error().Err(err).Msg("Failed to scan row")
			continue
		}
		drafts = append(drafts, d)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("error during row iteration: %w", err)
	}

	log.Info().Int("drafts", len(drafts)).Msg("Rewriting timestamps")
	for _, d := range drafts {
		columns := map[string]string{"created_at": d.CreatedAt}
		if d.ModifiedAt != nil {
			columns["modified_at"] = *d.ModifiedAt
		}

		for column, value := range columns {
			t, err := parseFuzzyTime(value)
			if err != nil {
				log.Warn().Err(err).Str("draft_id", d.ID).Str("column", column).Msg("Could not parse timestamp")
				continue
			}
			if dryRun {
				continue
			}
			// column is one of the two names above.
			if _, err := database.Exec(fmt.Sprintf("UPDATE drafts SET %s = ? WHERE id = ?", column), t, d.ID); err != nil {
				log.Error().Err(err).Str("draft_id", d.ID).Str("column", column).Msg("Failed to update timestamp")
			}
		}
	}
	return nil
}
