// Command migrate imports a directory of markdown posts as editor drafts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/maruel/natural"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/logger"
	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/debemdeboas/archive-editor/internal/render"
	"github.com/debemdeboas/archive-editor/internal/repository"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	flavor := flag.String("renderer", "", "Markdown flavor, mmark or classic (defaults to the config)")
	flag.Parse()

	log := logger.New("info")
	if *path == "" {
		log.Fatal().Msg("The --path flag is required")
	}

	config.SetLogger(logger.Component(log, "config"))
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	cfg := config.AppConfig
	if *flavor == "" {
		*flavor = cfg.Import.Renderer
	}

	repo, closer, err := repository.Open(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening draft storage")
	}
	defer closer.Close()

	results, err := migrate(repo, *path, *flavor, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("Error reading directory")
	}
	fmt.Print(summary(results))
}

type result struct {
	File  string
	Draft *model.Draft
	Err   error
}

// migrate imports every .md file directly under dir. A file that fails is
// reported and skipped.
func migrate(repo repository.DraftRepository, dir, flavor string, log zerolog.Logger) ([]result, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	// post-2.md before post-10.md
	sort.Slice(files, func(i, j int) bool { return natural.Less(files[i].Name(), files[j].Name()) })

	var results []result
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		d, err := importFile(repo, dir, file, flavor)
		if err != nil {
			log.Error().Err(err).Str("file", file.Name()).Msg("Error importing file")
		} else {
			log.Debug().Str("file", file.Name()).Str("draft_id", string(d.ID)).Msg("Imported file")
		}
		results = append(results, result{File: file.Name(), Draft: d, Err: err})
	}
	return results, nil
}

func importFile(repo repository.DraftRepository, dir string, file os.DirEntry, flavor string) (*model.Draft, error) {
	content, err := os.ReadFile(filepath.Join(dir, file.Name()))
	if err != nil {
		return nil, err
	}
	info, err := file.Info()
	if err != nil {
		return nil, err
	}

	markup, front, err := render.MarkdownToMarkup(content, flavor)
	if err != nil {
		return nil, fmt.Errorf(config.ErrImportingPostFmt, file.Name(), err)
	}

	modTime := info.ModTime().UTC()
	d := repo.NewDraft()
	d.Title = strings.TrimSuffix(file.Name(), ".md")
	d.SetMarkup(markup, modTime)
	d.CreatedDate = modTime
	if front != nil {
		d.Info = front
		if front.Title != "" {
			d.Title = front.Title
		}
		if !front.Date.IsZero() {
			d.CreatedDate = front.Date.UTC()
		}
	}

	if err := repo.SaveDraft(d); err != nil {
		return nil, fmt.Errorf("saving %s: %w", file.Name(), err)
	}
	return d, nil
}

func summary(results []result) string {
	var b strings.Builder
	imported := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(&b, "%s %s %s\n", errStyle.Render("✗"), r.File, dimStyle.Render(r.Err.Error()))
			continue
		}
		imported++
		fmt.Fprintf(&b, "%s %s %s\n", okStyle.Render("✓"), r.File, dimStyle.Render(string(r.Draft.ID)+" "+r.Draft.Title))
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Imported %d of %d files", imported, len(results))))
	b.WriteString("\n")
	return b.String()
}
