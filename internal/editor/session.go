// Package editor hosts one rich-text editor per draft for the admin
// interface and persists every change the editors report.
package editor

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-editor/internal/cache"
	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/events"
	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/debemdeboas/archive-editor/internal/repository"
	"github.com/debemdeboas/archive-editor/internal/richtext"
	"github.com/debemdeboas/archive-editor/internal/sse"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	EventMarkup  = "markup"
	EventReload  = "reload"
	EventDeleted = "deleted"
)

var editorLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

// Session is a mounted editor for one draft. The mutex stands in for the
// single event loop the editor expects: every call into the editor or its
// bus happens with it held.
type Session struct {
	mu     sync.Mutex
	draft  *model.Draft
	editor *richtext.Editor
	bus    *events.Bus
}

// Do runs fn with exclusive access to the session's editor and bus.
func (s *Session) Do(fn func(ed *richtext.Editor, bus *events.Bus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor, s.bus)
}

// Draft returns a copy of the draft as last saved by the session.
func (s *Session) Draft() model.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *s.draft
	d.Markup = slices.Clone(s.draft.Markup)
	return d
}

type SessionManager struct {
	repo    repository.DraftRepository
	clients *sse.SSEClients
	cfg     config.EditorConfig

	sessions *cache.Cache[model.DraftID, *Session]
	// Serializes opening, so a draft never gets two sessions.
	mu sync.Mutex

	now func() time.Time
}

func NewSessionManager(repo repository.DraftRepository, clients *sse.SSEClients, cfg config.EditorConfig) *SessionManager {
	return &SessionManager{
		repo:     repo,
		clients:  clients,
		cfg:      cfg,
		sessions: cache.NewCache[model.DraftID, *Session](),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create saves a new draft seeded with content and opens a session on it.
// The stored markup is the canonical serialization of the seed.
func (m *SessionManager) Create(title, content string) (*Session, error) {
	d := m.repo.NewDraft()
	d.Title = title

	s := &Session{draft: d, bus: events.NewBus()}
	ed, err := m.newEditor(s, content)
	if err != nil {
		return nil, err
	}
	s.editor = ed

	d.SetMarkup([]byte(ed.Markup()), m.now())
	if err := m.repo.SaveDraft(d); err != nil {
		return nil, fmt.Errorf("failed to save new draft: %w", err)
	}
	ed.Mount(s.bus)
	m.sessions.Set(d.ID, s)
	editorLogger.Info().Str("draft_id", string(d.ID)).Msg("Draft created")
	return s, nil
}

// Open returns the live session of a draft, loading the draft from storage
// when it has none yet.
func (m *SessionManager) Open(id model.DraftID) (*Session, error) {
	if s, ok := m.sessions.Get(id); ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions.Get(id); ok {
		return s, nil
	}

	d, err := m.repo.ReadDraft(id)
	if err != nil {
		return nil, err
	}

	s := &Session{draft: d, bus: events.NewBus()}
	if s.editor, err = m.newEditor(s, string(d.Markup)); err != nil {
		return nil, err
	}
	s.editor.Mount(s.bus)
	m.sessions.Set(id, s)
	editorLogger.Debug().Str("draft_id", string(id)).Msg("Session opened")
	return s, nil
}

// Lookup returns the live session of a draft without touching storage.
func (m *SessionManager) Lookup(id model.DraftID) (*Session, error) {
	if s, ok := m.sessions.Get(id); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// Draft reads a draft, preferring the live session over storage.
func (m *SessionManager) Draft(id model.DraftID) (*model.Draft, error) {
	if s, ok := m.sessions.Get(id); ok {
		d := s.Draft()
		return &d, nil
	}
	return m.repo.ReadDraft(id)
}

// Close unmounts the session of a draft. It reports whether there was one.
func (m *SessionManager) Close(id model.DraftID) bool {
	s, ok := m.sessions.Get(id)
	if !ok || !m.sessions.Delete(id) {
		return false
	}
	s.Do(func(ed *richtext.Editor, _ *events.Bus) error {
		ed.Unmount()
		return nil
	})
	editorLogger.Debug().Str("draft_id", string(id)).Msg("Session closed")
	return true
}

// Delete closes the session of a draft and removes the draft from storage.
func (m *SessionManager) Delete(id model.DraftID) error {
	m.Close(id)
	if err := m.repo.DeleteDraft(id); err != nil {
		return err
	}
	m.clients.Broadcast(id, sse.Message{Event: EventDeleted, Data: string(id)})
	editorLogger.Info().Str("draft_id", string(id)).Msg("Draft deleted")
	return nil
}

func (m *SessionManager) Len() int {
	return m.sessions.Len()
}

// Reload brings a live session in line with storage after the draft changed
// there. Storage is read with the session locked, so it can only match the
// session's last save or hold someone else's content; the latter replaces
// the editor, ending any selection or drag in progress.
func (m *SessionManager) Reload(id model.DraftID) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return
	}

	if m.reload(s) {
		m.Close(id)
		m.clients.Broadcast(id, sse.Message{Event: EventDeleted, Data: string(id)})
	}
}

// reload reports whether the draft is gone from storage.
func (m *SessionManager) reload(s *Session) (gone bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.draft.ID
	d, err := m.repo.ReadDraft(id)
	if errors.Is(err, repository.ErrDraftNotFound) {
		return true
	}
	if err != nil {
		editorLogger.Error().Err(err).Str("draft_id", string(id)).Msg("Error reloading draft")
		return false
	}
	if d.ContentHash == s.draft.ContentHash {
		return false
	}

	ed, err := m.newEditor(s, string(d.Markup))
	if err != nil {
		editorLogger.Error().Err(err).Str("draft_id", string(id)).Msg("Error parsing reloaded draft")
		return false
	}
	s.editor.Unmount()
	s.editor = ed
	s.draft = d
	ed.Mount(s.bus)

	editorLogger.Info().Str("draft_id", string(id)).Msg("Draft reloaded from storage")
	m.clients.Broadcast(id, sse.Message{Event: EventReload, Data: d.ContentHash})
	return false
}

func (m *SessionManager) newEditor(s *Session, markup string) (*richtext.Editor, error) {
	id := s.draft.ID
	return richtext.New(markup,
		richtext.WithID(string(id)),
		richtext.WithPlaceholder(m.cfg.Placeholder),
		richtext.WithMinWidth(m.cfg.MinWidth),
		richtext.WithDefaultImageWidth(m.cfg.DefaultImageWidth),
		richtext.WithFloatMargin(m.cfg.FloatMargin),
		richtext.WithLogger(editorLogger.With().Str("draft_id", string(id)).Logger()),
		richtext.WithOnChange(func(markup string) { m.save(s, markup) }),
	)
}

// save runs as the editor's change callback, so the session lock is held.
func (m *SessionManager) save(s *Session, markup string) {
	if !s.draft.SetMarkup([]byte(markup), m.now()) {
		return
	}

	if err := m.repo.SaveDraft(s.draft); err != nil {
		editorLogger.Error().Err(err).Str("draft_id", string(s.draft.ID)).Msg("Error saving draft")
		return
	}
	m.clients.Broadcast(s.draft.ID, sse.Message{Event: EventMarkup, Data: markup})
}
