package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/events"
	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/debemdeboas/archive-editor/internal/render"
	"github.com/debemdeboas/archive-editor/internal/repository"
	"github.com/debemdeboas/archive-editor/internal/richtext"
	"github.com/debemdeboas/archive-editor/internal/sse"
	"github.com/debemdeboas/archive-editor/internal/theme"
	"github.com/debemdeboas/archive-editor/internal/util"
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	sessions *SessionManager
	repo     repository.DraftRepository
	clients  *sse.SSEClients
}

func NewHandler(sessions *SessionManager, repo repository.DraftRepository, clients *sse.SSEClients) *Handler {
	return &Handler{
		sessions: sessions,
		repo:     repo,
		clients:  clients,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(config.RouteDraftCreate, h.ServeCreate)
	mux.HandleFunc(config.RouteDraftList, h.ServeList)
	mux.HandleFunc(config.RouteDraftGet, h.ServeEditable)
	mux.HandleFunc(config.RouteDraftDelete, h.ServeDelete)
	mux.HandleFunc(config.RouteDraftEvents, h.ServeEvent)
	mux.HandleFunc(config.RouteDraftSelection, h.ServeSelection)
	mux.HandleFunc(config.RouteDraftCommands, h.ServeCommand)
	mux.HandleFunc(config.RouteDraftAlign, h.ServeAlign)
	mux.HandleFunc(config.RouteDraftMarkup, h.ServeMarkup)
	mux.HandleFunc(config.RouteDraftSource, h.ServeSource)
	mux.HandleFunc(config.RouteSyntaxTheme, h.ServeSyntaxTheme)
	mux.HandleFunc(config.RouteSSE, h.ServeEvents)
}

type mediaView struct {
	ID         string  `json:"id"`
	Src        string  `json:"src"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height,omitempty"`
	AutoHeight bool    `json:"auto_height"`
	Alignment  string  `json:"alignment,omitempty"`
	State      string  `json:"state"`
}

// View is what the mutating endpoints answer with: enough for the client to
// redraw the surface.
type View struct {
	ID          model.DraftID       `json:"id"`
	Title       string              `json:"title"`
	ContentHash string              `json:"content_hash"`
	HTML        string              `json:"html"`
	Empty       bool                `json:"empty"`
	Placeholder string              `json:"placeholder,omitempty"`
	ActiveID    string              `json:"active_id,omitempty"`
	Dragging    bool                `json:"dragging"`
	Selection   *richtext.Selection `json:"selection,omitempty"`
	Media       []mediaView         `json:"media"`
}

// view must be called with the session lock held.
func (s *Session) view() View {
	v := View{
		ID:          s.draft.ID,
		Title:       s.draft.GetTitle(),
		ContentHash: s.draft.ContentHash,
		HTML:        s.editor.RenderEditable(),
		Empty:       s.editor.IsEmpty(),
		Placeholder: s.editor.Placeholder(),
		ActiveID:    s.editor.ActiveID(),
		Dragging:    s.editor.IsDragging(),
		Media:       []mediaView{},
	}
	if sel, ok := s.editor.Selection(); ok {
		v.Selection = &sel
	}
	for _, m := range s.editor.Media() {
		v.Media = append(v.Media, mediaView{
			ID:         m.ID,
			Src:        m.Src,
			Width:      m.Width,
			Height:     m.Height,
			AutoHeight: m.AutoHeight,
			Alignment:  string(m.Alignment),
			State:      m.State.String(),
		})
	}
	return v
}

// apply runs fn on the session of the request's draft and answers with the
// resulting view.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, fn func(ed *richtext.Editor, bus *events.Bus) error) {
	s, err := h.sessions.Open(model.DraftID(r.PathValue("id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var v View
	err = s.Do(func(ed *richtext.Editor, bus *events.Bus) error {
		if err := fn(ed, bus); err != nil {
			return err
		}
		v = s.view()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create(r.FormValue("title"), r.FormValue("content"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var v View
	s.Do(func(*richtext.Editor, *events.Bus) error {
		v = s.view()
		return nil
	})

	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieDraftID,
		Value: string(v.ID),
		Path:  "/",
	})
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListDrafts()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []model.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ServeEditable(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Open(model.DraftID(r.PathValue("id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var out string
	s.Do(func(ed *richtext.Editor, _ *events.Bus) error {
		out = ed.RenderEditable()
		return nil
	})

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(model.DraftID(r.PathValue("id"))); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pointerEvent struct {
	Type   string `json:"type"`
	Target struct {
		Editor  string `json:"editor"`
		Kind    string `json:"kind"`
		MediaID string `json:"media_id"`
	} `json:"target"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Box struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"box"`
}

func (p pointerEvent) event() (events.Event, error) {
	typ, err := events.ParseEventType(p.Type)
	if err != nil {
		return events.Event{}, fmt.Errorf("%w: %s: %w", errBadRequest, config.ErrInvalidEvent, err)
	}
	kind, err := events.ParseTargetKind(p.Target.Kind)
	if err != nil {
		return events.Event{}, fmt.Errorf("%w: %s: %w", errBadRequest, config.ErrInvalidEvent, err)
	}
	return events.Event{
		Type:   typ,
		Target: events.Target{Editor: p.Target.Editor, Kind: kind, MediaID: p.Target.MediaID},
		X:      p.X,
		Y:      p.Y,
		Box:    events.Box{Width: p.Box.Width, Height: p.Box.Height},
	}, nil
}

// ServeEvent replays a pointer event from the page on the draft's bus.
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	var p pointerEvent
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %s: %w", errBadRequest, config.ErrInvalidEvent, err))
		return
	}
	e, err := p.event()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.apply(w, r, func(_ *richtext.Editor, bus *events.Bus) error {
		bus.Dispatch(e)
		return nil
	})
}

type selectionRequest struct {
	Anchor *richtext.Position `json:"anchor"`
	Focus  *richtext.Position `json:"focus"`
}

// ServeSelection sets the caret or range. An empty object clears it; a lone
// anchor or focus is a caret.
func (h *Handler) ServeSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %s: %w", errBadRequest, config.ErrInvalidSelection, err))
		return
	}

	h.apply(w, r, func(ed *richtext.Editor, _ *events.Bus) error {
		switch {
		case req.Anchor == nil && req.Focus == nil:
			ed.ClearSelection()
		case req.Focus == nil:
			ed.SetSelection(richtext.Caret(*req.Anchor))
		case req.Anchor == nil:
			ed.SetSelection(richtext.Caret(*req.Focus))
		default:
			ed.SetSelection(richtext.Selection{Anchor: *req.Anchor, Focus: *req.Focus})
		}
		return nil
	})
}

func (h *Handler) ServeCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := richtext.ParseCommand(r.FormValue("command"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	arg := r.FormValue("arg")

	h.apply(w, r, func(ed *richtext.Editor, _ *events.Bus) error {
		return ed.Exec(cmd, arg)
	})
}

// ServeAlign aligns the media named by the media field, or the active one.
func (h *Handler) ServeAlign(w http.ResponseWriter, r *http.Request) {
	mode, err := richtext.ParseAlignment(r.FormValue("mode"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	mediaID := r.FormValue("media")

	h.apply(w, r, func(ed *richtext.Editor, _ *events.Bus) error {
		if mediaID != "" {
			return ed.AlignMedia(mediaID, mode)
		}
		return ed.Align(mode)
	})
}

func (h *Handler) ServeMarkup(w http.ResponseWriter, r *http.Request) {
	d, err := h.sessions.Draft(model.DraftID(r.PathValue("id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	etag := util.ETag(d.ContentHash)
	w.Header().Set(config.HETag, etag)
	if r.Header.Get(config.HIfNoneMatch) == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write(d.Markup)
}

func (h *Handler) ServeSource(w http.ResponseWriter, r *http.Request) {
	d, err := h.sessions.Draft(model.DraftID(r.PathValue("id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := render.HighlightMarkupCached(string(d.Markup), d.ContentHash, theme.GetSyntaxThemeFromRequest(r))

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func (h *Handler) ServeSyntaxTheme(w http.ResponseWriter, r *http.Request) {
	themeStyle := []byte(theme.GenerateSyntaxCSS(r.PathValue("theme")))

	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ETag(util.ContentHash(themeStyle)))
	w.WriteHeader(http.StatusOK)
	w.Write(themeStyle)
}

// ServeEvents streams the changes of one draft as server-sent events.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	draftID := r.URL.Query().Get("draft")
	if draftID == "" {
		http.Error(w, "Draft parameter required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeEvent)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	client := sse.NewClient(model.DraftID(draftID))
	h.clients.Add(client)
	editorLogger.Debug().Str("draft_id", draftID).Msg("New SSE client connected")
	defer func() {
		h.clients.Delete(client)
		editorLogger.Debug().Str("draft_id", draftID).Msg("SSE client disconnected")
	}()

	sse.Message{Event: "connected", Data: "SSE connection established"}.WriteTo(w)
	flusher.Flush()

	done := r.Context().Done()
	for {
		select {
		case msg, ok := <-client.Msg:
			if !ok {
				return
			}
			if _, err := msg.WriteTo(w); err != nil {
				return
			}
			flusher.Flush()
		case <-done:
			return
		}
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrDraftNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, richtext.ErrMediaNotFound):
		status = http.StatusNotFound
	case errors.Is(err, richtext.ErrNoSelection),
		errors.Is(err, richtext.ErrDragInProgress):
		status = http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, richtext.ErrUnknownCommand),
		errors.Is(err, richtext.ErrUnknownAlignment),
		errors.Is(err, richtext.ErrInvalidFontSize):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		editorLogger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		http.Error(w, config.ErrInternalServerError, status)
		return
	}
	editorLogger.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		editorLogger.Error().Err(err).Msg("Error encoding response")
	}
}
