// Package richtext is the inline rich-text editor core: a typed surface
// projected to and from markup, media selection, drag resizing, alignment
// and the toolbar commands.
//
// An Editor is single-threaded. All calls, including the listeners it
// registers on its events.Bus, must come from one goroutine at a time.
package richtext

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/debemdeboas/archive-editor/internal/events"
)

var (
	ErrMediaNotFound   = errors.New("media not found")
	ErrNoSelection     = errors.New("no media selected")
	ErrDragInProgress  = errors.New("drag in progress")
	ErrInvalidFontSize = errors.New("invalid font size")
)

// State is the interaction state of a single media.
type State int

const (
	StateIdle State = iota
	StateActive
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateDragging:
		return "dragging"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

type Option func(*Editor)

// WithOnChange sets the callback receiving the full markup after every
// mutation.
func WithOnChange(fn func(markup string)) Option {
	return func(e *Editor) { e.onChange = fn }
}

func WithPlaceholder(text string) Option {
	return func(e *Editor) { e.placeholder = text }
}

// WithPrompt sets how insert-image asks for a URL when none is given.
// Returning false, or an empty URL, cancels the insertion.
func WithPrompt(fn func() (string, bool)) Option {
	return func(e *Editor) { e.prompt = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Editor) { e.log = l }
}

func WithID(id string) Option {
	return func(e *Editor) { e.id = id }
}

func WithMinWidth(w float64) Option {
	return func(e *Editor) {
		if w > 0 && finite(w) {
			e.minWidth = w
		}
	}
}

func WithDefaultImageWidth(w float64) Option {
	return func(e *Editor) {
		if w > 0 && finite(w) {
			e.imageWidth = w
		}
	}
}

func WithFloatMargin(margin string) Option {
	return func(e *Editor) { e.align.floatMargin = margin }
}

type Editor struct {
	id      string
	surface *Surface

	selection *Selection
	activeID  string
	handles   handleManager
	drag      *DragSession

	bus  *events.Bus
	subs []func()

	onChange    func(string)
	prompt      func() (string, bool)
	placeholder string
	minWidth    float64
	imageWidth  float64
	align       alignConfig

	log zerolog.Logger
}

// New seeds an editor from markup. The editor owns its surface exclusively.
func New(initial string, opts ...Option) (*Editor, error) {
	surface, err := Parse(initial)
	if err != nil {
		return nil, err
	}

	e := &Editor{
		id:         uuid.NewString(),
		surface:    surface,
		minWidth:   DefaultMinWidth,
		imageWidth: DefaultImageWidth,
		align:      alignConfig{floatMargin: DefaultFloatMargin},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Editor) ID() string {
	return e.id
}

// Mount subscribes the editor to page-wide pointer presses on bus. Mounting
// again first releases the previous subscriptions.
func (e *Editor) Mount(bus *events.Bus) {
	e.Unmount()
	e.bus = bus
	e.subs = append(e.subs, bus.Subscribe(events.PointerDown, e.handlePointerDown))
	e.log.Debug().Str("editor_id", e.id).Msg("Editor mounted")
}

// Unmount releases every subscription the editor holds, ending a drag in
// progress.
func (e *Editor) Unmount() {
	if e.drag != nil {
		e.endDrag()
	}
	for _, unsub := range e.subs {
		unsub()
	}
	e.subs = nil
	e.bus = nil
	e.deactivate()
}

func (e *Editor) Mounted() bool {
	return e.bus != nil
}

// Markup is the serialized surface.
func (e *Editor) Markup() string {
	return Serialize(e.surface)
}

// RenderEditable renders the editing view: the surface inside its editable
// root, media tagged for hit-testing and the active media decorated with its
// resize wrapper and handle.
func (e *Editor) RenderEditable() string {
	attrs := []html.Attribute{
		{Key: "class", Val: "editor-surface"},
		{Key: "contenteditable", Val: "true"},
		{Key: "data-editor-id", Val: e.id},
	}
	if e.placeholder != "" {
		attrs = append(attrs, html.Attribute{Key: "data-placeholder", Val: e.placeholder})
	}
	if e.surface.IsEmpty() {
		attrs = append(attrs, html.Attribute{Key: "data-empty", Val: "true"})
	}

	root := element(atom.Div, attrs)
	appendChildren(root, e.surface.nodes(renderOptions{editable: true, handles: &e.handles}))
	return renderNodes([]*html.Node{root})
}

// Wrappers is the number of resize wrappers in the editing view: 0 or 1.
func (e *Editor) Wrappers() int {
	return e.handles.wrappers()
}

func (e *Editor) Placeholder() string {
	return e.placeholder
}

func (e *Editor) IsEmpty() bool {
	return e.surface.IsEmpty()
}

func (e *Editor) ActiveID() string {
	return e.activeID
}

func (e *Editor) IsDragging() bool {
	return e.drag != nil
}

// Drag returns a copy of the drag session in progress.
func (e *Editor) Drag() (DragSession, bool) {
	if e.drag == nil {
		return DragSession{}, false
	}
	d := *e.drag
	d.unsubscribe = nil
	return d, true
}

func (e *Editor) MediaState(id string) State {
	switch {
	case e.drag != nil && e.drag.MediaID == id:
		return StateDragging
	case id != "" && e.activeID == id:
		return StateActive
	}
	return StateIdle
}

// Media snapshots every media in document order.
func (e *Editor) Media() []MediaInfo {
	list := e.surface.Media()
	out := make([]MediaInfo, 0, len(list))
	for _, m := range list {
		w, _ := m.Width()
		h, ok := m.Height()
		out = append(out, MediaInfo{
			ID:         m.ID,
			Src:        m.Src(),
			Width:      w,
			Height:     h,
			AutoHeight: !ok,
			Alignment:  m.Alignment(),
			State:      e.MediaState(m.ID),
		})
	}
	return out
}

// Activate selects the media id and decorates it with a resize handle.
// Activating the active media changes nothing.
func (e *Editor) Activate(id string) error {
	if e.drag != nil {
		return ErrDragInProgress
	}
	if e.surface.findMedia(id) == nil {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, id)
	}
	if e.activeID == id {
		return nil
	}

	e.activeID = id
	e.handles.activate(id)
	e.log.Debug().Str("editor_id", e.id).Str("media_id", id).Msg("Media activated")
	return nil
}

// Deactivate clears the selection. It is a no-op when nothing is selected.
func (e *Editor) Deactivate() {
	if e.drag != nil {
		return
	}
	e.deactivate()
}

func (e *Editor) deactivate() {
	if e.activeID == "" && e.handles.wrappers() == 0 {
		return
	}
	e.log.Debug().Str("editor_id", e.id).Str("media_id", e.activeID).Msg("Media deactivated")
	e.activeID = ""
	e.handles.deactivate()
}

// SetSelection sets the caret or text range used by toolbar commands.
func (e *Editor) SetSelection(sel Selection) {
	sel.Anchor = e.surface.clamp(sel.Anchor)
	sel.Focus = e.surface.clamp(sel.Focus)
	e.selection = &sel
}

// ClearSelection drops the caret context.
func (e *Editor) ClearSelection() {
	e.selection = nil
}

func (e *Editor) Selection() (Selection, bool) {
	if e.selection == nil {
		return Selection{}, false
	}
	return *e.selection, true
}

// Align applies mode to the active media.
func (e *Editor) Align(mode Alignment) error {
	if e.activeID == "" {
		return ErrNoSelection
	}
	return e.AlignMedia(e.activeID, mode)
}

// AlignMedia resets every layout property of the media, then applies mode.
func (e *Editor) AlignMedia(id string, mode Alignment) error {
	if _, err := ParseAlignment(string(mode)); err != nil {
		return err
	}
	m := e.surface.findMedia(id)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, id)
	}

	applyAlignment(m.attrs.style(), mode, e.align)
	m.attrs.touch()
	e.emit()
	return nil
}

// Exec runs a toolbar command. Commands with nothing to act on are no-ops.
func (e *Editor) Exec(cmd Command, arg string) error {
	changed := false

	switch cmd {
	case CmdBold, CmdItalic, CmdUnderline:
		if e.selection != nil {
			has, set := markAccessors(cmd)
			changed = e.surface.toggleMark(*e.selection, has, set)
		}
	case CmdJustifyLeft, CmdJustifyCenter, CmdJustifyRight, CmdJustifyFull:
		if e.selection != nil {
			changed = e.surface.justify(*e.selection, justifyValues[cmd])
		}
	case CmdBulletList:
		if e.selection != nil {
			changed = e.surface.toggleList(e.selection, BlockBulletItem)
		}
	case CmdNumberedList:
		if e.selection != nil {
			changed = e.surface.toggleList(e.selection, BlockNumberedItem)
		}
	case CmdFontSize:
		size, err := ParseFontSize(arg)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFontSize, err)
		}
		if e.selection != nil {
			changed = e.surface.setFontSize(*e.selection, size)
		}
	case CmdInsertImage:
		changed = e.insertImage(arg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd))
	}

	if changed {
		e.log.Debug().Str("editor_id", e.id).Str("command", string(cmd)).Msg("Command applied")
		e.emit()
	}
	return nil
}

// insertImage adds a new media without activating it. An empty or cancelled
// URL inserts nothing.
func (e *Editor) insertImage(url string) bool {
	if url == "" && e.prompt != nil {
		var ok bool
		if url, ok = e.prompt(); !ok {
			return false
		}
	}
	if url = strings.TrimSpace(url); url == "" {
		return false
	}

	var caret *Position
	if e.selection != nil {
		start, _ := e.selection.Ordered()
		caret = &start
	}

	after, hadCaret := e.surface.insertMedia(NewImage(url, e.imageWidth), caret)
	if hadCaret {
		sel := Caret(after)
		e.selection = &sel
	}
	return true
}

func (e *Editor) handlePointerDown(ev events.Event) {
	if e.drag != nil {
		return
	}

	t := ev.Target
	if t.Editor == e.id {
		switch t.Kind {
		case events.TargetHandle:
			if t.MediaID != "" && t.MediaID == e.activeID {
				e.startDrag(ev)
				return
			}
		case events.TargetMedia:
			if err := e.Activate(t.MediaID); err != nil {
				e.log.Debug().Err(err).Str("editor_id", e.id).Msg("Ignoring press on unknown media")
			}
			return
		}
	}

	e.deactivateOutside(t)
}

// deactivateOutside is the page-wide listener half of the selection: a press
// anywhere but the active media, its wrapper or its handle clears it.
func (e *Editor) deactivateOutside(t events.Target) {
	if e.activeID == "" || e.drag != nil {
		return
	}
	if t.Editor == e.id && t.MediaID == e.activeID {
		switch t.Kind {
		case events.TargetMedia, events.TargetWrapper, events.TargetHandle:
			return
		}
	}
	e.deactivate()
}

func (e *Editor) startDrag(ev events.Event) {
	m := e.surface.findMedia(e.activeID)
	if m == nil || e.bus == nil {
		return
	}

	d := newDragSession(m, ev)
	d.unsubscribe = []func(){
		e.bus.Subscribe(events.PointerMove, e.handleDragMove),
		e.bus.Subscribe(events.PointerUp, e.handleDragEnd),
	}
	e.drag = d

	e.log.Debug().
		Str("editor_id", e.id).
		Str("media_id", d.MediaID).
		Float64("start_width", d.StartWidth).
		Float64("start_height", d.StartHeight).
		Float64("aspect_ratio", d.AspectRatio).
		Msg("Drag started")
}

func (e *Editor) handleDragMove(ev events.Event) {
	if e.drag == nil {
		return
	}
	m := e.surface.findMedia(e.drag.MediaID)
	if m == nil {
		return
	}

	if w, h, ok := e.drag.size(ev.X, e.minWidth); ok {
		m.setSize(w, h)
	} else {
		m.setWidthAutoHeight(w)
	}
	e.emit()
}

func (e *Editor) handleDragEnd(events.Event) {
	if e.drag == nil {
		return
	}
	e.endDrag()
}

func (e *Editor) endDrag() {
	d := e.drag
	d.release()
	e.drag = nil
	e.log.Debug().Str("editor_id", e.id).Str("media_id", d.MediaID).Msg("Drag ended")
	e.emit()
}

func (e *Editor) emit() {
	if e.onChange != nil {
		e.onChange(e.Markup())
	}
}
