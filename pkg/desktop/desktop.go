// Package desktop binds the window manager, the application catalog and
// the per-window form runtimes into one desktop session.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"webos/pkg/appschema"
	"webos/pkg/catalog"
	"webos/pkg/form"
	"webos/pkg/formula"
	"webos/pkg/protocol"
	"webos/pkg/wm"
)

// Desktop errors.
var (
	// ErrUnknownBuiltin is returned when no built-in application has the tag.
	ErrUnknownBuiltin = errors.New("unknown built-in application")
	// ErrNoForm is returned when a window does not host a form.
	ErrNoForm = errors.New("window has no form")
)

// Builtin is a fixed application shipped with the desktop.
type Builtin struct {
	Tag   string `json:"tag"`
	Title string `json:"title"`
}

// Builtins lists the built-in applications in desktop order.
var Builtins = []Builtin{
	{Tag: "calculator", Title: "Calculator"},
	{Tag: "fileexplorer", Title: "File Explorer"},
	{Tag: "browser", Title: "Browser"},
}

// LookupBuiltin finds a built-in by tag, ignoring case.
func LookupBuiltin(tag string) (Builtin, bool) {
	for _, b := range Builtins {
		if strings.EqualFold(b.Tag, tag) {
			return b, true
		}
	}
	return Builtin{}, false
}

// Publisher receives desktop events.
type Publisher interface {
	Publish(msg *protocol.Message)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(msg *protocol.Message)

// Publish calls f(msg).
func (f PublisherFunc) Publish(msg *protocol.Message) { f(msg) }

// Config holds configuration for a desktop.
type Config struct {
	WM wm.Config
	// CascadeCloseOnDelete closes windows bound to an application when it
	// is deleted. When false those windows stay open with their form.
	CascadeCloseOnDelete bool
	Evaluator            *formula.Evaluator
	Validator            *appschema.Validator
	Publisher            Publisher
	Logger               *zap.Logger
}

// Desktop is one desktop session.
type Desktop struct {
	wm        *wm.Manager
	store     catalog.Store
	eval      *formula.Evaluator
	validator *appschema.Validator
	pub       Publisher
	log       *zap.Logger
	cascade   bool

	mu    sync.Mutex
	forms map[string]*form.Instance
}

// New creates a desktop whose applications live in store.
func New(store catalog.Store, cfg Config) (*Desktop, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	eval := cfg.Evaluator
	if eval == nil {
		eval = formula.New()
	}
	validator := cfg.Validator
	if validator == nil {
		v, err := appschema.Default()
		if err != nil {
			return nil, err
		}
		validator = v
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = PublisherFunc(func(*protocol.Message) {})
	}

	return &Desktop{
		wm:        wm.NewManager(cfg.WM),
		store:     store,
		eval:      eval,
		validator: validator,
		pub:       pub,
		log:       log,
		cascade:   cfg.CascadeCloseOnDelete,
		forms:     make(map[string]*form.Instance),
	}, nil
}

// Snapshot is the full desktop state.
type Snapshot struct {
	Windows  []wm.Window   `json:"windows"`
	Apps     []catalog.App `json:"apps"`
	Builtins []Builtin     `json:"builtins"`
	Viewport Viewport      `json:"viewport"`
}

// Viewport is the visible desktop area.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Snapshot returns windows ordered by z and applications in icon order.
func (d *Desktop) Snapshot(ctx context.Context) (Snapshot, error) {
	apps, err := d.store.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("listing apps: %w", err)
	}
	w, h := d.wm.Viewport()
	return Snapshot{
		Windows:  d.wm.Windows(),
		Apps:     apps,
		Builtins: Builtins,
		Viewport: Viewport{Width: w, Height: h},
	}, nil
}

// Windows returns the open windows ordered by z.
func (d *Desktop) Windows() []wm.Window {
	return d.wm.Windows()
}

// Window returns the window with the given id.
func (d *Desktop) Window(id string) (wm.Window, bool) {
	return d.wm.Window(id)
}

// OpenBuiltin opens a built-in application. An empty title uses the
// application's own title.
func (d *Desktop) OpenBuiltin(tag, title string) (wm.Window, error) {
	b, ok := LookupBuiltin(tag)
	if !ok {
		return wm.Window{}, fmt.Errorf("%w: %q", ErrUnknownBuiltin, tag)
	}
	if title == "" {
		title = b.Title
	}
	win := d.wm.OpenWindow(wm.BuiltinContent(b.Tag), title, b.Tag)
	d.log.Debug("opened built-in", zap.String("window", win.ID), zap.String("app", b.Tag))
	d.publish(protocol.OpcodeWindowOpened, win)
	return win, nil
}

// OpenApp opens a new window hosting a fresh form for a generated
// application.
func (d *Desktop) OpenApp(ctx context.Context, appID string) (wm.Window, error) {
	app, err := d.store.Get(ctx, appID)
	if err != nil {
		return wm.Window{}, err
	}
	return d.openForm(app), nil
}

func (d *Desktop) openForm(app catalog.App) wm.Window {
	inst := form.New(app.Schema, form.WithEvaluator(d.eval), form.WithLogger(d.log))

	d.mu.Lock()
	win := d.wm.OpenWindow(wm.DynamicContent(app.ID), app.Title, "")
	d.forms[win.ID] = inst
	d.mu.Unlock()

	d.log.Debug("opened app", zap.String("window", win.ID), zap.String("app", app.ID))
	d.publish(protocol.OpcodeWindowOpened, win)
	return win
}

// CreateApp gates raw schema JSON and adds the resulting application to
// the catalog.
func (d *Desktop) CreateApp(ctx context.Context, data []byte) (catalog.App, error) {
	schema, err := d.validator.Parse(data)
	if err != nil {
		return catalog.App{}, err
	}
	return d.AddApp(ctx, schema)
}

// AddApp adds an already validated schema to the catalog.
func (d *Desktop) AddApp(ctx context.Context, schema *appschema.AppSchema) (catalog.App, error) {
	app := catalog.NewApp(schema)
	if err := d.store.Add(ctx, app); err != nil {
		return catalog.App{}, fmt.Errorf("adding app: %w", err)
	}
	d.log.Info("app created", zap.String("app", app.ID), zap.String("title", app.Title))
	d.publish(protocol.OpcodeAppCreated, app)
	return app, nil
}

// Apps lists the generated applications.
func (d *Desktop) Apps(ctx context.Context) ([]catalog.App, error) {
	return d.store.List(ctx)
}

// AppDeleted is the payload of an app.deleted event.
type AppDeleted struct {
	ID            string   `json:"id"`
	ClosedWindows []string `json:"closed_windows,omitempty"`
}

// DeleteApp removes an application from the catalog. Windows showing it
// stay open unless cascade close is configured; the ids of any closed
// windows are returned.
func (d *Desktop) DeleteApp(ctx context.Context, appID string) ([]string, error) {
	if err := d.store.Delete(ctx, appID); err != nil {
		return nil, err
	}

	var closed []string
	if d.cascade {
		d.mu.Lock()
		closed = d.wm.CloseWhere(func(w wm.Window) bool {
			return w.Content.IsDynamic() && w.Content.AppID == appID
		})
		for _, id := range closed {
			delete(d.forms, id)
		}
		d.mu.Unlock()
	}

	d.log.Info("app deleted", zap.String("app", appID), zap.Int("closed", len(closed)))
	d.publish(protocol.OpcodeAppDeleted, AppDeleted{ID: appID, ClosedWindows: closed})
	for _, id := range closed {
		d.publish(protocol.OpcodeWindowClosed, WindowClosed{ID: id})
	}
	return closed, nil
}

// WindowClosed is the payload of a window.closed event.
type WindowClosed struct {
	ID string `json:"id"`
}

// CloseWindow closes a window and drops its form. Unknown ids are ignored.
func (d *Desktop) CloseWindow(id string) {
	d.mu.Lock()
	_, ok := d.wm.Window(id)
	d.wm.CloseWindow(id)
	delete(d.forms, id)
	d.mu.Unlock()

	if ok {
		d.publish(protocol.OpcodeWindowClosed, WindowClosed{ID: id})
	}
}

// FocusWindow brings a window to the front.
func (d *Desktop) FocusWindow(id string) {
	d.wm.FocusWindow(id)
	d.changed(id)
}

// MinimizeWindow hides a window.
func (d *Desktop) MinimizeWindow(id string) {
	d.wm.MinimizeWindow(id)
	d.changed(id)
}

// MaximizeWindow toggles the maximized state of a window.
func (d *Desktop) MaximizeWindow(id string) {
	d.wm.MaximizeWindow(id)
	d.changed(id)
}

// BeginDrag starts moving (empty direction) or resizing a window.
func (d *Desktop) BeginDrag(id string, pointer wm.Point, dir wm.Direction) {
	d.wm.BeginDrag(id, pointer, dir)
	d.changed(id)
}

// PointerMove applies the active drag, if any.
func (d *Desktop) PointerMove(pointer wm.Point) {
	d.wm.PointerMove(pointer)
	if s, ok := d.wm.Dragging(); ok {
		d.changed(s.WindowID)
	}
}

// PointerRelease ends the active drag.
func (d *Desktop) PointerRelease() {
	d.wm.PointerRelease()
}

// Blur ends the active drag after the page lost focus.
func (d *Desktop) Blur() {
	d.wm.Blur()
}

// Dragging returns the active drag session.
func (d *Desktop) Dragging() (wm.DragSession, bool) {
	return d.wm.Dragging()
}

// ApplyAutoHeight resizes an auto-height window to its measured content.
func (d *Desktop) ApplyAutoHeight(id string, contentHeight int) {
	d.wm.ApplyAutoHeight(id, contentHeight)
	d.changed(id)
}

// SetViewport updates the visible desktop area.
func (d *Desktop) SetViewport(width, height int) {
	d.wm.SetViewport(width, height)
}

func (d *Desktop) changed(id string) {
	if win, ok := d.wm.Window(id); ok {
		d.publish(protocol.OpcodeWindowChanged, win)
	}
}

func (d *Desktop) publish(op protocol.Opcode, payload any) {
	msg, err := protocol.NewMessage(op, payload)
	if err != nil {
		d.log.Error("failed to encode event", zap.Stringer("op", op), zap.Error(err))
		return
	}
	d.pub.Publish(msg)
}
