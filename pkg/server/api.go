package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"webos/pkg/appschema"
	"webos/pkg/catalog"
	"webos/pkg/desktop"
	"webos/pkg/form"
	"webos/pkg/llm"
	"webos/pkg/wm"
)

// RouterConfig holds the collaborators served by the HTTP API.
type RouterConfig struct {
	Desktop *desktop.Desktop
	// Assistant is optional; without it the assistant route answers 503.
	Assistant *llm.Assistant
	Hub       *Hub
	StaticDir string
	Logger    *zap.Logger
	// Ready reports whether dependencies are usable.
	Ready func(ctx context.Context) error
}

type api struct {
	desktop   *desktop.Desktop
	assistant *llm.Assistant
	log       *zap.Logger
}

// NewRouter builds the HTTP handler: the JSON API under /api/v1, the
// event stream at /ws, health checks and the static desktop shell.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	a := &api{desktop: cfg.Desktop, assistant: cfg.Assistant, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/health", HealthHandler())
	r.Method(http.MethodGet, "/ready", ReadyHandler(cfg.Ready))
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/desktop", a.getDesktop)
		r.Put("/viewport", a.setViewport)

		r.Route("/windows", func(r chi.Router) {
			r.Post("/", a.openWindow)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", a.closeWindow)
				r.Post("/focus", a.windowAction(a.desktop.FocusWindow))
				r.Post("/minimize", a.windowAction(a.desktop.MinimizeWindow))
				r.Post("/maximize", a.windowAction(a.desktop.MaximizeWindow))
				r.Post("/drag", a.beginDrag)
				r.Post("/content-height", a.contentHeight)

				r.Get("/form", a.getForm)
				r.Put("/form/fields/{field}", a.setField)
				r.Post("/form/calculate", a.formAction(a.desktop.Calculate))
				r.Post("/form/reset", a.formAction(a.desktop.ResetForm))
			})
		})

		r.Route("/pointer", func(r chi.Router) {
			r.Post("/move", a.pointerMove)
			r.Post("/release", a.pointerAction(a.desktop.PointerRelease))
			r.Post("/blur", a.pointerAction(a.desktop.Blur))
		})

		r.Route("/apps", func(r chi.Router) {
			r.Get("/", a.listApps)
			r.Post("/", a.createApp)
			r.Post("/{id}/open", a.openApp)
			r.Delete("/{id}", a.deleteApp)
		})

		r.Post("/assistant", a.assist)
	})

	if cfg.StaticDir != "" {
		r.NotFound(NewStaticFileHandler(cfg.StaticDir).ServeHTTP)
	}
	return r
}

// writeSnapshot answers window and pointer routes. Unknown window ids
// are not errors; the client re-renders from the snapshot.
func (a *api) writeSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := a.desktop.Snapshot(r.Context())
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) internalError(w http.ResponseWriter, err error) {
	a.log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

func (a *api) getDesktop(w http.ResponseWriter, r *http.Request) {
	a.writeSnapshot(w, r)
}

type viewportRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (a *api) setViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_VIEWPORT", "width and height must be positive")
		return
	}
	a.desktop.SetViewport(req.Width, req.Height)
	a.writeSnapshot(w, r)
}

type openWindowRequest struct {
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
	AppID string `json:"app_id,omitempty"`
}

func (a *api) openWindow(w http.ResponseWriter, r *http.Request) {
	var req openWindowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		win wm.Window
		err error
	)
	if req.Kind == wm.ContentDynamic.String() || req.AppID != "" {
		win, err = a.desktop.OpenApp(r.Context(), req.AppID)
	} else {
		win, err = a.desktop.OpenBuiltin(req.Kind, req.Title)
	}
	if err != nil {
		a.openError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, win)
}

func (a *api) openError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, desktop.ErrUnknownBuiltin):
		writeError(w, http.StatusNotFound, "UNKNOWN_APP", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		a.internalError(w, err)
	}
}

func (a *api) closeWindow(w http.ResponseWriter, r *http.Request) {
	a.desktop.CloseWindow(chi.URLParam(r, "id"))
	a.writeSnapshot(w, r)
}

func (a *api) windowAction(fn func(id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(chi.URLParam(r, "id"))
		a.writeSnapshot(w, r)
	}
}

type dragRequest struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
}

func (a *api) beginDrag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dir, err := wm.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DIRECTION", err.Error())
		return
	}
	a.desktop.BeginDrag(chi.URLParam(r, "id"), wm.Point{X: req.X, Y: req.Y}, dir)
	a.writeSnapshot(w, r)
}

func (a *api) pointerMove(w http.ResponseWriter, r *http.Request) {
	var p wm.Point
	if !decodeJSON(w, r, &p) {
		return
	}
	a.desktop.PointerMove(p)
	a.writeSnapshot(w, r)
}

func (a *api) pointerAction(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		a.writeSnapshot(w, r)
	}
}

type contentHeightRequest struct {
	Height int `json:"height"`
}

func (a *api) contentHeight(w http.ResponseWriter, r *http.Request) {
	var req contentHeightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.desktop.ApplyAutoHeight(chi.URLParam(r, "id"), req.Height)
	a.writeSnapshot(w, r)
}

func (a *api) formError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, desktop.ErrNoForm):
		writeError(w, http.StatusNotFound, "NO_FORM", err.Error())
	case errors.Is(err, form.ErrUnknownField):
		writeError(w, http.StatusBadRequest, "UNKNOWN_FIELD", err.Error())
	default:
		a.internalError(w, err)
	}
}

func (a *api) getForm(w http.ResponseWriter, r *http.Request) {
	view, err := a.desktop.FormView(chi.URLParam(r, "id"))
	if err != nil {
		a.formError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type fieldRequest struct {
	Value string `json:"value"`
}

func (a *api) setField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := a.desktop.SetField(chi.URLParam(r, "id"), chi.URLParam(r, "field"), req.Value)
	if err != nil {
		a.formError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) formAction(fn func(id string) (form.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := fn(chi.URLParam(r, "id"))
		if err != nil {
			a.formError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (a *api) listApps(w http.ResponseWriter, r *http.Request) {
	apps, err := a.desktop.Apps(r.Context())
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (a *api) createApp(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	app, err := a.desktop.CreateApp(r.Context(), data)
	switch {
	case errors.Is(err, appschema.ErrInvalidSchema), errors.Is(err, appschema.ErrDuplicateField):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_SCHEMA", err.Error())
	case err != nil:
		a.internalError(w, err)
	default:
		writeJSON(w, http.StatusCreated, app)
	}
}

func (a *api) openApp(w http.ResponseWriter, r *http.Request) {
	win, err := a.desktop.OpenApp(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.openError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, win)
}

func (a *api) deleteApp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	closed, err := a.desktop.DeleteApp(r.Context(), id)
	if err != nil {
		a.openError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desktop.AppDeleted{ID: id, ClosedWindows: closed})
}

type assistRequest struct {
	Message string     `json:"message"`
	History []llm.Turn `json:"history"`
}

func (a *api) assist(w http.ResponseWriter, r *http.Request) {
	if a.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "ASSISTANT_DISABLED", "no language model is configured")
		return
	}
	var req assistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := a.assistant.Process(r.Context(), req.Message, req.History)
	if errors.Is(err, llm.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", err.Error())
		return
	}
	if err != nil {
		a.internalError(w, err)
		return
	}

	res, err := a.desktop.Apply(r.Context(), reply)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
