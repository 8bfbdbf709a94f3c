package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webos/pkg/catalog"
	"webos/pkg/desktop"
	"webos/pkg/form"
	"webos/pkg/llm"
	"webos/pkg/wm"
)

const bmiSchema = `{
	"title": "BMI Calculator",
	"description": "Body mass index from height and weight",
	"components": [
		{"type": "number", "id": "height", "label": "Height (cm)", "required": true},
		{"type": "number", "id": "weight", "label": "Weight (kg)", "required": true}
	],
	"calculations": [
		{"type": "formula", "expression": "weight / ((height / 100) * (height / 100))", "outputs": ["BMI"]}
	]
}`

type stubGenerator struct {
	reply string
}

func (s stubGenerator) Generate(context.Context, llm.Request) (string, error) {
	return s.reply, nil
}

func newTestDesktop(t *testing.T) *desktop.Desktop {
	t.Helper()
	n := 0
	d, err := desktop.New(catalog.NewMemoryStore(), desktop.Config{
		WM: wm.Config{
			Rand: rand.New(rand.NewPCG(1, 2)),
			NewID: func() string {
				n++
				return fmt.Sprintf("win-%d", n)
			},
		},
	})
	require.NoError(t, err)
	return d
}

func newTestAPI(t *testing.T, assistant *llm.Assistant) (http.Handler, *desktop.Desktop) {
	t.Helper()
	d := newTestDesktop(t)
	return NewRouter(RouterConfig{Desktop: d, Assistant: assistant}), d
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["code"]
}

func TestAPI_Desktop(t *testing.T) {
	h, _ := newTestAPI(t, nil)

	w := do(t, h, http.MethodGet, "/api/v1/desktop", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[desktop.Snapshot](t, w)
	assert.Empty(t, snap.Windows)
	assert.Len(t, snap.Builtins, len(desktop.Builtins))
	assert.Equal(t, 1920, snap.Viewport.Width)

	w = do(t, h, http.MethodPut, "/api/v1/viewport", `{"width":1280,"height":720}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[desktop.Snapshot](t, w)
	assert.Equal(t, desktop.Viewport{Width: 1280, Height: 720}, snap.Viewport)

	w = do(t, h, http.MethodPut, "/api/v1/viewport", `{"width":0,"height":720}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_VIEWPORT", errorCode(t, w))

	w = do(t, h, http.MethodPut, "/api/v1/viewport", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_BODY", errorCode(t, w))
}

func TestAPI_Health(t *testing.T) {
	h, _ := newTestAPI(t, nil)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_OpenBuiltinWindow(t *testing.T) {
	h, d := newTestAPI(t, nil)

	w := do(t, h, http.MethodPost, "/api/v1/windows", `{"kind":"calculator"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	win := decode[wm.Window](t, w)
	assert.Equal(t, "win-1", win.ID)
	assert.Equal(t, "Calculator", win.Title)
	assert.Len(t, d.Windows(), 1)

	w = do(t, h, http.MethodPost, "/api/v1/windows", `{"kind":"minesweeper"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_APP", errorCode(t, w))
}

func TestAPI_WindowActions(t *testing.T) {
	h, d := newTestAPI(t, nil)

	w := do(t, h, http.MethodPost, "/api/v1/windows", `{"kind":"browser"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	win := decode[wm.Window](t, w)

	w = do(t, h, http.MethodPost, "/api/v1/windows/"+win.ID+"/maximize", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[desktop.Snapshot](t, w)
	require.Len(t, snap.Windows, 1)
	assert.True(t, snap.Windows[0].Maximized)

	w = do(t, h, http.MethodPost, "/api/v1/windows/"+win.ID+"/maximize", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, win.Frame, decode[desktop.Snapshot](t, w).Windows[0].Frame)

	w = do(t, h, http.MethodPost, "/api/v1/windows/"+win.ID+"/minimize", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[desktop.Snapshot](t, w).Windows[0].Minimized)

	w = do(t, h, http.MethodPost, "/api/v1/windows/"+win.ID+"/focus", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[desktop.Snapshot](t, w).Windows[0].Minimized)

	// Unknown ids are ignored.
	w = do(t, h, http.MethodPost, "/api/v1/windows/missing/focus", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodDelete, "/api/v1/windows/"+win.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[desktop.Snapshot](t, w).Windows)
	assert.Empty(t, d.Windows())
}

func TestAPI_Drag(t *testing.T) {
	h, d := newTestAPI(t, nil)

	w := do(t, h, http.MethodPost, "/api/v1/windows", `{"kind":"fileexplorer"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	win := decode[wm.Window](t, w)

	w = do(t, h, http.MethodPost, "/api/v1/windows/"+win.ID+"/drag", `{"x":10,"y":10,"direction":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DIRECTION", errorCode(t, w))

	w = do(t, h, http.MethodPost, "/api/v1/windows/"+win.ID+"/drag", `{"x":10,"y":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	_, dragging := d.Dragging()
	assert.True(t, dragging)

	w = do(t, h, http.MethodPost, "/api/v1/pointer/move", `{"x":30,"y":50}`)
	require.Equal(t, http.StatusOK, w.Code)
	moved := decode[desktop.Snapshot](t, w).Windows[0]
	assert.Equal(t, win.Frame.X+20, moved.Frame.X)
	assert.Equal(t, win.Frame.Y+40, moved.Frame.Y)

	w = do(t, h, http.MethodPost, "/api/v1/pointer/release", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, dragging = d.Dragging()
	assert.False(t, dragging)

	w = do(t, h, http.MethodPost, "/api/v1/pointer/blur", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_Apps(t *testing.T) {
	h, d := newTestAPI(t, nil)

	w := do(t, h, http.MethodPost, "/api/v1/apps", `{"title":"broken"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_SCHEMA", errorCode(t, w))

	w = do(t, h, http.MethodPost, "/api/v1/apps", bmiSchema)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	app := decode[catalog.App](t, w)
	assert.Equal(t, "BMI Calculator", app.Title)

	w = do(t, h, http.MethodGet, "/api/v1/apps", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]catalog.App](t, w), 1)

	w = do(t, h, http.MethodPost, "/api/v1/apps/"+app.ID+"/open", "")
	require.Equal(t, http.StatusCreated, w.Code)
	win := decode[wm.Window](t, w)
	assert.Equal(t, app.ID, win.Content.AppID)

	w = do(t, h, http.MethodPost, "/api/v1/windows", fmt.Sprintf(`{"kind":"dynamic","app_id":%q}`, app.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodDelete, "/api/v1/apps/"+app.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decode[desktop.AppDeleted](t, w)
	assert.Equal(t, app.ID, deleted.ID)
	assert.Empty(t, deleted.ClosedWindows)
	assert.Len(t, d.Windows(), 2)

	w = do(t, h, http.MethodDelete, "/api/v1/apps/"+app.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))

	w = do(t, h, http.MethodPost, "/api/v1/apps/"+app.ID+"/open", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Form(t *testing.T) {
	h, _ := newTestAPI(t, nil)

	w := do(t, h, http.MethodPost, "/api/v1/apps", bmiSchema)
	require.Equal(t, http.StatusCreated, w.Code)
	app := decode[catalog.App](t, w)

	w = do(t, h, http.MethodPost, "/api/v1/apps/"+app.ID+"/open", "")
	require.Equal(t, http.StatusCreated, w.Code)
	win := decode[wm.Window](t, w)
	base := "/api/v1/windows/" + win.ID + "/form"

	w = do(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[form.View](t, w)
	assert.Len(t, view.Fields, 2)

	w = do(t, h, http.MethodPut, base+"/fields/height", `{"value":"170"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodPut, base+"/fields/weight", `{"value":"70"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPut, base+"/fields/shoe_size", `{"value":"42"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_FIELD", errorCode(t, w))

	w = do(t, h, http.MethodPost, base+"/calculate", "")
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[form.View](t, w)
	require.Len(t, view.Results, 1)
	assert.Equal(t, "BMI", view.Results[0].ID)
	bmi, ok := view.Results[0].Value.Float()
	require.True(t, ok)
	assert.InDelta(t, 24.22, bmi, 0.01)

	w = do(t, h, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[form.View](t, w).Fields[0].Value)

	w = do(t, h, http.MethodGet, "/api/v1/windows/missing/form", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_FORM", errorCode(t, w))
}

func TestAPI_AssistantDisabled(t *testing.T) {
	h, _ := newTestAPI(t, nil)

	w := do(t, h, http.MethodPost, "/api/v1/assistant", `{"message":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ASSISTANT_DISABLED", errorCode(t, w))
}

func TestAPI_Assistant(t *testing.T) {
	reply := fmt.Sprintf(`{"action":"create_app","appSchema":%s,"message":"Here is your calculator."}`, bmiSchema)
	assistant, err := llm.NewAssistant(stubGenerator{reply: reply})
	require.NoError(t, err)
	h, d := newTestAPI(t, assistant)

	w := do(t, h, http.MethodPost, "/api/v1/assistant", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_MESSAGE", errorCode(t, w))

	w = do(t, h, http.MethodPost, "/api/v1/assistant", `{"message":"I need a BMI calculator","history":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[desktop.AssistResult](t, w)
	assert.Equal(t, llm.ActionCreateApp, res.Reply.Action)
	require.NotNil(t, res.App)
	require.NotNil(t, res.Window)
	assert.Equal(t, res.App.ID, res.Window.Content.AppID)
	assert.Len(t, d.Windows(), 1)
}

func TestAPI_StaticFallback(t *testing.T) {
	dir := writeStatic(t)
	h := NewRouter(RouterConfig{Desktop: newTestDesktop(t), StaticDir: dir})

	w := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>WebOS</html>", w.Body.String())

	w = do(t, h, http.MethodGet, "/missing.css", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
