package wm

import "fmt"

// WindowState represents the current display state of a window.
type WindowState int

const (
	// WindowStateNormal indicates the window is in its normal/regular state.
	WindowStateNormal WindowState = iota
	// WindowStateMinimized indicates the window is minimized (hidden from view).
	WindowStateMinimized
	// WindowStateMaximized indicates the window covers the viewport above the taskbar.
	WindowStateMaximized
)

// String returns a string representation of the window state.
func (s WindowState) String() string {
	switch s {
	case WindowStateNormal:
		return "normal"
	case WindowStateMinimized:
		return "minimized"
	case WindowStateMaximized:
		return "maximized"
	default:
		return "unknown"
	}
}

// ContentKind tells whether a window hosts a built-in or a generated application.
type ContentKind int

const (
	// ContentBuiltin is a fixed application identified by a tag such as "calculator".
	ContentBuiltin ContentKind = iota
	// ContentDynamic is an application generated from an AppSchema.
	ContentDynamic
)

// String returns a string representation of the content kind.
func (k ContentKind) String() string {
	switch k {
	case ContentBuiltin:
		return "builtin"
	case ContentDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// MarshalText encodes the content kind as its string form.
func (k ContentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "builtin" or "dynamic".
func (k *ContentKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "builtin":
		*k = ContentBuiltin
	case "dynamic":
		*k = ContentDynamic
	default:
		return fmt.Errorf("unknown content kind %q", text)
	}
	return nil
}

// Content is what a window displays: a built-in tag or a dynamic app id.
type Content struct {
	Kind  ContentKind `json:"kind"`
	App   string      `json:"app,omitempty"`
	AppID string      `json:"app_id,omitempty"`
}

// BuiltinContent returns content for the built-in application tag.
func BuiltinContent(tag string) Content {
	return Content{Kind: ContentBuiltin, App: tag}
}

// DynamicContent returns content bound to the generated application appID.
func DynamicContent(appID string) Content {
	return Content{Kind: ContentDynamic, AppID: appID}
}

// IsDynamic reports whether the content is a generated application.
func (c Content) IsDynamic() bool {
	return c.Kind == ContentDynamic
}

// Point is a pointer position in viewport coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Frame represents the position and dimensions of a window.
type Frame struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains checks if a point is within the frame.
func (f Frame) Contains(x, y int) bool {
	return x >= f.X && x <= f.X+f.Width &&
		y >= f.Y && y <= f.Y+f.Height
}

// Translate returns the frame moved by delta.
func (f Frame) Translate(delta Point) Frame {
	f.X += delta.X
	f.Y += delta.Y
	return f
}

// AutoHeight bounds a window whose height follows its content.
type AutoHeight struct {
	MinHeight int `json:"min_height"`
	MaxHeight int `json:"max_height"`
}

// Clamp limits h to the policy bounds.
func (a AutoHeight) Clamp(h int) int {
	if h < a.MinHeight {
		h = a.MinHeight
	}
	if a.MaxHeight > 0 && h > a.MaxHeight {
		h = a.MaxHeight
	}
	return h
}

// Window represents a window in the window manager.
type Window struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   Content     `json:"content"`
	Frame     Frame       `json:"frame"`
	Minimized bool        `json:"minimized"`
	Maximized bool        `json:"maximized"`
	Z         int         `json:"z"`
	AutoSize  *AutoHeight `json:"auto_height,omitempty"`

	// restore is the frame captured when the window was maximized.
	restore *Frame
}

// State folds the flags into a single display state. Minimized wins over
// maximized because a minimized window is not shown at all.
func (w *Window) State() WindowState {
	switch {
	case w.Minimized:
		return WindowStateMinimized
	case w.Maximized:
		return WindowStateMaximized
	default:
		return WindowStateNormal
	}
}

// Resizable reports whether resize handles are offered. Maximized windows
// suppress them.
func (w *Window) Resizable() bool {
	return !w.Maximized
}

// clone returns a copy that shares no mutable state with w.
func (w *Window) clone() Window {
	c := *w
	if w.AutoSize != nil {
		a := *w.AutoSize
		c.AutoSize = &a
	}
	if w.restore != nil {
		r := *w.restore
		c.restore = &r
	}
	return c
}
