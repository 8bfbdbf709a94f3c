package wm

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Manager owns the collection of open windows, their z-order, and the
// single pointer drag session.
type Manager struct {
	mu       sync.Mutex
	cfg      Config
	profiles *Profiles
	rand     *rand.Rand
	newID    func() string

	// windows keeps open order; z-order lives on each window.
	windows []*Window
	nextZ   int
	drag    *dragSession

	viewportWidth  int
	viewportHeight int
}

// Config holds configuration for the window manager.
type Config struct {
	ViewportWidth  int
	ViewportHeight int
	// TaskbarHeight is subtracted from the viewport when maximizing.
	TaskbarHeight int
	// ChromeHeight is the title bar height added to measured content height.
	ChromeHeight int
	MinWidth     int
	MinHeight    int
	// BaseZ is the first z-order rank handed out.
	BaseZ int
	// DynamicZOffset lifts generated applications above stale built-ins.
	DynamicZOffset int
	// PlacementMargin keeps randomized placement away from viewport edges.
	PlacementMargin int

	Profiles *Profiles
	Rand     *rand.Rand
	NewID    func() string
}

// DefaultConfig returns the geometry constants of the WebOS desktop.
func DefaultConfig() Config {
	return Config{
		ViewportWidth:   1920,
		ViewportHeight:  1080,
		TaskbarHeight:   80,
		ChromeHeight:    40,
		MinWidth:        300,
		MinHeight:       200,
		BaseZ:           1000,
		DynamicZOffset:  1000,
		PlacementMargin: 50,
	}
}

// NewManager creates a new window manager with the given configuration.
// Zero-valued fields fall back to DefaultConfig.
func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = def.ViewportWidth
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = def.ViewportHeight
	}
	if cfg.TaskbarHeight <= 0 {
		cfg.TaskbarHeight = def.TaskbarHeight
	}
	if cfg.ChromeHeight <= 0 {
		cfg.ChromeHeight = def.ChromeHeight
	}
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = def.MinWidth
	}
	if cfg.MinHeight <= 0 {
		cfg.MinHeight = def.MinHeight
	}
	if cfg.BaseZ <= 0 {
		cfg.BaseZ = def.BaseZ
	}
	if cfg.DynamicZOffset < 0 {
		cfg.DynamicZOffset = 0
	}
	if cfg.PlacementMargin <= 0 {
		cfg.PlacementMargin = def.PlacementMargin
	}

	profiles := cfg.Profiles
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	r := cfg.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Manager{
		cfg:            cfg,
		profiles:       profiles,
		rand:           r,
		newID:          newID,
		nextZ:          cfg.BaseZ,
		viewportWidth:  cfg.ViewportWidth,
		viewportHeight: cfg.ViewportHeight,
	}
}

// OpenWindow creates a window for content and returns a snapshot of it.
// Geometry comes from the dimension profile named by profileKey, and the
// position is randomized inside the viewport margins.
func (m *Manager) OpenWindow(content Content, title, profileKey string) Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile := m.profiles.Fallback()
	if !content.IsDynamic() {
		profile = m.profiles.Lookup(profileKey)
	}

	z := m.nextZ
	m.nextZ++
	if content.IsDynamic() {
		z += m.cfg.DynamicZOffset
	}
	if top, ok := m.topZ(); ok && z <= top {
		z = top + 1
	}

	win := &Window{
		ID:      m.newID(),
		Title:   title,
		Content: content,
		Frame: Frame{
			X:      m.place(m.viewportWidth, profile.Width),
			Y:      m.place(m.viewportHeight, profile.Height),
			Width:  profile.Width,
			Height: profile.Height,
		},
		Z: z,
	}
	if profile.AutoHeight {
		win.AutoSize = &AutoHeight{MinHeight: profile.MinHeight, MaxHeight: profile.MaxHeight}
	}

	m.windows = append(m.windows, win)
	return win.clone()
}

// place picks a coordinate in [margin, extent-size-margin], clamped to be
// non-negative when the window does not fit.
func (m *Manager) place(extent, size int) int {
	lo := m.cfg.PlacementMargin
	hi := extent - size - m.cfg.PlacementMargin
	if hi < lo {
		return max(hi, 0)
	}
	return lo + m.rand.IntN(hi-lo+1)
}

// CloseWindow removes a window. Unknown ids are ignored.
func (m *Manager) CloseWindow(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, win := range m.windows {
		if win.ID == id {
			m.windows = append(m.windows[:i], m.windows[i+1:]...)
			break
		}
	}
	if m.drag != nil && m.drag.windowID == id {
		m.drag = nil
	}
}

// CloseWhere removes every window matching pred and returns their ids.
func (m *Manager) CloseWhere(pred func(Window) bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var closed []string
	kept := m.windows[:0]
	for _, win := range m.windows {
		if pred(win.clone()) {
			closed = append(closed, win.ID)
			if m.drag != nil && m.drag.windowID == win.ID {
				m.drag = nil
			}
			continue
		}
		kept = append(kept, win)
	}
	m.windows = kept
	return closed
}

// Window returns a snapshot of the window with the given id.
func (m *Manager) Window(id string) (Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win := m.find(id)
	if win == nil {
		return Window{}, false
	}
	return win.clone(), true
}

// Windows returns snapshots of all windows ordered by ascending z.
func (m *Manager) Windows() []Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Window, 0, len(m.windows))
	for _, win := range m.windows {
		out = append(out, win.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// Focused returns the window holding the highest z-order rank.
func (m *Manager) Focused() (Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var top *Window
	for _, win := range m.windows {
		if top == nil || win.Z > top.Z {
			top = win
		}
	}
	if top == nil {
		return Window{}, false
	}
	return top.clone(), true
}

// FocusWindow raises a window above all others and un-minimizes it.
func (m *Manager) FocusWindow(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focus(id)
}

func (m *Manager) focus(id string) {
	win := m.find(id)
	if win == nil {
		return
	}
	top, _ := m.topZ()
	win.Z = top + 1
	win.Minimized = false
}

// MinimizeWindow hides a window without changing its z-order rank.
func (m *Manager) MinimizeWindow(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if win := m.find(id); win != nil {
		win.Minimized = true
	}
}

// MaximizeWindow toggles the maximized state. Entering it snapshots the
// current frame and fills the viewport above the taskbar; leaving it
// restores the snapshot.
func (m *Manager) MaximizeWindow(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win := m.find(id)
	if win == nil {
		return
	}

	if win.Maximized {
		if win.restore != nil {
			win.Frame = *win.restore
		}
		win.restore = nil
		win.Maximized = false
		return
	}

	saved := win.Frame
	win.restore = &saved
	win.Frame = Frame{
		X:      0,
		Y:      0,
		Width:  m.viewportWidth,
		Height: max(m.viewportHeight-m.cfg.TaskbarHeight, 0),
	}
	win.Maximized = true
	if m.drag != nil && m.drag.windowID == id && m.drag.direction.IsResize() {
		m.drag = nil
	}
}

// ApplyAutoHeight sets the height of an auto-height window from its content's
// measured height plus the title bar. Fixed-size and maximized windows are
// left alone, and any drag session is untouched.
func (m *Manager) ApplyAutoHeight(id string, measuredContentHeight int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win := m.find(id)
	if win == nil || win.AutoSize == nil || win.Maximized {
		return
	}
	win.Frame.Height = win.AutoSize.Clamp(measuredContentHeight + m.cfg.ChromeHeight)
}

// SetViewport records the browser viewport size used for placement and
// maximizing.
func (m *Manager) SetViewport(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if width > 0 {
		m.viewportWidth = width
	}
	if height > 0 {
		m.viewportHeight = height
	}
}

// Viewport returns the current viewport dimensions.
func (m *Manager) Viewport() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewportWidth, m.viewportHeight
}

// Count returns the number of open windows.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

func (m *Manager) find(id string) *Window {
	for _, win := range m.windows {
		if win.ID == id {
			return win
		}
	}
	return nil
}

func (m *Manager) topZ() (int, bool) {
	if len(m.windows) == 0 {
		return 0, false
	}
	top := m.windows[0].Z
	for _, win := range m.windows[1:] {
		if win.Z > top {
			top = win.Z
		}
	}
	return top, true
}
