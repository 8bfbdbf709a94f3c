package wm

// dragSession captures the pointer and window geometry at pointer-down.
type dragSession struct {
	windowID   string
	start      Point
	startFrame Frame
	direction  Direction
}

// DragSession is a read-only view of the active drag.
type DragSession struct {
	WindowID   string    `json:"window_id"`
	Start      Point     `json:"start"`
	StartFrame Frame     `json:"start_frame"`
	Direction  Direction `json:"direction"`
}

// BeginDrag focuses the window and starts a move (DirectionNone) or a
// resize from the given edge or corner. Resizing a maximized window is
// refused because its handles are hidden; the window is still focused.
func (m *Manager) BeginDrag(id string, pointer Point, dir Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win := m.find(id)
	if win == nil {
		return
	}
	m.focus(id)
	if dir.IsResize() && !win.Resizable() {
		return
	}
	m.drag = &dragSession{
		windowID:   id,
		start:      pointer,
		startFrame: win.Frame,
		direction:  dir,
	}
}

// PointerMove applies the pointer delta since BeginDrag to the dragged
// window. It is a no-op when no drag is active.
func (m *Manager) PointerMove(pointer Point) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.drag == nil {
		return
	}
	delta := pointer.Sub(m.drag.start)
	for _, win := range m.windows {
		if win.ID != m.drag.windowID {
			continue
		}
		if m.drag.direction.IsResize() {
			win.Frame = resizeFrame(m.drag.startFrame, delta, m.drag.direction, m.cfg.MinWidth, m.cfg.MinHeight)
		} else {
			win.Frame = m.drag.startFrame.Translate(delta)
		}
	}
}

// PointerRelease ends the drag session, if any.
func (m *Manager) PointerRelease() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drag = nil
}

// Blur ends the drag session when the page loses focus and the matching
// pointer-up may never arrive.
func (m *Manager) Blur() {
	m.PointerRelease()
}

// Dragging returns the active drag session.
func (m *Manager) Dragging() (DragSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.drag == nil {
		return DragSession{}, false
	}
	return DragSession{
		WindowID:   m.drag.windowID,
		Start:      m.drag.start,
		StartFrame: m.drag.startFrame,
		Direction:  m.drag.direction,
	}, true
}

// resizeFrame moves the dragged edges by delta while the opposite edges stay
// put. Width and height never drop below the minimums; when they would, the
// dragged west or north edge stops at the minimum distance from its
// opposite edge.
func resizeFrame(start Frame, delta Point, dir Direction, minWidth, minHeight int) Frame {
	f := start

	switch {
	case dir.east():
		f.Width = max(minWidth, start.Width+delta.X)
	case dir.west():
		f.Width = max(minWidth, start.Width-delta.X)
		f.X = min(start.X+delta.X, start.X+start.Width-minWidth)
	}

	switch {
	case dir.south():
		f.Height = max(minHeight, start.Height+delta.Y)
	case dir.north():
		f.Height = max(minHeight, start.Height-delta.Y)
		f.Y = min(start.Y+delta.Y, start.Y+start.Height-minHeight)
	}

	return f
}
