/*
Package wm provides window management functionality for the WebOS desktop.

This package implements the backend window management capabilities, including:
  - Window creation with randomized placement and per-content dimension profiles
  - Focus and z-order tracking (the highest rank receives pointer focus)
  - Minimize, and maximize with geometry snapshot and restore
  - Pointer-driven move and eight-direction resize with minimum bounds
  - Auto-height windows that follow their content's measured height

The window manager coordinates with the frontend JavaScript implementation
to provide a complete multi-window GUI experience in the browser. Operations
that name an unknown window are silent no-ops: the browser only issues ids
it has rendered, and a stale id must never disturb the remaining windows.

Example usage:

	manager := wm.NewManager(wm.Config{ViewportWidth: 1920, ViewportHeight: 1080})
	win := manager.OpenWindow(wm.BuiltinContent("calculator"), "Calculator", "calculator")
	manager.BeginDrag(win.ID, wm.Point{X: 10, Y: 10}, wm.DirectionSE)
	manager.PointerMove(wm.Point{X: 60, Y: 40})
	manager.PointerRelease()
*/
package wm
