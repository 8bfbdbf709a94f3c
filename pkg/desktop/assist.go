package desktop

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webos/pkg/catalog"
	"webos/pkg/llm"
	"webos/pkg/wm"
)

// AddedNote is appended to the assistant message after an app is created.
const AddedNote = "\n\nThe app has been added to the desktop. Double-click its icon to open it again."

// AssistResult is an assistant reply plus what the desktop did with it.
type AssistResult struct {
	Reply  llm.Reply    `json:"reply"`
	App    *catalog.App `json:"app,omitempty"`
	Window *wm.Window   `json:"window,omitempty"`
}

// Apply carries out an assistant reply. A create_app reply adds the app
// to the catalog and opens it; an open_app reply opens the named built-in
// when it exists. Other replies are returned unchanged.
func (d *Desktop) Apply(ctx context.Context, reply llm.Reply) (AssistResult, error) {
	res := AssistResult{Reply: reply}

	switch reply.Action {
	case llm.ActionCreateApp:
		if reply.Schema == nil {
			return res, nil
		}
		app, err := d.AddApp(ctx, reply.Schema)
		if err != nil {
			return res, err
		}
		win := d.openForm(app)
		res.App, res.Window = &app, &win
		res.Reply.Message += AddedNote
	case llm.ActionOpenApp:
		win, err := d.OpenBuiltin(reply.AppType, "")
		if errors.Is(err, ErrUnknownBuiltin) {
			d.log.Debug("assistant named unknown app", zap.String("app", reply.AppType))
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res.Window = &win
	}
	return res, nil
}
