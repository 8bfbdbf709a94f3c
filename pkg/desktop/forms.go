package desktop

import (
	"webos/pkg/form"
	"webos/pkg/protocol"
)

// FormUpdated is the payload of a form.updated event.
type FormUpdated struct {
	WindowID string    `json:"window_id"`
	View     form.View `json:"view"`
}

// Form returns the form hosted by a window.
func (d *Desktop) Form(windowID string) (*form.Instance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	inst, ok := d.forms[windowID]
	if !ok {
		return nil, ErrNoForm
	}
	return inst, nil
}

// FormView renders the form of a window.
func (d *Desktop) FormView(windowID string) (form.View, error) {
	inst, err := d.Form(windowID)
	if err != nil {
		return form.View{}, err
	}
	return inst.View(), nil
}

// SetField stores user input for one field.
func (d *Desktop) SetField(windowID, fieldID, raw string) (form.View, error) {
	return d.updateForm(windowID, func(inst *form.Instance) error {
		return inst.SetValue(fieldID, raw)
	})
}

// Calculate validates and evaluates the form of a window.
func (d *Desktop) Calculate(windowID string) (form.View, error) {
	return d.updateForm(windowID, func(inst *form.Instance) error {
		inst.Calculate()
		return nil
	})
}

// ResetForm clears the form of a window.
func (d *Desktop) ResetForm(windowID string) (form.View, error) {
	return d.updateForm(windowID, func(inst *form.Instance) error {
		inst.Reset()
		return nil
	})
}

func (d *Desktop) updateForm(windowID string, fn func(*form.Instance) error) (form.View, error) {
	inst, err := d.Form(windowID)
	if err != nil {
		return form.View{}, err
	}
	if err := fn(inst); err != nil {
		return form.View{}, err
	}
	view := inst.View()
	d.publish(protocol.OpcodeFormUpdated, FormUpdated{WindowID: windowID, View: view})
	return view, nil
}
