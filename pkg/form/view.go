package form

import "webos/pkg/appschema"

// SelectPlaceholder is the label of the implied empty choice of a select.
const SelectPlaceholder = "Select..."

// FieldView is a field ready to render.
type FieldView struct {
	ID          string              `json:"id"`
	Type        appschema.FieldKind `json:"type"`
	Label       string              `json:"label"`
	Placeholder string              `json:"placeholder,omitempty"`
	Required    bool                `json:"required"`
	Value       string              `json:"value"`
	Error       string              `json:"error,omitempty"`
	Options     []appschema.Option  `json:"options,omitempty"`
	Min         *float64            `json:"min,omitempty"`
	Max         *float64            `json:"max,omitempty"`
}

// ResultView is one computed output.
type ResultView struct {
	ID    string          `json:"id"`
	Value appschema.Value `json:"value"`
}

// View is the render model of a form.
type View struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Layout      appschema.Layout `json:"layout"`
	Fields      []FieldView      `json:"fields"`
	Results     []ResultView     `json:"results"`
	Error       string           `json:"error,omitempty"`
}

// View renders the current state. Select fields list the placeholder
// choice first, and results follow the declared output order.
func (i *Instance) View() View {
	i.mu.Lock()
	defer i.mu.Unlock()

	v := View{
		Title:       i.schema.Title,
		Description: i.schema.Description,
		Layout:      i.schema.Layout.OrDefault(),
		Fields:      make([]FieldView, 0, len(i.schema.Components)),
	}

	for _, f := range i.schema.Components {
		fv := FieldView{
			ID:          f.ID,
			Type:        f.Type,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Required:    f.Required,
			Value:       i.values[f.ID].String(),
			Error:       i.errors[f.ID],
		}
		if f.Validation != nil {
			fv.Min, fv.Max = f.Validation.Min, f.Validation.Max
		}
		if f.Type == appschema.FieldSelect {
			fv.Options = append([]appschema.Option{{Value: "", Label: SelectPlaceholder}}, f.Options...)
		}
		v.Fields = append(v.Fields, fv)
	}

	for _, id := range i.schema.Outputs() {
		if r, ok := i.results[id]; ok {
			v.Results = append(v.Results, ResultView{ID: id, Value: r})
		}
	}
	if e, ok := i.results[ErrorKey]; ok {
		v.Error = e.String()
	}
	return v
}
