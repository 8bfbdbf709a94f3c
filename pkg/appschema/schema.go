// Package appschema defines the declarative description of a generated
// application: its input fields, its calculation rules and its layout. A
// schema arriving from outside the process is checked by Validator before
// any other package trusts it.
package appschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidSchema is returned when a schema fails the structural gate.
	ErrInvalidSchema = errors.New("invalid app schema")
	// ErrDuplicateField is returned when two fields share an id.
	ErrDuplicateField = errors.New("duplicate field id")
)

// FieldKind is the input control a field renders as.
type FieldKind string

// Field kinds accepted by the validator.
const (
	FieldInput    FieldKind = "input"
	FieldNumber   FieldKind = "number"
	FieldSelect   FieldKind = "select"
	FieldTextarea FieldKind = "textarea"
)

// RuleKind selects the evaluation family of a calculation rule.
type RuleKind string

// Rule kinds. Generated schemas may only use RuleFormula and
// RuleConditional; RuleLookup is available to hand-written schemas.
const (
	RuleFormula     RuleKind = "formula"
	RuleConditional RuleKind = "conditional"
	RuleLookup      RuleKind = "lookup"
)

// Layout is the arrangement of fields in the rendered form.
type Layout string

// Layouts.
const (
	LayoutSingleColumn Layout = "single-column"
	LayoutTwoColumn    Layout = "two-column"
	LayoutGrid         Layout = "grid"
)

// OrDefault returns l, or LayoutSingleColumn for unknown or empty layouts.
func (l Layout) OrDefault() Layout {
	switch l {
	case LayoutSingleColumn, LayoutTwoColumn, LayoutGrid:
		return l
	}
	return LayoutSingleColumn
}

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts either a plain string, used as both value and
// label, or an object with value and label.
func (o *Option) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Value, o.Label = s, s
		return nil
	}

	var obj struct {
		Value json.RawMessage `json:"value"`
		Label string          `json:"label"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("option: %w", err)
	}
	value, err := scalarString(obj.Value)
	if err != nil {
		return fmt.Errorf("option value: %w", err)
	}
	o.Value, o.Label = value, obj.Label
	return nil
}

// scalarString renders a JSON string or number as text.
func scalarString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return strconv.FormatFloat(n, 'f', -1, 64), nil
}

// Bounds are the optional numeric limits and pattern of a field.
type Bounds struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
}

// Field describes one input of the form.
type Field struct {
	Type        FieldKind `json:"type"`
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Validation  *Bounds   `json:"validation,omitempty"`
}

// Rule is one calculation: an expression and the outputs it populates.
type Rule struct {
	Type       RuleKind `json:"type"`
	Expression string   `json:"expression"`
	Outputs    []string `json:"outputs"`
}

// AppSchema is the complete description of a generated application.
type AppSchema struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Components   []Field `json:"components"`
	Calculations []Rule  `json:"calculations"`
	Layout       Layout  `json:"layout,omitempty"`
}

// Field returns the field with the given id.
func (s *AppSchema) Field(id string) (Field, bool) {
	for _, f := range s.Components {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Outputs returns every output id declared by any rule, in declaration
// order and without repeats.
func (s *AppSchema) Outputs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.Calculations {
		for _, id := range r.Outputs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// checkFieldIDs enforces that field ids are unique within the schema.
func (s *AppSchema) checkFieldIDs() error {
	seen := make(map[string]bool, len(s.Components))
	for _, f := range s.Components {
		if seen[f.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateField, f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}
