package appschema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bmiSchema = `{
  "title": "BMI Calculator",
  "description": "Computes body mass index",
  "layout": "single-column",
  "components": [
    {"type": "number", "id": "height", "label": "Height (cm)", "required": true, "validation": {"min": 50, "max": 250}},
    {"type": "number", "id": "weight", "label": "Weight (kg)", "required": true, "validation": {"min": 20, "max": 300}},
    {"type": "select", "id": "unit", "label": "Unit", "options": ["metric", {"value": "imperial", "label": "Imperial"}]}
  ],
  "calculations": [
    {"type": "formula", "expression": "weight / ((height / 100) * (height / 100))", "outputs": ["BMI"]},
    {"type": "conditional", "expression": "BMI_category", "outputs": ["bmiStatus"]}
  ],
  "extra": "ignored"
}`

func mutate(t *testing.T, edit func(m map[string]any)) []byte {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(bmiSchema), &m))
	edit(m)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return data
}

func component(m map[string]any, i int) map[string]any {
	return m["components"].([]any)[i].(map[string]any)
}

func calculation(m map[string]any, i int) map[string]any {
	return m["calculations"].([]any)[i].(map[string]any)
}

func TestValidateAcceptsWellFormedSchema(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.NoError(t, v.Validate([]byte(bmiSchema)))
}

func TestValidateRejects(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name string
		edit func(m map[string]any)
	}{
		{"missing title", func(m map[string]any) { delete(m, "title") }},
		{"empty description", func(m map[string]any) { m["description"] = "" }},
		{"missing calculations", func(m map[string]any) { delete(m, "calculations") }},
		{"empty components", func(m map[string]any) { m["components"] = []any{} }},
		{"components not a list", func(m map[string]any) { m["components"] = "height" }},
		{"component without id", func(m map[string]any) { delete(component(m, 0), "id") }},
		{"component id with hyphen", func(m map[string]any) { component(m, 0)["id"] = "total-price" }},
		{"component id starting with digit", func(m map[string]any) { component(m, 0)["id"] = "2nd" }},
		{"component without label", func(m map[string]any) { component(m, 1)["label"] = "" }},
		{"unsupported component type", func(m map[string]any) { component(m, 0)["type"] = "button" }},
		{"select without options", func(m map[string]any) { delete(component(m, 2), "options") }},
		{"select with empty options", func(m map[string]any) { component(m, 2)["options"] = []any{} }},
		{"option object without label", func(m map[string]any) {
			component(m, 2)["options"] = []any{map[string]any{"value": "x"}}
		}},
		{"option object with empty value", func(m map[string]any) {
			component(m, 2)["options"] = []any{map[string]any{"value": "", "label": "X"}}
		}},
		{"option of wrong type", func(m map[string]any) { component(m, 2)["options"] = []any{true} }},
		{"lookup calculation", func(m map[string]any) { calculation(m, 0)["type"] = "lookup" }},
		{"calculation without expression", func(m map[string]any) { delete(calculation(m, 0), "expression") }},
		{"empty outputs", func(m map[string]any) { calculation(m, 1)["outputs"] = []any{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(mutate(t, tt.edit))
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	assert.False(t, Valid([]byte(`{"title": `)))
	assert.False(t, Valid([]byte(`null`)))
}

func TestOptionsOnlyCheckedForSelect(t *testing.T) {
	data := mutate(t, func(m map[string]any) {
		component(m, 0)["options"] = []any{true}
	})
	assert.True(t, Valid(data))
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(bmiSchema))
	require.NoError(t, err)

	assert.Equal(t, "BMI Calculator", s.Title)
	assert.Equal(t, LayoutSingleColumn, s.Layout.OrDefault())
	require.Len(t, s.Components, 3)

	height, ok := s.Field("height")
	require.True(t, ok)
	assert.Equal(t, FieldNumber, height.Type)
	assert.True(t, height.Required)
	require.NotNil(t, height.Validation)
	require.NotNil(t, height.Validation.Min)
	assert.Equal(t, 50.0, *height.Validation.Min)

	unit, _ := s.Field("unit")
	assert.Equal(t, []Option{
		{Value: "metric", Label: "metric"},
		{Value: "imperial", Label: "Imperial"},
	}, unit.Options)

	assert.Equal(t, []string{"BMI", "bmiStatus"}, s.Outputs())
}

func TestParseRejectsDuplicateFieldIDs(t *testing.T) {
	data := mutate(t, func(m map[string]any) {
		component(m, 1)["id"] = "height"
	})
	_, err := Parse(data)
	assert.ErrorIs(t, err, ErrInvalidSchema)
	assert.ErrorIs(t, err, ErrDuplicateField)
}

func TestOptionNumericValue(t *testing.T) {
	var o Option
	require.NoError(t, json.Unmarshal([]byte(`{"value": 2, "label": "Two"}`), &o))
	assert.Equal(t, Option{Value: "2", Label: "Two"}, o)
}

func TestLayoutOrDefault(t *testing.T) {
	assert.Equal(t, LayoutGrid, LayoutGrid.OrDefault())
	assert.Equal(t, LayoutSingleColumn, Layout("").OrDefault())
	assert.Equal(t, LayoutSingleColumn, Layout("masonry").OrDefault())
}

func TestParseValue(t *testing.T) {
	n := ParseValue(FieldNumber, " 170 ")
	assert.Equal(t, KindNumber, n.Kind())
	f, ok := n.Float()
	assert.True(t, ok)
	assert.Equal(t, 170.0, f)

	bad := ParseValue(FieldNumber, "tall")
	_, ok = bad.Float()
	assert.False(t, ok)
	assert.Equal(t, 0.0, bad.FloatOrZero())

	d := ParseValue(FieldInput, "1990-05-17")
	assert.Equal(t, KindDate, d.Kind())
	tm, ok := d.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), tm)

	e := ParseValue(FieldSelect, "celsius")
	assert.Equal(t, KindEnum, e.Kind())
	assert.Equal(t, "celsius", e.String())

	assert.True(t, ParseValue(FieldTextarea, "   ").IsEmpty())

	_, ok = Text("NaN").Float()
	assert.False(t, ok)
}

func TestValueJSON(t *testing.T) {
	out, err := json.Marshal(map[string]Value{
		"n": Number(5),
		"s": Text("24.2"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n": 5, "s": "24.2"}`, string(out))

	var back map[string]Value
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, KindNumber, back["n"].Kind())
	assert.Equal(t, KindText, back["s"].Kind())
}
