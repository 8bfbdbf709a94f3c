package appschema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

// Value kinds.
const (
	KindText ValueKind = iota
	KindNumber
	KindEnum
	KindDate
)

// String returns the name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindEnum:
		return "enum"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// dateLayouts are tried in order when parsing date-like input.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// Value is a field value or a computed result. It is parsed once when it
// enters the system: the raw text is kept alongside its numeric and date
// interpretations.
type Value struct {
	kind  ValueKind
	raw   string
	num   float64
	numOK bool
	date  time.Time
	dtOK  bool
}

// Text returns a free-text value.
func Text(s string) Value {
	v := Value{kind: KindText, raw: s}
	v.num, v.numOK = parseNumber(s)
	return v
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, raw: strconv.FormatFloat(f, 'f', -1, 64), num: f, numOK: true}
}

// Enum returns the value of a select field.
func Enum(s string) Value {
	v := Value{kind: KindEnum, raw: s}
	v.num, v.numOK = parseNumber(s)
	return v
}

// Date returns a date value.
func Date(t time.Time) Value {
	return Value{kind: KindDate, raw: t.Format("2006-01-02"), date: t, dtOK: true}
}

// ParseValue interprets raw input according to the kind of the field it
// was entered into.
func ParseValue(kind FieldKind, raw string) Value {
	switch kind {
	case FieldNumber:
		v := Value{kind: KindNumber, raw: raw}
		v.num, v.numOK = parseNumber(raw)
		return v
	case FieldSelect:
		return Enum(raw)
	}
	if t, ok := parseDate(raw); ok {
		v := Value{kind: KindDate, raw: raw, date: t, dtOK: true}
		v.num, v.numOK = parseNumber(raw)
		return v
	}
	return Text(raw)
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// String returns the value as entered, or the formatted number.
func (v Value) String() string { return v.raw }

// IsEmpty reports whether the value is blank after trimming.
func (v Value) IsEmpty() bool { return strings.TrimSpace(v.raw) == "" }

// Float returns the numeric interpretation of the value.
func (v Value) Float() (float64, bool) { return v.num, v.numOK }

// FloatOrZero returns the numeric interpretation, or 0.
func (v Value) FloatOrZero() float64 {
	if v.numOK {
		return v.num
	}
	return 0
}

// Time returns the date interpretation of the value.
func (v Value) Time() (time.Time, bool) { return v.date, v.dtOK }

// MarshalJSON encodes numbers as JSON numbers and everything else as text.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && v.numOK {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.raw)
}

// UnmarshalJSON accepts a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Number(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Text(s)
	return nil
}

// parseNumber reads a decimal number, ignoring surrounding whitespace.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses the date layouts accepted for date-like input.
func ParseDate(s string) (time.Time, bool) {
	return parseDate(s)
}
