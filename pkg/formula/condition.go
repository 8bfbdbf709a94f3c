package formula

import (
	"fmt"
	"strings"
	"time"

	"webos/pkg/appschema"
)

// Part is one named piece of a composite result.
type Part struct {
	Name string
	Text string
}

// Composite is the result of a conditional computation. Its string form
// joins the parts with "|".
type Composite []Part

func single(text string) Composite {
	return Composite{{Text: text}}
}

// String returns the pipe-delimited form.
func (c Composite) String() string { return c.join("|") }

func (c Composite) join(sep string) string {
	texts := make([]string, len(c))
	for i, p := range c {
		texts[i] = p.Text
	}
	return strings.Join(texts, sep)
}

// lookup finds the part whose name matches an output id, ignoring case and
// separators.
func (c Composite) lookup(output string) (Part, bool) {
	key := canonicalName(output)
	for _, p := range c {
		if p.Name != "" && canonicalName(p.Name) == key {
			return p, true
		}
	}
	return Part{}, false
}

func canonicalName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// Distribute assigns the parts of c to outputs. An output whose id names a
// part receives it; other outputs take the part at their own position, or
// the whole composite when there is no such part. A lone output that names
// no part gets every part, one per line.
func (c Composite) Distribute(outputs []string) map[string]appschema.Value {
	res := make(map[string]appschema.Value, len(outputs))
	full := c.String()
	if len(outputs) == 1 {
		full = c.join("\n")
	}
	for i, out := range outputs {
		if p, ok := c.lookup(out); ok {
			res[out] = appschema.Text(p.Text)
			continue
		}
		if len(outputs) > 1 && len(c) > 1 && i < len(c) {
			res[out] = appschema.Text(c[i].Text)
			continue
		}
		res[out] = appschema.Text(full)
	}
	return res
}

// BMI status bands.
const (
	StatusUnderweight = "underweight"
	StatusNormal      = "normal"
	StatusOverweight  = "overweight"
	StatusObese       = "obese"
)

// bmiStatus returns the band for a body mass index.
func bmiStatus(bmi float64) string {
	switch {
	case bmi < 18.5:
		return StatusUnderweight
	case bmi < 24:
		return StatusNormal
	case bmi < 28:
		return StatusOverweight
	default:
		return StatusObese
	}
}

// bmi computes the body mass index from "height" in centimetres and
// "weight" in kilograms.
func bmi(values map[string]appschema.Value) Composite {
	height := values["height"].FloatOrZero()
	weight := values["weight"].FloatOrZero()
	if height <= 0 || weight <= 0 {
		return Composite{
			{Name: "BMI", Text: "enter a valid height and weight"},
			{Name: "bmiStatus", Text: "unable to compute"},
		}
	}
	m := height / 100
	index := weight / (m * m)
	return Composite{
		{Name: "BMI", Text: fmt.Sprintf("%.1f", index)},
		{Name: "bmiStatus", Text: bmiStatus(index)},
	}
}

// dateValue reads a date-like field. present is false when the field is
// blank; ok is false when it is present but not a date.
func dateValue(values map[string]appschema.Value, key string) (t time.Time, present, ok bool) {
	v, found := values[key]
	if !found || v.IsEmpty() {
		return time.Time{}, false, false
	}
	if t, ok := v.Time(); ok {
		return t, true, true
	}
	t, ok = appschema.ParseDate(v.String())
	return t, true, ok
}

const secondsPerDay = 24 * 60 * 60

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// age computes whole years and total days from "birth_date" to
// "target_date", which defaults to today.
func age(values map[string]appschema.Value, now time.Time) Composite {
	birth, present, ok := dateValue(values, "birth_date")
	if !present {
		return single("enter a birth date")
	}
	if !ok {
		return single("invalid date format")
	}

	target, present, ok := dateValue(values, "target_date")
	switch {
	case !present:
		target = truncateDay(now.UTC())
	case !ok:
		return single("invalid date format")
	}

	years := target.Year() - birth.Year()
	if target.Month() < birth.Month() || (target.Month() == birth.Month() && target.Day() < birth.Day()) {
		years--
	}
	days := floorDiv(target.Unix()-birth.Unix(), secondsPerDay)
	return single(fmt.Sprintf("%d years (%d days)", years, days))
}

// countdown reports the time remaining until "target_date".
func countdown(values map[string]appschema.Value, now time.Time) Composite {
	target, present, ok := dateValue(values, "target_date")
	if !present {
		return single("enter a target time")
	}
	if !ok {
		return single("invalid date format")
	}

	// time.Duration saturates near 292 years.
	diff := target.Unix() - now.Unix()
	if diff <= 0 {
		return single("target time has passed")
	}
	return single(fmt.Sprintf("%d days %d hours %d minutes %d seconds",
		diff/secondsPerDay, diff%secondsPerDay/3600, diff%3600/60, diff%60))
}

func isMale(gender string) bool {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m", "man", "boy":
		return true
	}
	return false
}

// idealWeight estimates a healthy weight from "height" in centimetres with
// the formula family named by "formula": BMI midpoint (default), Broca or
// Devine. Broca and Devine use "gender".
func idealWeight(values map[string]appschema.Value) Composite {
	height := values["height"].FloatOrZero()
	if height <= 0 {
		return single("enter a valid height")
	}
	male := isMale(values["gender"].String())
	family := strings.ToLower(values["formula"].String())

	var ideal, low, high float64
	switch {
	case strings.Contains(family, "broca"):
		factor := 0.85
		if male {
			factor = 0.9
		}
		ideal = (height - 100) * factor
		low, high = ideal*0.9, ideal*1.1
	case strings.Contains(family, "devine"):
		base := 45.5
		if male {
			base = 50
		}
		ideal = base + 2.3*(height-152.4)/2.54
		low, high = ideal*0.9, ideal*1.1
	default:
		m := height / 100
		ideal = 22 * m * m
		low, high = 18.5*m*m, 24*m*m
	}

	return Composite{
		{Name: "idealWeight", Text: fmt.Sprintf("%.1f kg", ideal)},
		{Name: "weightRange", Text: fmt.Sprintf("%.1f - %.1f kg", low, high)},
		{Name: "bmiRange", Text: "18.5 - 24"},
	}
}
