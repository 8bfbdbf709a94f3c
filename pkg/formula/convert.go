package formula

import (
	"fmt"
	"strconv"
	"strings"

	"webos/pkg/appschema"
)

type tempUnit int

const (
	unitUnknown tempUnit = iota
	unitCelsius
	unitFahrenheit
	unitKelvin
)

func parseTempUnit(s string) tempUnit {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "celsius"), s == "c", s == "°c":
		return unitCelsius
	case strings.Contains(s, "fahrenheit"), s == "f", s == "°f":
		return unitFahrenheit
	case strings.Contains(s, "kelvin"), s == "k":
		return unitKelvin
	}
	return unitUnknown
}

func (u tempUnit) suffix() string {
	switch u {
	case unitCelsius:
		return "°C"
	case unitFahrenheit:
		return "°F"
	default:
		return "K"
	}
}

func (u tempUnit) toCelsius(t float64) float64 {
	switch u {
	case unitFahrenheit:
		return (t - 32) * 5 / 9
	case unitKelvin:
		return t - 273.15
	}
	return t
}

func (u tempUnit) fromCelsius(c float64) float64 {
	switch u {
	case unitFahrenheit:
		return c*9/5 + 32
	case unitKelvin:
		return c + 273.15
	}
	return c
}

// temperature converts the "temperature" field from "from_unit" to
// "to_unit". Unrecognized units yield the input unchanged.
func temperature(values map[string]appschema.Value) appschema.Value {
	t := values["temperature"].FloatOrZero()
	from := parseTempUnit(values["from_unit"].String())
	to := parseTempUnit(values["to_unit"].String())
	if from == unitUnknown || to == unitUnknown {
		return appschema.Text(strconv.FormatFloat(t, 'f', -1, 64))
	}
	converted := to.fromCelsius(from.toCelsius(t))
	return appschema.Text(fmt.Sprintf("%.1f %s", converted, to.suffix()))
}

// percentage computes one of three closed-form percentage relations chosen
// by the "calculation_type" field. ok is false when the type is not
// recognized.
func percentage(values map[string]appschema.Value) (v appschema.Value, ok bool) {
	calcType := strings.ToLower(values[markerCalcType].String())
	part := values["part_value"].FloatOrZero()
	total := values["total_value"].FloatOrZero()
	pct := values["percentage"].FloatOrZero()

	switch {
	case strings.Contains(calcType, "part"):
		return appschema.Text(fmt.Sprintf("%.2f", total*pct/100)), true
	case strings.Contains(calcType, "whole"), strings.Contains(calcType, "total"):
		if pct > 0 {
			return appschema.Text(fmt.Sprintf("%.2f", part*100/pct)), true
		}
		return appschema.Text("0"), true
	case strings.Contains(calcType, "percent"):
		if total > 0 {
			return appschema.Text(fmt.Sprintf("%.2f%%", part/total*100)), true
		}
		return appschema.Text("0%"), true
	}
	return appschema.Value{}, false
}
