// Package formula evaluates the calculation rules of an app schema against
// a set of field values.
//
// Every rule is classified once into a Kind, and each Kind has exactly one
// handler. Formula rules that are not a recognized unit conversion or
// percentage calculation fall through to sandboxed arithmetic, which only
// ever evaluates numerals, + - * /, and parentheses.
package formula

import (
	"strings"

	"webos/pkg/appschema"
)

// Kind is the computation a rule performs.
type Kind int

// Supported computations.
const (
	KindUnknown Kind = iota
	KindArithmetic
	KindTemperature
	KindPercentage
	KindBMI
	KindAge
	KindCountdown
	KindIdealWeight
	KindLookup
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindArithmetic:
		return "arithmetic"
	case KindTemperature:
		return "temperature"
	case KindPercentage:
		return "percentage"
	case KindBMI:
		return "bmi"
	case KindAge:
		return "age"
	case KindCountdown:
		return "countdown"
	case KindIdealWeight:
		return "ideal_weight"
	case KindLookup:
		return "lookup"
	default:
		return "unknown"
	}
}

// Markers recognized in rule expressions.
const (
	markerFromUnit    = "from_unit"
	markerToUnit      = "to_unit"
	markerCalcType    = "calculation_type"
	markerBMI         = "BMI"
	markerAge         = "calculateAge"
	markerCountdown   = "calculateCountdown"
	markerIdealWeight = "calculateIdealWeight"
)

// Classify decides which computation a rule performs. Conditional rules
// with no recognized marker are KindUnknown and evaluate to a fixed
// "cannot compute" result.
func Classify(rule appschema.Rule) Kind {
	expr := rule.Expression
	switch rule.Type {
	case appschema.RuleFormula:
		switch {
		case strings.Contains(expr, markerFromUnit) && strings.Contains(expr, markerToUnit):
			return KindTemperature
		case strings.Contains(expr, markerCalcType):
			return KindPercentage
		default:
			return KindArithmetic
		}
	case appschema.RuleConditional:
		switch {
		case strings.Contains(expr, markerBMI):
			return KindBMI
		case strings.Contains(expr, markerAge):
			return KindAge
		case strings.Contains(expr, markerCountdown):
			return KindCountdown
		case strings.Contains(expr, markerIdealWeight):
			return KindIdealWeight
		default:
			return KindUnknown
		}
	case appschema.RuleLookup:
		return KindLookup
	}
	return KindUnknown
}

// Program is a rule paired with its classification.
type Program struct {
	Rule appschema.Rule
	Kind Kind
}

// Compile classifies a rule.
func Compile(rule appschema.Rule) Program {
	return Program{Rule: rule, Kind: Classify(rule)}
}

// CompileAll classifies every rule of a schema, preserving order.
func CompileAll(rules []appschema.Rule) []Program {
	out := make([]Program, len(rules))
	for i, r := range rules {
		out[i] = Compile(r)
	}
	return out
}
