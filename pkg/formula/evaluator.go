package formula

import (
	"time"

	"webos/pkg/appschema"
)

// Fixed results.
const (
	CannotCompute = "cannot compute"
	Unknown       = "unknown"
)

// ResultKey receives the result of a rule that declares no outputs.
const ResultKey = "result"

// Evaluator runs compiled rules. The zero value is not usable; call New.
type Evaluator struct {
	now func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock sets the source of the current time used by age and countdown
// computations.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate classifies and runs a single rule.
func (e *Evaluator) Evaluate(rule appschema.Rule, values map[string]appschema.Value) (map[string]appschema.Value, error) {
	return e.Run(Compile(rule), values)
}

// Run evaluates p against values and returns the outputs it populates.
// Single-valued computations fill the rule's first output; conditional
// computations are distributed across all declared outputs.
func (e *Evaluator) Run(p Program, values map[string]appschema.Value) (map[string]appschema.Value, error) {
	switch p.Kind {
	case KindArithmetic, KindTemperature, KindPercentage, KindLookup:
		v, err := e.value(p, values)
		if err != nil {
			return nil, err
		}
		return map[string]appschema.Value{firstOutput(p.Rule): v}, nil
	}

	c := e.Condition(p, values)
	if len(p.Rule.Outputs) == 0 {
		return map[string]appschema.Value{ResultKey: appschema.Text(c.String())}, nil
	}
	return c.Distribute(p.Rule.Outputs), nil
}

func firstOutput(rule appschema.Rule) string {
	if len(rule.Outputs) == 0 {
		return ResultKey
	}
	return rule.Outputs[0]
}

func (e *Evaluator) value(p Program, values map[string]appschema.Value) (appschema.Value, error) {
	switch p.Kind {
	case KindTemperature:
		return temperature(values), nil
	case KindPercentage:
		if v, ok := percentage(values); ok {
			return v, nil
		}
	case KindLookup:
		return Lookup(p.Rule.Expression, values), nil
	}
	n, err := Arithmetic(p.Rule.Expression, values)
	if err != nil {
		return appschema.Value{}, err
	}
	return appschema.Number(n), nil
}

// Condition runs a conditional computation. Unrecognized kinds yield
// CannotCompute rather than an error.
func (e *Evaluator) Condition(p Program, values map[string]appschema.Value) Composite {
	switch p.Kind {
	case KindBMI:
		return bmi(values)
	case KindAge:
		return age(values, e.now())
	case KindCountdown:
		return countdown(values, e.now())
	case KindIdealWeight:
		return idealWeight(values)
	}
	return single(CannotCompute)
}

// Lookup returns the value stored under key, or Unknown.
func Lookup(key string, values map[string]appschema.Value) appschema.Value {
	if v, ok := values[key]; ok && !v.IsEmpty() {
		return v
	}
	return appschema.Text(Unknown)
}
