// Package form holds the live state of one open dynamic application:
// entered values, validation errors and computed results.
package form

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"webos/pkg/appschema"
	"webos/pkg/formula"
)

// ErrUnknownField is returned when a value is set for a field the schema
// does not declare.
var ErrUnknownField = errors.New("unknown field")

// ErrorKey is the reserved result key recording a calculation failure.
const ErrorKey = "error"

// Placeholder results.
const (
	UnableToCompute   = "unable to compute"
	ComputationFailed = "computation failed"
)

// Instance is the form state of one window. It is safe for concurrent use.
type Instance struct {
	mu       sync.Mutex
	schema   *appschema.AppSchema
	programs []formula.Program
	eval     *formula.Evaluator
	patterns map[string]*regexp.Regexp
	log      *zap.Logger

	values  map[string]appschema.Value
	errors  map[string]string
	results map[string]appschema.Value
}

// Option configures an Instance.
type Option func(*Instance)

// WithEvaluator sets the evaluator used by Calculate.
func WithEvaluator(e *formula.Evaluator) Option {
	return func(i *Instance) { i.eval = e }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(i *Instance) { i.log = log }
}

// New creates an empty instance for schema. Rules are classified and field
// patterns compiled once here; patterns that do not compile are ignored.
func New(schema *appschema.AppSchema, opts ...Option) *Instance {
	i := &Instance{
		schema:   schema,
		programs: formula.CompileAll(schema.Calculations),
		patterns: make(map[string]*regexp.Regexp),
		values:   make(map[string]appschema.Value),
		errors:   make(map[string]string),
		results:  make(map[string]appschema.Value),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.eval == nil {
		i.eval = formula.New()
	}
	if i.log == nil {
		i.log = zap.NewNop()
	}

	for _, f := range schema.Components {
		if f.Validation == nil || f.Validation.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("^(?:" + f.Validation.Pattern + ")$")
		if err != nil {
			i.log.Debug("ignoring field pattern", zap.String("field", f.ID), zap.Error(err))
			continue
		}
		i.patterns[f.ID] = re
	}
	return i
}

// Schema returns the schema the instance was built from.
func (i *Instance) Schema() *appschema.AppSchema {
	return i.schema
}

// SetValue records raw input for a field and clears that field's error.
func (i *Instance) SetValue(fieldID, raw string) error {
	f, ok := i.schema.Field(fieldID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, fieldID)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.values[fieldID] = appschema.ParseValue(f.Type, raw)
	delete(i.errors, fieldID)
	return nil
}

// Value returns the current value of a field.
func (i *Instance) Value(fieldID string) (appschema.Value, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.values[fieldID]
	return v, ok
}

// Reset clears values, errors and results together.
func (i *Instance) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	clear(i.values)
	clear(i.errors)
	clear(i.results)
}

// State is a snapshot of an instance.
type State struct {
	Values  map[string]appschema.Value `json:"values"`
	Errors  map[string]string          `json:"errors"`
	Results map[string]appschema.Value `json:"results"`
}

// State returns a copy of the current state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stateLocked()
}

func (i *Instance) stateLocked() State {
	return State{
		Values:  maps.Clone(i.values),
		Errors:  maps.Clone(i.errors),
		Results: maps.Clone(i.results),
	}
}

// Validate checks every field and returns all errors found, keyed by
// field id. It does not modify the instance.
func (i *Instance) Validate() map[string]string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.validateLocked()
}

func (i *Instance) validateLocked() map[string]string {
	errs := make(map[string]string)
	for _, f := range i.schema.Components {
		if msg := i.checkField(f, i.values[f.ID]); msg != "" {
			errs[f.ID] = msg
		}
	}
	return errs
}

// checkField returns the error message for one field, or "".
func (i *Instance) checkField(f appschema.Field, v appschema.Value) string {
	if v.IsEmpty() {
		if f.Required {
			return f.Label + " is required"
		}
		return ""
	}

	if f.Validation != nil && (f.Type == appschema.FieldNumber || f.Type == appschema.FieldInput) {
		if n, ok := v.Float(); ok {
			if lo := f.Validation.Min; lo != nil && n < *lo {
				return fmt.Sprintf("%s must be at least %s", f.Label, formatBound(*lo))
			}
			if hi := f.Validation.Max; hi != nil && n > *hi {
				return fmt.Sprintf("%s must be at most %s", f.Label, formatBound(*hi))
			}
		}
	}

	if re, ok := i.patterns[f.ID]; ok && !re.MatchString(strings.TrimSpace(v.String())) {
		return f.Label + " has an invalid format"
	}
	return ""
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Calculate validates every field and, when all are valid, evaluates the
// rules in declaration order. Later rules overwrite earlier outputs with
// the same id. A failing rule records ErrorKey and the remaining rules
// still run; afterwards every declared output without a value receives
// UnableToCompute. When validation fails, results are cleared.
func (i *Instance) Calculate() State {
	i.mu.Lock()
	defer i.mu.Unlock()

	errs := i.validateLocked()
	if len(errs) > 0 {
		i.errors = errs
		clear(i.results)
		return i.stateLocked()
	}
	clear(i.errors)

	i.results = i.evaluateLocked()
	return i.stateLocked()
}

func (i *Instance) evaluateLocked() (results map[string]appschema.Value) {
	outputs := i.schema.Outputs()

	defer func() {
		if r := recover(); r != nil {
			i.log.Error("calculation panicked", zap.Any("panic", r))
			results = make(map[string]appschema.Value, len(outputs)+1)
			for _, id := range outputs {
				results[id] = appschema.Text(ComputationFailed)
			}
			results[ErrorKey] = appschema.Text("calculation failed, please try again")
		}
	}()

	results = make(map[string]appschema.Value)
	for _, p := range i.programs {
		out, err := i.eval.Run(p, i.values)
		if err != nil {
			i.log.Debug("rule failed",
				zap.String("kind", p.Kind.String()),
				zap.String("expression", p.Rule.Expression),
				zap.Error(err))
			results[ErrorKey] = appschema.Text("calculation error: " + err.Error())
			continue
		}
		maps.Copy(results, out)
	}

	if _, failed := results[ErrorKey]; failed {
		for _, id := range outputs {
			if _, ok := results[id]; !ok {
				results[id] = appschema.Text(UnableToCompute)
			}
		}
	}
	return results
}
