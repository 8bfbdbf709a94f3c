package formula

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"webos/pkg/appschema"
	"webos/pkg/parser"
)

var (
	// ErrMissingVariable is returned when an expression names a field that
	// has no entry in the value map.
	ErrMissingVariable = errors.New("missing input value")
	// ErrEmptyExpression is returned when nothing evaluable remains after
	// filtering.
	ErrEmptyExpression = errors.New("empty expression")
	// ErrNotANumber is returned when the result is NaN.
	ErrNotANumber = errors.New("result is not a number")
	// ErrNonFinite is returned when the result is infinite.
	ErrNonFinite = errors.New("result out of range")
	// ErrMalformed is returned when the filtered expression does not parse.
	ErrMalformed = errors.New("malformed expression")
)

var identPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)

// mathNames may appear in expressions without naming a field. They do not
// survive filtering.
var mathNames = map[string]bool{
	"Math":  true,
	"abs":   true,
	"sqrt":  true,
	"pow":   true,
	"min":   true,
	"max":   true,
	"round": true,
	"floor": true,
	"ceil":  true,
}

// Arithmetic substitutes field values into expr and evaluates the result.
// Fields present but non-numeric count as 0; fields absent from values are
// an error. After substitution only digits, + - * / . ( ) and whitespace
// are kept.
func Arithmetic(expr string, values map[string]appschema.Value) (float64, error) {
	var missing []string
	seen := make(map[string]bool)
	substituted := identPattern.ReplaceAllStringFunc(expr, func(name string) string {
		if v, ok := values[name]; ok {
			return strconv.FormatFloat(v.FloatOrZero(), 'f', -1, 64)
		}
		if !mathNames[name] && !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return name
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return 0, fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(missing, ", "))
	}

	filtered := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("+-*/.() \t\r\n", r):
			return r
		}
		return -1
	}, substituted)
	if strings.TrimSpace(filtered) == "" {
		return 0, ErrEmptyExpression
	}

	result, err := parser.Eval(filtered)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	switch {
	case math.IsNaN(result):
		return 0, ErrNotANumber
	case math.IsInf(result, 0):
		return 0, ErrNonFinite
	}
	return result, nil
}
