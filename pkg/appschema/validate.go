package appschema

import (
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

// definitions is the structural contract a generated schema must meet.
// Structs stay open so unknown keys from the generator are tolerated.
const definitions = `
#Option: string | {
	value: (string & !="") | number
	label: string & !=""
	...
}

#Component: {
	type:  "input" | "number" | "select" | "textarea"
	id:    string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	label: string & !=""
	if type == "select" {
		options: [#Option, ...#Option]
	}
	...
}

#Calculation: {
	type:       "formula" | "conditional"
	expression: string & !=""
	outputs: [string, ...string]
	...
}

#AppSchema: {
	title:       string & !=""
	description: string & !=""
	components: [#Component, ...#Component]
	calculations: [#Calculation, ...#Calculation]
	...
}
`

// Validator checks raw JSON against the AppSchema definition. A cue.Context
// is not safe for concurrent use, so evaluation is serialized.
type Validator struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// NewValidator compiles the schema definition.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(definitions, cue.Filename("appschema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile definitions: %w", err)
	}
	def := root.LookupPath(cue.ParsePath("#AppSchema"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("lookup #AppSchema: %w", err)
	}
	return &Validator{ctx: ctx, def: def}, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns a process-wide validator.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator()
	})
	return defaultValidator, defaultErr
}

// Validate reports why data is not a well-formed schema, or nil. It checks
// structure only; expressions and field references are not inspected.
func (v *Validator) Validate(data []byte) error {
	expr, err := cuejson.Extract("schema.json", data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	val := v.ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := v.def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return nil
}

// Valid reports whether data passes the structural gate.
func (v *Validator) Valid(data []byte) bool {
	return v.Validate(data) == nil
}

// Parse validates data and decodes it. Field ids must be unique.
func (v *Validator) Parse(data []byte) (*AppSchema, error) {
	if err := v.Validate(data); err != nil {
		return nil, err
	}
	var s AppSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := s.checkFieldIDs(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return &s, nil
}

// Parse validates and decodes data with the default validator.
func Parse(data []byte) (*AppSchema, error) {
	v, err := Default()
	if err != nil {
		return nil, err
	}
	return v.Parse(data)
}

// Valid reports whether data passes the default validator.
func Valid(data []byte) bool {
	v, err := Default()
	if err != nil {
		return false
	}
	return v.Valid(data)
}

// Marshal encodes a schema so it can be re-validated or stored.
func Marshal(s *AppSchema) ([]byte, error) {
	return json.Marshal(s)
}
