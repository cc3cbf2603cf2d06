package harness

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// SchemaViolation is one schema error in a scenario file.
type SchemaViolation struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// SchemaError lists every violation found in one file.
type SchemaError struct {
	File       string            `json:"file"`
	Violations []SchemaViolation `json:"violations"`
}

func (e *SchemaError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s: %d schema violation(s)", e.File, len(e.Violations))
	for _, v := range e.Violations {
		buf.WriteString("\n  ")
		if v.Line > 0 {
			fmt.Fprintf(&buf, "line %d: ", v.Line)
		}
		if v.Path != "" {
			fmt.Fprintf(&buf, "%s: ", v.Path)
		}
		buf.WriteString(v.Message)
	}
	return buf.String()
}

// The schema is compiled once; cue.Context values are not safe for
// concurrent use, so validation is serialized.
var schema struct {
	once sync.Once
	mu   sync.Mutex
	ctx  *cue.Context
	def  cue.Value
	err  error
}

func scenarioSchema() (*cue.Context, cue.Value, error) {
	schema.once.Do(func() {
		schema.ctx = cuecontext.New()
		v := schema.ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schema.err = fmt.Errorf("compile scenario schema: %w", err)
			return
		}
		schema.def = v.LookupPath(cue.ParsePath("#Scenario"))
	})
	return schema.ctx, schema.def, schema.err
}

// ValidateScenarioSource checks YAML scenario source against the embedded
// schema. Violations come back as a *SchemaError.
func ValidateScenarioSource(filename string, data []byte) error {
	ctx, def, err := scenarioSchema()
	if err != nil {
		return err
	}
	schema.mu.Lock()
	defer schema.mu.Unlock()

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return toSchemaError(filename, err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return toSchemaError(filename, err)
	}
	return nil
}

func toSchemaError(filename string, err error) *SchemaError {
	se := &SchemaError{File: filename}
	for _, e := range errors.Errors(err) {
		format, args := e.Msg()
		v := SchemaViolation{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		}
		for _, pos := range errors.Positions(e) {
			if pos.Filename() == filename {
				v.Line = pos.Line()
				break
			}
		}
		se.Violations = append(se.Violations, v)
	}
	if len(se.Violations) == 0 {
		se.Violations = []SchemaViolation{{Message: err.Error()}}
	}
	return se
}
