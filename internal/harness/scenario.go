package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/focal/internal/builder"
	"github.com/roach88/focal/internal/mockchan"
	"github.com/roach88/focal/internal/recorder"
	"github.com/roach88/focal/internal/subject"
)

// ScenarioFile is the YAML form of a scenario: a registered subject, its
// arguments, the input layout, faults and the expected outcome.
type ScenarioFile struct {
	// Name uniquely identifies this scenario within a run.
	Name string `yaml:"name"`

	// Description explains which branch of the subject the scenario drives.
	Description string `yaml:"description"`

	// Subject names a function registered in package subject.
	Subject string `yaml:"subject"`

	// Args are passed to the subject. Each subject lists the args it takes.
	Args map[string]int64 `yaml:"args,omitempty"`

	// Input describes the channel's readable bytes, one encoding per item.
	Input []InputItem `yaml:"input,omitempty"`

	// Faults are armed before the subject runs.
	Faults []FaultSpec `yaml:"faults,omitempty"`

	// Skip, when set, skips the scenario with this reason.
	Skip string `yaml:"skip,omitempty"`

	// Expect lists the checks applied after the subject returns.
	Expect Expectation `yaml:"expect"`
}

// InputItem is one input encoding. Exactly one field is set.
type InputItem struct {
	LE16  *int64   `yaml:"le16,omitempty"`
	LE32  *int64   `yaml:"le32,omitempty"`
	LE64  *int64   `yaml:"le64,omitempty"`
	BE16  *int64   `yaml:"be16,omitempty"`
	BE32  *int64   `yaml:"be32,omitempty"`
	BE64  *int64   `yaml:"be64,omitempty"`
	F32   *float64 `yaml:"f32,omitempty"`
	F64   *float64 `yaml:"f64,omitempty"`
	Bytes *string  `yaml:"bytes,omitempty"` // hex
	Text  *string  `yaml:"text,omitempty"`
	Pad   *int     `yaml:"pad,omitempty"`
	U8    *int64   `yaml:"u8,omitempty"`
}

// FaultSpec names a fault kind and the bytes it lets through.
type FaultSpec struct {
	Kind  string `yaml:"kind"`
	Limit int    `yaml:"limit,omitempty"`
}

// Expectation holds the checks of a scenario file. Unset fields are not
// checked.
type Expectation struct {
	Status      string         `yaml:"status,omitempty"`
	Value       *int64         `yaml:"value,omitempty"`
	Data        *string        `yaml:"data,omitempty"`    // hex
	Written     *string        `yaml:"written,omitempty"` // hex
	Outstanding *int           `yaml:"outstanding,omitempty"`
	Calls       map[string]int `yaml:"calls,omitempty"`
	Last        *LastCall      `yaml:"last,omitempty"`
}

// LastCall checks the most recent record of one kind.
type LastCall struct {
	Kind      string `yaml:"kind"`
	Requested *int   `yaml:"requested,omitempty"`
	Actual    *int   `yaml:"actual,omitempty"`
}

// LoadScenarioFile reads a scenario file, validates it against the CUE
// schema, decodes it strictly and checks it against the subject registry.
func LoadScenarioFile(path string) (*ScenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenarioFile(path, data)
}

// ParseScenarioFile is LoadScenarioFile for source already in memory.
func ParseScenarioFile(path string, data []byte) (*ScenarioFile, error) {
	if err := ValidateScenarioSource(path, data); err != nil {
		return nil, err
	}

	var f ScenarioFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenarioFile(&f); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &f, nil
}

// validateScenarioFile checks what the schema cannot: registry lookups and
// hex payloads.
func validateScenarioFile(f *ScenarioFile) error {
	entry, ok := subject.Lookup(f.Subject)
	if !ok {
		return fmt.Errorf("unknown subject %q", f.Subject)
	}
	if err := entry.CheckArgs(f.Args); err != nil {
		return err
	}

	for i, item := range f.Input {
		if n := item.count(); n != 1 {
			return fmt.Errorf("input[%d]: expected exactly one encoding, got %d", i, n)
		}
		if item.Bytes != nil {
			if _, err := hex.DecodeString(*item.Bytes); err != nil {
				return fmt.Errorf("input[%d].bytes: %w", i, err)
			}
		}
	}

	for i, fs := range f.Faults {
		if _, ok := mockchan.ParseFault(fs.Kind); !ok {
			return fmt.Errorf("faults[%d]: unknown kind %q", i, fs.Kind)
		}
		if fs.Limit < 0 {
			return fmt.Errorf("faults[%d]: limit must be non-negative", i)
		}
	}

	exp := f.Expect
	if exp.Status != "" && !subject.Status(exp.Status).Valid() {
		return fmt.Errorf("expect.status: unknown status %q", exp.Status)
	}
	for kind := range exp.Calls {
		if !recorder.ParseKind(kind).Valid() {
			return fmt.Errorf("expect.calls: unknown kind %q", kind)
		}
	}
	if exp.Last != nil && !recorder.ParseKind(exp.Last.Kind).Valid() {
		return fmt.Errorf("expect.last.kind: unknown kind %q", exp.Last.Kind)
	}
	for field, s := range map[string]*string{"data": exp.Data, "written": exp.Written} {
		if s == nil {
			continue
		}
		if _, err := hex.DecodeString(*s); err != nil {
			return fmt.Errorf("expect.%s: %w", field, err)
		}
	}
	return nil
}

func (it InputItem) count() int {
	n := 0
	for _, set := range []bool{
		it.LE16 != nil, it.LE32 != nil, it.LE64 != nil,
		it.BE16 != nil, it.BE32 != nil, it.BE64 != nil,
		it.F32 != nil, it.F64 != nil,
		it.Bytes != nil, it.Text != nil, it.Pad != nil, it.U8 != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// apply appends the item's encoding to b.
func (it InputItem) apply(b *builder.Builder) {
	switch {
	case it.LE16 != nil:
		b.AppendLittleEndian(2, *it.LE16)
	case it.LE32 != nil:
		b.AppendLittleEndian(4, *it.LE32)
	case it.LE64 != nil:
		b.AppendLittleEndian(8, *it.LE64)
	case it.BE16 != nil:
		b.AppendBigEndian(2, *it.BE16)
	case it.BE32 != nil:
		b.AppendBigEndian(4, *it.BE32)
	case it.BE64 != nil:
		b.AppendBigEndian(8, *it.BE64)
	case it.F32 != nil:
		b.AppendFloat32LittleEndian(float32(*it.F32))
	case it.F64 != nil:
		b.AppendFloat64LittleEndian(*it.F64)
	case it.Bytes != nil:
		raw, _ := hex.DecodeString(*it.Bytes)
		b.AppendBytes(raw)
	case it.Text != nil:
		b.AppendString(*it.Text)
	case it.Pad != nil:
		b.Pad(*it.Pad)
	case it.U8 != nil:
		b.AppendLittleEndian(1, *it.U8)
	}
}

// Scenario compiles the file into a runnable Scenario.
func (f *ScenarioFile) Scenario() (Scenario, error) {
	entry, ok := subject.Lookup(f.Subject)
	if !ok {
		return Scenario{}, fmt.Errorf("unknown subject %q", f.Subject)
	}

	faults := make([]Fault, 0, len(f.Faults))
	for _, fs := range f.Faults {
		kind, ok := mockchan.ParseFault(fs.Kind)
		if !ok {
			return Scenario{}, fmt.Errorf("unknown fault kind %q", fs.Kind)
		}
		faults = append(faults, Fault{Kind: kind, Limit: fs.Limit})
	}

	items := f.Input
	args := subject.Args(f.Args)
	exp := f.Expect
	skip := f.Skip

	return Scenario{
		Name:        f.Name,
		Description: f.Description,
		Build: func(b *builder.Builder) {
			for _, it := range items {
				it.apply(b)
			}
		},
		Faults:           faults,
		AllowOutstanding: exp.Outstanding != nil,
		Run: func(env *Env) {
			if skip != "" {
				env.Skip(skip)
				return
			}
			out := entry.Run(env.Channel, args)
			exp.check(env, out)
		},
	}, nil
}

func (exp Expectation) check(env *Env, out subject.Outcome) {
	if exp.Status != "" {
		env.CheckEqual(string(out.Status), exp.Status, "status")
	}
	if exp.Value != nil {
		env.CheckEqual(out.Value, *exp.Value, "value")
	}
	if exp.Data != nil {
		want, _ := hex.DecodeString(*exp.Data)
		env.CheckBytes(out.Data, want, "data")
	}
	if exp.Written != nil {
		want, _ := hex.DecodeString(*exp.Written)
		env.CheckBytes(env.Channel.Written(), want, "written")
	}

	kinds := make([]string, 0, len(exp.Calls))
	for k := range exp.Calls {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		env.CheckEqual(env.Recorder.Count(recorder.ParseKind(k)), exp.Calls[k], "calls."+k)
	}

	if exp.Last != nil {
		last, ok := env.Recorder.Last(recorder.ParseKind(exp.Last.Kind))
		if env.Check(ok, "last."+exp.Last.Kind+": no such call") {
			if exp.Last.Requested != nil {
				env.CheckEqual(last.Requested, *exp.Last.Requested, "last."+exp.Last.Kind+".requested")
			}
			if exp.Last.Actual != nil {
				env.CheckEqual(last.Actual, *exp.Last.Actual, "last."+exp.Last.Kind+".actual")
			}
		}
	}

	if exp.Outstanding != nil {
		env.CheckEqual(len(env.Channel.Outstanding()), *exp.Outstanding, "outstanding")
	}
}
