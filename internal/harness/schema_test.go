package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSource = `name: ok_file
description: minimal valid scenario
subject: read_u32_le
expect:
  status: ok
`

func TestValidateScenarioSource_Valid(t *testing.T) {
	assert.NoError(t, ValidateScenarioSource("valid.yaml", []byte(validSource)))
}

func TestValidateScenarioSource_Violations(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown field",
			src:  validSource + "colour: blue\n",
			want: "colour",
		},
		{
			name: "unknown status",
			src: `name: x
description: d
subject: read_u32_le
expect:
  status: exploded
`,
			want: "expect.status",
		},
		{
			name: "missing description",
			src: `name: x
subject: read_u32_le
expect: {}
`,
			want: "description",
		},
		{
			name: "item with two encodings",
			src: `name: x
description: d
subject: read_u32_le
input:
  - { le16: 1, le32: 2 }
expect: {}
`,
			want: "input",
		},
		{
			name: "number where hex is expected",
			src: `name: x
description: d
subject: read_u32_le
expect:
  written: 12
`,
			want: "expect.written",
		},
		{
			name: "negative pad",
			src: `name: x
description: d
subject: read_u32_le
input:
  - pad: -1
expect: {}
`,
			want: "input",
		},
		{
			name: "unknown call kind",
			src: `name: x
description: d
subject: read_u32_le
expect:
  calls: { peek: 1 }
`,
			want: "peek",
		},
		{
			name: "bad fault kind",
			src: `name: x
description: d
subject: read_u32_le
faults:
  - kind: explode
expect: {}
`,
			want: "faults",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScenarioSource("bad.yaml", []byte(tt.src))
			require.Error(t, err)

			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %T: %v", err, err)
			assert.Equal(t, "bad.yaml", se.File)
			assert.NotEmpty(t, se.Violations)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateScenarioSource_MalformedYAML(t *testing.T) {
	err := ValidateScenarioSource("broken.yaml", []byte("name: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidateScenarioSource_ReportsLines(t *testing.T) {
	src := `name: x
description: d
subject: read_u32_le
expect:
  status: exploded
`
	err := ValidateScenarioSource("lines.yaml", []byte(src))
	var se *SchemaError
	require.ErrorAs(t, err, &se)

	lines := 0
	for _, v := range se.Violations {
		if v.Line > 0 {
			lines++
			assert.Equal(t, 5, v.Line)
		}
	}
	assert.Positive(t, lines, "at least one violation points into the file")
}

func TestSchemaError_Error(t *testing.T) {
	e := &SchemaError{File: "f.yaml", Violations: []SchemaViolation{
		{Path: "expect.status", Line: 5, Message: "conflicting values"},
		{Message: "incomplete value"},
	}}
	assert.Equal(t, "f.yaml: 2 schema violation(s)\n  line 5: expect.status: conflicting values\n  incomplete value", e.Error())
}
