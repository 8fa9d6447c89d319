package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "greetings.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "greetings", scenario.Name)
	require.Len(t, scenario.Triggers, 2)
	assert.Equal(t, `exists(text) && intent == "greet"`, scenario.Triggers[1].When)
	require.Len(t, scenario.Steps, 5)
	assert.Equal(t, StepMatch, scenario.Steps[0].Op())
	assert.Equal(t, []string{"greet"}, scenario.Steps[0].Expect)
	assert.Equal(t, StepRemove, scenario.Steps[2].Op())
	assert.Equal(t, StepVerify, scenario.Steps[4].Op())
	assert.Len(t, scenario.Assertions, 3)
}

func TestLoadScenario_ResolvesSpecPath(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "scores.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "scenarios", "scores.cue"), scenario.Spec)
	assert.Equal(t, StepAdd, scenario.Steps[3].Op())
	assert.Equal(t, "low", scenario.Steps[3].Add.ID)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
spec: nowhere.cue
steps:
  - verify: true
assertions:
  - type: total_triggers
`), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec file not found")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: d
triggers:
  - id: a
    when: exists(a)
    action: a
steps:
  - verify: true
assertion:
  - type: total_triggers
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	base := `
name: n
description: d
triggers:
  - id: a
    when: exists(a)
    action: a
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nsteps: [{verify: true}]\nassertions: [{type: total_triggers}]\n",
			want: "name is required",
		},
		{
			name: "no triggers",
			yaml: "name: n\ndescription: d\nsteps: [{verify: true}]\nassertions: [{type: total_triggers}]\n",
			want: "spec or triggers is required",
		},
		{
			name: "no steps",
			yaml: base + "assertions: [{type: total_triggers}]\n",
			want: "steps list is required",
		},
		{
			name: "two ops in one step",
			yaml: base + "steps: [{verify: true, remove: a}]\nassertions: [{type: total_triggers}]\n",
			want: "exactly one of match, add, remove, verify",
		},
		{
			name: "expect without match",
			yaml: base + "steps: [{verify: true, expect: [a]}]\nassertions: [{type: total_triggers}]\n",
			want: "expect is only valid on match steps",
		},
		{
			name: "trace_count kind",
			yaml: base + "steps: [{verify: true}]\nassertions: [{type: trace_count, kind: fire}]\n",
			want: "kind must be one of",
		},
		{
			name: "matches without trigger",
			yaml: base + "steps: [{verify: true}]\nassertions: [{type: matches}]\n",
			want: "trigger is required for matches",
		},
		{
			name: "unknown assertion",
			yaml: base + "steps: [{verify: true}]\nassertions: [{type: final_state}]\n",
			want: `unknown assertion type "final_state"`,
		},
		{
			name: "trigger without id",
			yaml: "name: n\ndescription: d\ntriggers: [{when: exists(a)}]\nsteps: [{verify: true}]\nassertions: [{type: total_triggers}]\n",
			want: "triggers[0]: id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
