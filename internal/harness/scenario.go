package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a trigger tree test scenario.
// Scenarios build a tree from a trigger set, drive it with steps, and
// assert on the resulting trace and final tree.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Spec is an optional CUE trigger file, relative to the scenario file.
	Spec string `yaml:"spec,omitempty"`

	// Comparers maps property paths to built-in comparer names.
	Comparers map[string]string `yaml:"comparers,omitempty"`

	// Triggers are added after the ones from Spec, in order.
	Triggers []TriggerDef `yaml:"triggers,omitempty"`

	// Steps run in order against the tree.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and tree.
	// Supported types: total_triggers, trace_count, matches
	Assertions []Assertion `yaml:"assertions"`
}

// TriggerDef is an inline trigger definition.
type TriggerDef struct {
	ID          string          `yaml:"id"`
	When        string          `yaml:"when"`
	Action      any             `yaml:"action"`
	Quantifiers []QuantifierDef `yaml:"quantifiers,omitempty"`
}

// QuantifierDef expands Binding over Mappings.
type QuantifierDef struct {
	Binding  string   `yaml:"binding"`
	Kind     string   `yaml:"kind"`
	Mappings []string `yaml:"mappings"`
}

// Step is one operation against the tree. Exactly one of Match, Add,
// Remove, or Verify is set.
type Step struct {
	// Match evaluates the frame. Values are converted to ir.IRValue types.
	Match map[string]any `yaml:"match,omitempty"`

	// Expect lists the trigger IDs Match must return, in order.
	// If nil, the result is only traced.
	Expect []string `yaml:"expect,omitempty"`

	// Add places one more trigger.
	Add *TriggerDef `yaml:"add,omitempty"`

	// Remove takes a trigger off by ID.
	Remove string `yaml:"remove,omitempty"`

	// Verify runs the structural check.
	Verify bool `yaml:"verify,omitempty"`
}

// Op names the step's operation.
func (s Step) Op() string {
	switch {
	case s.Match != nil:
		return StepMatch
	case s.Add != nil:
		return StepAdd
	case s.Remove != "":
		return StepRemove
	case s.Verify:
		return StepVerify
	default:
		return ""
	}
}

// Step operation names. They double as trace event kinds.
const (
	StepMatch  = "match"
	StepAdd    = "add"
	StepRemove = "remove"
	StepVerify = "verify"
)

// Assertion validates the trace or final tree.
type Assertion struct {
	// Type specifies the assertion type:
	// - "total_triggers": Check the final tree holds Count triggers
	// - "trace_count": Check Kind events were logged exactly Count times
	// - "matches": Check Trigger was returned by at least one match step
	Type string `yaml:"type"`

	// Kind is the event kind (used by trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Trigger is the trigger ID (used by matches).
	Trigger string `yaml:"trigger,omitempty"`

	// Count is the expected number (used by total_triggers, trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTotalTriggers = "total_triggers"
	AssertTraceCount    = "trace_count"
	AssertMatches       = "matches"
)

// LoadScenario reads and parses a scenario YAML file. A relative Spec path
// is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Spec != "" && !filepath.IsAbs(scenario.Spec) {
		scenario.Spec = filepath.Join(filepath.Dir(path), scenario.Spec)
	}
	if scenario.Spec != "" {
		if _, err := os.Stat(scenario.Spec); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: spec file not found: %s", scenario.Spec)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Spec == "" && len(s.Triggers) == 0 {
		return fmt.Errorf("spec or triggers is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, def := range s.Triggers {
		if def.ID == "" {
			return fmt.Errorf("triggers[%d]: id is required", i)
		}
	}

	for i, step := range s.Steps {
		ops := 0
		if step.Match != nil {
			ops++
		}
		if step.Add != nil {
			ops++
		}
		if step.Remove != "" {
			ops++
		}
		if step.Verify {
			ops++
		}
		if ops != 1 {
			return fmt.Errorf("steps[%d]: exactly one of match, add, remove, verify is required", i)
		}
		if step.Expect != nil && step.Match == nil {
			return fmt.Errorf("steps[%d]: expect is only valid on match steps", i)
		}
		if step.Add != nil && step.Add.ID == "" {
			return fmt.Errorf("steps[%d].add: id is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTotalTriggers:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for total_triggers", index)
		}
	case AssertTraceCount:
		switch a.Kind {
		case StepMatch, StepAdd, StepRemove, StepVerify:
		default:
			return fmt.Errorf("assertions[%d]: kind must be one of match, add, remove, verify for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertMatches:
		if a.Trigger == "" {
			return fmt.Errorf("assertions[%d]: trigger is required for matches", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
