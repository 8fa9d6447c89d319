package ir

import "encoding/json"

// TriggerSpec is one compiled trigger definition.
type TriggerSpec struct {
	ID          string           `json:"id"`
	When        string           `json:"when"`   // expression source, e.g. "exists(turn.text) && intent == 'greet'"
	Action      IRValue          `json:"action"` // opaque payload returned on match
	Quantifiers []QuantifierSpec `json:"quantifiers,omitempty"`
}

// UnmarshalJSON decodes the action into the IR value model.
func (s *TriggerSpec) UnmarshalJSON(data []byte) error {
	type plain TriggerSpec
	var raw struct {
		plain
		Action json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = TriggerSpec(raw.plain)
	if len(raw.Action) > 0 {
		action, err := UnmarshalIRValue(raw.Action)
		if err != nil {
			return err
		}
		s.Action = action
	}
	return nil
}

// QuantifierSpec expands a placeholder binding over a list of property paths.
type QuantifierSpec struct {
	Binding  string   `json:"binding"`
	Kind     string   `json:"kind"` // "any" or "all"
	Mappings []string `json:"mappings"`
}

// ValidQuantifierKinds defines allowed quantifier kinds.
var ValidQuantifierKinds = map[string]bool{
	"any": true,
	"all": true,
}

// TriggerSet is a compiled trigger file: the triggers in declaration order
// plus the comparer registry, keyed by property path.
type TriggerSet struct {
	Triggers  []TriggerSpec     `json:"triggers"`
	Comparers map[string]string `json:"comparers,omitempty"` // property path -> comparer name
}
