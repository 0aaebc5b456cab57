package record

import "time"

// ParameterSubstitution is a single configuration change made during
// execution. Values are opaque to the recorder - it stores them, it does not
// interpret them. Substitutions are append-only and never mutated.
type ParameterSubstitution struct {
	Name          string    `json:"name"`
	OldValue      any       `json:"old_value,omitempty"`
	NewValue      any       `json:"new_value,omitempty"`
	Justification string    `json:"justification,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	AgentID       string    `json:"agent_id,omitempty"` // empty means a human operator
}
