package record

import (
	"fmt"
	"time"
)

// EventKind identifies what happened. The set is closed by design: it is the
// vocabulary analysts query with, and tooling is built against it.
type EventKind string

const (
	EventStepStarted        EventKind = "step_started"
	EventStepEnded          EventKind = "step_ended"
	EventDecisionMade       EventKind = "decision_made"
	EventErrorOccurred      EventKind = "error_occurred"
	EventCheckpointSaved    EventKind = "checkpoint_saved"
	EventParameterChanged   EventKind = "parameter_changed"
	EventCollaboratorJoined EventKind = "collaborator_joined"
	EventCollaboratorLeft   EventKind = "collaborator_left"
	EventRollbackPerformed  EventKind = "rollback_performed"
)

// validEventKinds is the lookup table for the closed kind set.
var validEventKinds = map[EventKind]bool{
	EventStepStarted:        true,
	EventStepEnded:          true,
	EventDecisionMade:       true,
	EventErrorOccurred:      true,
	EventCheckpointSaved:    true,
	EventParameterChanged:   true,
	EventCollaboratorJoined: true,
	EventCollaboratorLeft:   true,
	EventRollbackPerformed:  true,
}

// ValidEventKind reports whether k is in the closed event kind set.
func ValidEventKind(k EventKind) bool {
	return validEventKinds[k]
}

// Outcome is the final state of an execution trace.
type Outcome string

const (
	OutcomeUnset     Outcome = ""
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
)

// ValidOutcome reports whether o is a known trace outcome.
func ValidOutcome(o Outcome) bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeTimeout, OutcomeCancelled:
		return true
	}
	return false
}

// TraceEvent is one atomic occurrence during execution. Metadata shape
// legitimately varies by event kind; required keys are enforced by Validate
// and read through the accessor helpers below.
type TraceEvent struct {
	ID         string         `json:"id"` // unique within the task
	Kind       EventKind      `json:"kind"`
	Timestamp  time.Time      `json:"timestamp"`
	AgentID    string         `json:"agent_id,omitempty"`
	StepID     string         `json:"step_id,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	InputHash  string         `json:"input_hash,omitempty"`
	OutputHash string         `json:"output_hash,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// requiredMetaKeys lists the metadata key each event kind must carry.
var requiredMetaKeys = map[EventKind]string{
	EventDecisionMade:      "decision",
	EventErrorOccurred:     "error",
	EventCheckpointSaved:   "checkpoint_id",
	EventParameterChanged:  "parameter",
	EventRollbackPerformed: "rollback_to",
}

// Validate checks the event against the closed kind set and the per-kind
// shape rules. Violations return ErrInvalidArgument.
func (e *TraceEvent) Validate() error {
	if !ValidEventKind(e.Kind) {
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidArgument, e.Kind)
	}
	switch e.Kind {
	case EventStepStarted, EventStepEnded:
		if e.StepID == "" {
			return fmt.Errorf("%w: %s event requires a step id", ErrInvalidArgument, e.Kind)
		}
	case EventCollaboratorJoined, EventCollaboratorLeft:
		if e.AgentID == "" {
			return fmt.Errorf("%w: %s event requires an agent id", ErrInvalidArgument, e.Kind)
		}
	}
	if key, ok := requiredMetaKeys[e.Kind]; ok {
		if _, present := e.Metadata[key]; !present {
			return fmt.Errorf("%w: %s event requires metadata key %q", ErrInvalidArgument, e.Kind, key)
		}
	}
	return nil
}

// metaString reads a metadata value as a string.
func (e *TraceEvent) metaString(key string) (string, bool) {
	v, ok := e.Metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Decision returns the decision text of a decision_made event.
func (e *TraceEvent) Decision() (string, bool) {
	return e.metaString("decision")
}

// ErrorMessage returns the error text of an error_occurred event.
func (e *TraceEvent) ErrorMessage() (string, bool) {
	return e.metaString("error")
}

// CheckpointID returns the checkpoint id of a checkpoint_saved event.
func (e *TraceEvent) CheckpointID() (string, bool) {
	return e.metaString("checkpoint_id")
}

// Parameter returns the parameter name of a parameter_changed event.
func (e *TraceEvent) Parameter() (string, bool) {
	return e.metaString("parameter")
}

// RollbackTarget returns the target step id of a rollback_performed event.
func (e *TraceEvent) RollbackTarget() (string, bool) {
	return e.metaString("rollback_to")
}

// ExecutionTrace is the ordered container for a task's trace events. Append
// order is causal order; the recorder never reorders events after the fact.
// One trace exists per task, created lazily on the first event and closed
// explicitly by the caller.
type ExecutionTrace struct {
	ID           string       `json:"id"`
	TaskID       string       `json:"task_id"`
	StartedAt    time.Time    `json:"started_at"`
	EndedAt      *time.Time   `json:"ended_at,omitempty"`
	Events       []TraceEvent `json:"events"`
	Outcome      Outcome      `json:"outcome,omitempty"`
	ErrorCascade []string     `json:"error_cascade,omitempty"` // error ids, root cause first
}

// Closed reports whether the trace has been explicitly closed.
func (t *ExecutionTrace) Closed() bool {
	return t.EndedAt != nil
}
