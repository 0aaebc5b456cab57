package record

import (
	"encoding/json"
	"time"
)

// RecordKind tags a RecordedEvent with the kind of fact it wraps.
type RecordKind string

const (
	RecordPlan          RecordKind = "plan"          // a TaskPlan was recorded
	RecordCollaborator  RecordKind = "collaborator"  // one AgentInfo span was recorded
	RecordCollaborators RecordKind = "collaborators" // aggregate of one recordCollaborators call
	RecordSubstitution  RecordKind = "substitution"  // a ParameterSubstitution was recorded
	RecordTraceEvent    RecordKind = "trace_event"   // one TraceEvent was appended
	RecordTraceClosed   RecordKind = "trace_closed"  // the trace was explicitly closed
)

// RecordedEvent is the unified-log envelope. Every fact the recorder accepts
// is also appended, in acceptance order, as one of these; replay walks this
// structure and nothing else.
type RecordedEvent struct {
	// Seq is assigned once, at acceptance, and persisted so that replay is
	// deterministic even when events share a timestamp.
	Seq       uint64          `json:"seq"`
	Kind      RecordKind      `json:"kind"`
	TaskID    string          `json:"task_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// DecodePayload unmarshals the envelope payload into out.
func (e *RecordedEvent) DecodePayload(out any) error {
	return json.Unmarshal(e.Payload, out)
}
