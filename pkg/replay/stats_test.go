package replay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flightrec/flightrec/pkg/record"
)

func traceEnvelope(t *testing.T, seq uint64, ts time.Time, ev record.TraceEvent) record.RecordedEvent {
	t.Helper()
	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal trace event: %v", err)
	}
	return record.RecordedEvent{Seq: seq, Kind: record.RecordTraceEvent, TaskID: "task-1", Timestamp: ts, Payload: payload}
}

func subEnvelope(t *testing.T, seq uint64, ts time.Time, name string) record.RecordedEvent {
	t.Helper()
	payload, err := json.Marshal(record.ParameterSubstitution{Name: name, Timestamp: ts})
	if err != nil {
		t.Fatalf("marshal substitution: %v", err)
	}
	return record.RecordedEvent{Seq: seq, Kind: record.RecordSubstitution, TaskID: "task-1", Timestamp: ts, Payload: payload}
}

func TestComputeStats(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []record.RecordedEvent{
		{Seq: 1, Kind: record.RecordPlan, Timestamp: t0},
		subEnvelope(t, 2, t0.Add(time.Second), "threshold"),
		traceEnvelope(t, 3, t0.Add(2*time.Second), record.TraceEvent{
			Kind: record.EventStepEnded, StepID: "A", DurationMs: 1200,
		}),
		traceEnvelope(t, 4, t0.Add(3*time.Second), record.TraceEvent{
			Kind: record.EventErrorOccurred, StepID: "B", DurationMs: 300,
			Metadata: map[string]any{"error": "boom"},
		}),
	}

	stats := ComputeStats(events)
	if stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", stats.TotalEvents)
	}
	if stats.Substitutions != 1 {
		t.Errorf("Substitutions = %d, want 1", stats.Substitutions)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.TotalDurationMs != 1500 {
		t.Errorf("TotalDurationMs = %d, want 1500", stats.TotalDurationMs)
	}
	if stats.ByRecordKind[record.RecordTraceEvent] != 2 {
		t.Errorf("trace_event count = %d, want 2", stats.ByRecordKind[record.RecordTraceEvent])
	}
	if stats.ByEventKind[record.EventStepEnded] != 1 {
		t.Errorf("step_ended count = %d, want 1", stats.ByEventKind[record.EventStepEnded])
	}
}

func TestParameterChangesBeforeFirstError(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []record.RecordedEvent{
		subEnvelope(t, 1, t0, "retries"),
		subEnvelope(t, 2, t0.Add(time.Second), "threshold"),
		traceEnvelope(t, 3, t0.Add(2*time.Second), record.TraceEvent{
			Kind: record.EventErrorOccurred, StepID: "B",
			Metadata: map[string]any{"error": "boom"},
		}),
		subEnvelope(t, 4, t0.Add(3*time.Second), "after-the-fact"),
	}

	changes := ParameterChangesBeforeFirstError(events)
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(changes))
	}

	// Newest first: the change closest to the failure leads.
	var first, second record.ParameterSubstitution
	if err := changes[0].DecodePayload(&first); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if err := changes[1].DecodePayload(&second); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if first.Name != "threshold" || second.Name != "retries" {
		t.Errorf("order = %q, %q; want threshold, retries", first.Name, second.Name)
	}
}

func TestParameterChangesNoError(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []record.RecordedEvent{
		subEnvelope(t, 1, t0, "threshold"),
	}
	if changes := ParameterChangesBeforeFirstError(events); changes != nil {
		t.Errorf("got %d changes, want nil without an error event", len(changes))
	}
}
