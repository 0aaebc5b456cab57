package record

import (
	"testing"
	"time"
)

func TestPlanCloneIsDeep(t *testing.T) {
	plan := TaskPlan{
		ID:        "plan-1",
		TaskID:    "task-1",
		CreatedAt: time.Now(),
		Steps: []PlanStep{
			{ID: "A", InputFields: []string{"raw"}},
		},
		Dependencies:   map[string][]string{"A": nil},
		RollbackPoints: []string{"A"},
		Metadata:       map[string]any{"nested": map[string]any{"k": "v"}},
	}

	clone := plan.Clone()
	plan.Steps[0].InputFields[0] = "mutated"
	plan.RollbackPoints[0] = "mutated"
	plan.Metadata["nested"].(map[string]any)["k"] = "mutated"

	if clone.Steps[0].InputFields[0] != "raw" {
		t.Error("step input fields shared with the original")
	}
	if clone.RollbackPoints[0] != "A" {
		t.Error("rollback points shared with the original")
	}
	if clone.Metadata["nested"].(map[string]any)["k"] != "v" {
		t.Error("nested metadata shared with the original")
	}
}

func TestTraceEventCloneIsDeep(t *testing.T) {
	ev := TraceEvent{
		ID:       "e1",
		Kind:     EventDecisionMade,
		Metadata: map[string]any{"decision": "retry", "options": []any{"retry", "abort"}},
	}

	clone := ev.Clone()
	ev.Metadata["decision"] = "mutated"
	ev.Metadata["options"].([]any)[0] = "mutated"

	if clone.Metadata["decision"] != "retry" {
		t.Error("metadata map shared with the original")
	}
	if clone.Metadata["options"].([]any)[0] != "retry" {
		t.Error("nested metadata slice shared with the original")
	}
}

func TestTraceCloneCopiesEvents(t *testing.T) {
	ended := time.Now()
	trace := ExecutionTrace{
		ID:           "tr-1",
		TaskID:       "task-1",
		StartedAt:    time.Now(),
		EndedAt:      &ended,
		Events:       []TraceEvent{{ID: "e1", Kind: EventStepStarted, StepID: "A"}},
		ErrorCascade: []string{"e1"},
	}

	clone := trace.Clone()
	trace.Events[0].StepID = "mutated"
	trace.ErrorCascade[0] = "mutated"
	*trace.EndedAt = trace.EndedAt.Add(time.Hour)

	if clone.Events[0].StepID != "A" {
		t.Error("events shared with the original")
	}
	if clone.ErrorCascade[0] != "e1" {
		t.Error("error cascade shared with the original")
	}
	if clone.EndedAt.Equal(*trace.EndedAt) {
		t.Error("end time pointer shared with the original")
	}
}

func TestAgentCloneCopiesCapabilities(t *testing.T) {
	left := time.Now()
	agent := AgentInfo{ID: "a1", Capabilities: []string{"extract"}, JoinedAt: time.Now(), LeftAt: &left}

	clone := agent.Clone()
	agent.Capabilities[0] = "mutated"
	*agent.LeftAt = agent.LeftAt.Add(time.Hour)

	if clone.Capabilities[0] != "extract" {
		t.Error("capabilities shared with the original")
	}
	if clone.LeftAt.Equal(*agent.LeftAt) {
		t.Error("leave time pointer shared with the original")
	}
}
