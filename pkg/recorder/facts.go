package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flightrec/flightrec/pkg/record"
	"github.com/flightrec/flightrec/pkg/storage"
)

// envelope wraps a fact payload for the unified log. Sequence numbers are
// assigned later, at commit.
func envelope(kind record.RecordKind, ts time.Time, payload any) (record.RecordedEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return record.RecordedEvent{}, fmt.Errorf("%w: payload not serializable: %v", record.ErrInvalidArgument, err)
	}
	return record.RecordedEvent{Kind: kind, Timestamp: ts, Payload: raw}, nil
}

// RecordPlan stores the intended execution blueprint for a task. A plan
// recorded twice for the same task overwrites the first: last write wins,
// versioning belongs to the caller (a new plan version gets a new plan id).
func (r *Recorder) RecordPlan(ctx context.Context, taskID string, plan record.TaskPlan) error {
	ctx, span := r.startSpan(ctx, "recorder.record_plan", taskID)
	defer span.End()

	if err := checkTaskID(taskID); err != nil {
		return r.fail(span, err)
	}
	if plan.TaskID != "" && plan.TaskID != taskID {
		return r.fail(span, fmt.Errorf("%w: plan task id %q does not match %q", record.ErrInvalidArgument, plan.TaskID, taskID))
	}
	if err := plan.Validate(); err != nil {
		return r.fail(span, err)
	}

	plan.TaskID = taskID
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.CreatedAt = r.timestampOr(plan.CreatedAt)
	// Own the stored copy; the caller keeps its plan, we keep history.
	plan = plan.Clone()

	ev, err := envelope(record.RecordPlan, plan.CreatedAt, plan)
	if err != nil {
		return r.fail(span, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hydrate(taskID); err != nil {
		return r.fail(span, err)
	}
	return r.fail(span, r.commit(taskID, storage.KindPlan, plan, []record.RecordedEvent{ev}, func() {
		r.plans[taskID] = &plan
	}))
}

// RecordCollaborators appends participation spans for a task. Appending is
// the default so join/leave history accumulates; use ReplaceCollaborators to
// overwrite. One envelope is emitted per agent plus one aggregate.
func (r *Recorder) RecordCollaborators(ctx context.Context, taskID string, agents []record.AgentInfo) error {
	return r.recordCollaborators(ctx, taskID, agents, false)
}

// ReplaceCollaborators overwrites the task's collaborator list. This is the
// explicit replacement signal; prefer RecordCollaborators.
func (r *Recorder) ReplaceCollaborators(ctx context.Context, taskID string, agents []record.AgentInfo) error {
	return r.recordCollaborators(ctx, taskID, agents, true)
}

func (r *Recorder) recordCollaborators(ctx context.Context, taskID string, agents []record.AgentInfo, replace bool) error {
	ctx, span := r.startSpan(ctx, "recorder.record_collaborators", taskID)
	defer span.End()

	if err := checkTaskID(taskID); err != nil {
		return r.fail(span, err)
	}
	if len(agents) == 0 {
		return r.fail(span, fmt.Errorf("%w: no agents given", record.ErrInvalidArgument))
	}
	agents = record.CloneAgents(agents)
	for i := range agents {
		if strings.TrimSpace(agents[i].ID) == "" {
			return r.fail(span, fmt.Errorf("%w: agent with empty id", record.ErrInvalidArgument))
		}
		agents[i].JoinedAt = r.timestampOr(agents[i].JoinedAt)
	}

	newEvents := make([]record.RecordedEvent, 0, len(agents)+1)
	for _, agent := range agents {
		ev, err := envelope(record.RecordCollaborator, agent.JoinedAt, agent)
		if err != nil {
			return r.fail(span, err)
		}
		newEvents = append(newEvents, ev)
	}
	aggregate, err := envelope(record.RecordCollaborators, r.now(), agents)
	if err != nil {
		return r.fail(span, err)
	}
	newEvents = append(newEvents, aggregate)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hydrate(taskID); err != nil {
		return r.fail(span, err)
	}

	var merged []record.AgentInfo
	if !replace {
		merged = append(merged, r.collaborators[taskID]...)
	}
	merged = append(merged, agents...)

	return r.fail(span, r.commit(taskID, storage.KindCollaborators, merged, newEvents, func() {
		r.collaborators[taskID] = merged
	}))
}

// MarkCollaboratorLeft closes the agent's current participation span. The
// span itself stays in history; only its leave time is filled in.
func (r *Recorder) MarkCollaboratorLeft(ctx context.Context, taskID, agentID string, leftAt time.Time) error {
	ctx, span := r.startSpan(ctx, "recorder.mark_collaborator_left", taskID)
	defer span.End()

	if err := checkTaskID(taskID); err != nil {
		return r.fail(span, err)
	}
	if strings.TrimSpace(agentID) == "" {
		return r.fail(span, fmt.Errorf("%w: empty agent id", record.ErrInvalidArgument))
	}
	leftAt = r.timestampOr(leftAt)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hydrate(taskID); err != nil {
		return r.fail(span, err)
	}

	spans := r.collaborators[taskID]
	idx := -1
	for i := range spans {
		if spans[i].ID == agentID && spans[i].Active() {
			if idx < 0 || spans[i].JoinedAt.After(spans[idx].JoinedAt) {
				idx = i
			}
		}
	}
	if idx < 0 {
		return r.fail(span, fmt.Errorf("%w: no open participation span for agent %q", record.ErrNotFound, agentID))
	}

	updated := make([]record.AgentInfo, len(spans))
	copy(updated, spans)
	left := leftAt
	updated[idx].LeftAt = &left

	ev, err := envelope(record.RecordCollaborator, leftAt, updated[idx])
	if err != nil {
		return r.fail(span, err)
	}

	return r.fail(span, r.commit(taskID, storage.KindCollaborators, updated, []record.RecordedEvent{ev}, func() {
		r.collaborators[taskID] = updated
	}))
}

// RecordParameterSubstitution appends a configuration change. Values are
// opaque; an empty agent id means a human operator made the change.
func (r *Recorder) RecordParameterSubstitution(ctx context.Context, taskID, name string, oldValue, newValue any, justification, agentID string) error {
	ctx, span := r.startSpan(ctx, "recorder.record_substitution", taskID)
	defer span.End()

	if err := checkTaskID(taskID); err != nil {
		return r.fail(span, err)
	}
	if strings.TrimSpace(name) == "" {
		return r.fail(span, fmt.Errorf("%w: empty parameter name", record.ErrInvalidArgument))
	}

	sub := record.ParameterSubstitution{
		Name:          name,
		OldValue:      oldValue,
		NewValue:      newValue,
		Justification: justification,
		Timestamp:     r.now(),
		AgentID:       agentID,
	}.Clone()

	ev, err := envelope(record.RecordSubstitution, sub.Timestamp, sub)
	if err != nil {
		return r.fail(span, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hydrate(taskID); err != nil {
		return r.fail(span, err)
	}

	appended := append(append([]record.ParameterSubstitution{}, r.substitutions[taskID]...), sub)
	return r.fail(span, r.commit(taskID, storage.KindSubstitutions, appended, []record.RecordedEvent{ev}, func() {
		r.substitutions[taskID] = appended
	}))
}

// AddTraceEvent appends one occurrence to the task's execution trace,
// creating the trace on first use. The entire updated trace is written
// through: traces are bounded per task, so simplicity beats I/O efficiency.
func (r *Recorder) AddTraceEvent(ctx context.Context, taskID string, ev record.TraceEvent) error {
	ctx, span := r.startSpan(ctx, "recorder.add_trace_event", taskID)
	defer span.End()

	if err := checkTaskID(taskID); err != nil {
		return r.fail(span, err)
	}

	ev.Timestamp = r.timestampOr(ev.Timestamp)
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if err := ev.Validate(); err != nil {
		return r.fail(span, err)
	}
	ev = ev.Clone()

	envEv, err := envelope(record.RecordTraceEvent, ev.Timestamp, ev)
	if err != nil {
		return r.fail(span, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hydrate(taskID); err != nil {
		return r.fail(span, err)
	}

	var updated record.ExecutionTrace
	if existing := r.traces[taskID]; existing != nil {
		for _, prior := range existing.Events {
			if prior.ID == ev.ID {
				return r.fail(span, fmt.Errorf("%w: duplicate trace event id %q", record.ErrInvalidArgument, ev.ID))
			}
		}
		updated = *existing
		updated.Events = append(append([]record.TraceEvent{}, existing.Events...), ev)
	} else {
		now := r.now()
		updated = record.ExecutionTrace{
			ID:        fmt.Sprintf("%s-%d", taskID, now.UnixNano()),
			TaskID:    taskID,
			StartedAt: now,
			Events:    []record.TraceEvent{ev},
		}
	}

	return r.fail(span, r.commit(taskID, storage.KindTrace, updated, []record.RecordedEvent{envEv}, func() {
		r.traces[taskID] = &updated
	}))
}

// traceClosedPayload is the envelope payload for an explicit trace close.
type traceClosedPayload struct {
	TraceID      string         `json:"trace_id"`
	Outcome      record.Outcome `json:"outcome"`
	ErrorCascade []string       `json:"error_cascade,omitempty"`
	EndedAt      time.Time      `json:"ended_at"`
}

// CloseTrace sets the trace's end time, final outcome and optional error
// cascade. A trace can be closed once; there must be one to close.
func (r *Recorder) CloseTrace(ctx context.Context, taskID string, outcome record.Outcome, cascade []string) error {
	ctx, span := r.startSpan(ctx, "recorder.close_trace", taskID)
	defer span.End()

	if err := checkTaskID(taskID); err != nil {
		return r.fail(span, err)
	}
	if !record.ValidOutcome(outcome) {
		return r.fail(span, fmt.Errorf("%w: unknown outcome %q", record.ErrInvalidArgument, outcome))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hydrate(taskID); err != nil {
		return r.fail(span, err)
	}

	existing := r.traces[taskID]
	if existing == nil {
		return r.fail(span, fmt.Errorf("%w: no trace for task %q", record.ErrNotFound, taskID))
	}
	if existing.Closed() {
		return r.fail(span, fmt.Errorf("%w: trace for task %q already closed", record.ErrInvalidArgument, taskID))
	}

	ended := r.now()
	updated := *existing
	updated.Events = append([]record.TraceEvent{}, existing.Events...)
	updated.EndedAt = &ended
	updated.Outcome = outcome
	updated.ErrorCascade = append([]string{}, cascade...)

	ev, err := envelope(record.RecordTraceClosed, ended, traceClosedPayload{
		TraceID:      updated.ID,
		Outcome:      outcome,
		ErrorCascade: updated.ErrorCascade,
		EndedAt:      ended,
	})
	if err != nil {
		return r.fail(span, err)
	}

	err = r.commit(taskID, storage.KindTrace, updated, []record.RecordedEvent{ev}, func() {
		r.traces[taskID] = &updated
	})
	if err == nil {
		r.log.TraceClosed(taskID, string(outcome), len(updated.Events))
	}
	return r.fail(span, err)
}
