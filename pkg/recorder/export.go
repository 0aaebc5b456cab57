package recorder

import (
	"context"
	"fmt"

	"github.com/flightrec/flightrec/pkg/record"
	"github.com/flightrec/flightrec/pkg/replay"
	"github.com/flightrec/flightrec/pkg/storage"
)

// Export assembles a sealed, self-contained bundle of everything recorded
// for the task. Exporting a task with no recorded state yields an empty
// bundle, not an error. The bundle holds copies; later recording does not
// mutate it.
func (r *Recorder) Export(ctx context.Context, taskID string) (*replay.Bundle, error) {
	_, span := r.startSpan(ctx, "recorder.export", taskID)
	defer span.End()

	if err := checkTaskID(taskID); err != nil {
		return nil, r.fail(span, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hydrate(taskID); err != nil {
		return nil, r.fail(span, err)
	}

	b := &replay.Bundle{
		FormatVersion: replay.FormatVersion,
		WorkflowID:    r.workflowID,
		TaskID:        taskID,
		ExportedAt:    r.now(),
	}
	// The bundle gets deep copies; whoever holds it cannot reach back into
	// the recorder's history.
	if p := r.plans[taskID]; p != nil {
		cp := p.Clone()
		b.Plan = &cp
	}
	if agents := r.collaborators[taskID]; len(agents) > 0 {
		b.Collaborators = record.CloneAgents(agents)
	}
	if subs := r.substitutions[taskID]; len(subs) > 0 {
		b.Substitutions = record.CloneSubstitutions(subs)
	}
	if t := r.traces[taskID]; t != nil {
		ct := t.Clone()
		b.Trace = &ct
	}
	b.Events = append([]record.RecordedEvent{}, r.events[taskID]...)

	if err := b.Seal(); err != nil {
		return nil, r.fail(span, err)
	}

	r.log.BundleExported(taskID, len(b.Events))
	return b, nil
}

// Replay returns the task's timeline in strict chronological order. A task
// with no recorded state replays as an empty sequence.
func (r *Recorder) Replay(ctx context.Context, taskID string) (*replay.Sequence, error) {
	b, err := r.Export(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return b.Replay(), nil
}

// ImportBundle seeds the recorder's storage and memory from a previously
// exported bundle, verifying its integrity first. Existing state for the
// bundle's task is overwritten. The sequence counter advances past the
// highest imported sequence number so later facts never collide.
func (r *Recorder) ImportBundle(ctx context.Context, b *replay.Bundle) error {
	if b == nil {
		return fmt.Errorf("%w: nil bundle", record.ErrInvalidArgument)
	}

	_, span := r.startSpan(ctx, "recorder.import_bundle", b.TaskID)
	defer span.End()

	if err := checkTaskID(b.TaskID); err != nil {
		return r.fail(span, err)
	}
	if b.FormatVersion != replay.FormatVersion {
		return r.fail(span, fmt.Errorf("%w: unsupported bundle format version %d", record.ErrCorruptState, b.FormatVersion))
	}
	if err := b.Verify(); err != nil {
		return r.fail(span, err)
	}

	taskID := b.TaskID

	r.mu.Lock()
	defer r.mu.Unlock()

	if b.Plan != nil {
		if err := r.store.Persist(taskID, storage.KindPlan, b.Plan); err != nil {
			r.log.StorageFailure("import plan", taskID, err)
			return r.fail(span, err)
		}
	}
	if len(b.Collaborators) > 0 {
		if err := r.store.Persist(taskID, storage.KindCollaborators, b.Collaborators); err != nil {
			r.log.StorageFailure("import collaborators", taskID, err)
			return r.fail(span, err)
		}
	}
	if len(b.Substitutions) > 0 {
		if err := r.store.Persist(taskID, storage.KindSubstitutions, b.Substitutions); err != nil {
			r.log.StorageFailure("import substitutions", taskID, err)
			return r.fail(span, err)
		}
	}
	if b.Trace != nil {
		if err := r.store.Persist(taskID, storage.KindTrace, b.Trace); err != nil {
			r.log.StorageFailure("import trace", taskID, err)
			return r.fail(span, err)
		}
	}
	if err := r.store.Persist(taskID, storage.KindEvents, b.Events); err != nil {
		r.log.StorageFailure("import events", taskID, err)
		return r.fail(span, err)
	}

	if b.Plan != nil {
		cp := b.Plan.Clone()
		r.plans[taskID] = &cp
	} else {
		delete(r.plans, taskID)
	}
	r.collaborators[taskID] = record.CloneAgents(b.Collaborators)
	r.substitutions[taskID] = record.CloneSubstitutions(b.Substitutions)
	if b.Trace != nil {
		ct := b.Trace.Clone()
		r.traces[taskID] = &ct
	} else {
		delete(r.traces, taskID)
	}
	r.events[taskID] = append([]record.RecordedEvent{}, b.Events...)
	for _, ev := range b.Events {
		if ev.Seq > r.seq {
			r.seq = ev.Seq
		}
	}
	r.hydrated[taskID] = true

	return nil
}
