// Package recorder is the mutable heart of the flight recorder: it accepts
// facts about a workflow's execution, keeps a per-task in-memory index,
// appends every accepted fact to a unified event log, and writes through to
// durable storage. Memory and disk move together or not at all.
package recorder

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flightrec/flightrec/pkg/config"
	"github.com/flightrec/flightrec/pkg/logging"
	"github.com/flightrec/flightrec/pkg/record"
	"github.com/flightrec/flightrec/pkg/storage"
)

// Recorder records the lifecycle of tasks within one workflow. It is the
// single writer of its storage root; two recorders must not share a root.
// All methods are safe for concurrent use.
type Recorder struct {
	workflowID string
	store      storage.Store
	log        *logging.Logger
	telemetry  bool
	now        func() time.Time

	mu            sync.Mutex
	plans         map[string]*record.TaskPlan
	collaborators map[string][]record.AgentInfo
	substitutions map[string][]record.ParameterSubstitution
	traces        map[string]*record.ExecutionTrace
	events        map[string][]record.RecordedEvent // unified log, per task, acceptance order
	hydrated      map[string]bool
	seq           uint64
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Recorder) {
		r.log = l.WithComponent("recorder")
	}
}

// WithTelemetry enables OpenTelemetry spans around every operation. Spans
// are no-ops unless the embedding process installs a tracer provider.
func WithTelemetry(enabled bool) Option {
	return func(r *Recorder) {
		r.telemetry = enabled
	}
}

// WithClock overrides the time source. Used by tests to make timestamps
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// New creates a Recorder for one workflow on top of the given store.
func New(workflowID string, store storage.Store, opts ...Option) (*Recorder, error) {
	if strings.TrimSpace(workflowID) == "" {
		return nil, fmt.Errorf("%w: empty workflow id", record.ErrInvalidArgument)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", record.ErrInvalidArgument)
	}

	r := &Recorder{
		workflowID:    workflowID,
		store:         store,
		log:           logging.New().WithComponent("recorder"),
		now:           time.Now,
		plans:         make(map[string]*record.TaskPlan),
		collaborators: make(map[string][]record.AgentInfo),
		substitutions: make(map[string][]record.ParameterSubstitution),
		traces:        make(map[string]*record.ExecutionTrace),
		events:        make(map[string][]record.RecordedEvent),
		hydrated:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Open builds a Recorder from configuration: storage backend, log level and
// telemetry toggle. A missing workflow id gets a generated one.
func Open(cfg *config.Config, opts ...Option) (*Recorder, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", record.ErrInvalidArgument, err)
	}

	var store storage.Store
	var err error
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		store, err = storage.NewSQLiteStore(cfg.Storage.Path)
	default:
		store, err = storage.NewFileStore(cfg.Storage.Path)
	}
	if err != nil {
		return nil, err
	}

	workflowID := cfg.Workflow.ID
	if workflowID == "" {
		workflowID = uuid.NewString()
	}

	logger := logging.New()
	logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))

	base := []Option{WithLogger(logger), WithTelemetry(cfg.Telemetry.Enabled)}
	return New(workflowID, store, append(base, opts...)...)
}

// WorkflowID returns the workflow this recorder belongs to.
func (r *Recorder) WorkflowID() string {
	return r.workflowID
}

// Close releases the underlying store.
func (r *Recorder) Close() error {
	return r.store.Close()
}

// checkTaskID rejects empty or blank task ids.
func checkTaskID(taskID string) error {
	if strings.TrimSpace(taskID) == "" {
		return fmt.Errorf("%w: empty task id", record.ErrInvalidArgument)
	}
	return nil
}

// hydrate loads every artifact kind for taskID that is not yet resident.
// Missing resources are fine; storage failures and corrupt resources are
// not. Artifact snapshots without an event log are corruption: the log is
// what assigns sequence numbers, and accepting new facts without it would
// reuse them. Must be called with the lock held.
func (r *Recorder) hydrate(taskID string) error {
	if r.hydrated[taskID] {
		return nil
	}

	var haveArtifacts bool

	var plan record.TaskPlan
	switch err := r.store.Load(taskID, storage.KindPlan, &plan); {
	case err == nil:
		r.plans[taskID] = &plan
		haveArtifacts = true
	case !record.IsNotFound(err):
		return err
	}

	var agents []record.AgentInfo
	switch err := r.store.Load(taskID, storage.KindCollaborators, &agents); {
	case err == nil:
		r.collaborators[taskID] = agents
		haveArtifacts = true
	case !record.IsNotFound(err):
		return err
	}

	var subs []record.ParameterSubstitution
	switch err := r.store.Load(taskID, storage.KindSubstitutions, &subs); {
	case err == nil:
		r.substitutions[taskID] = subs
		haveArtifacts = true
	case !record.IsNotFound(err):
		return err
	}

	var trace record.ExecutionTrace
	switch err := r.store.Load(taskID, storage.KindTrace, &trace); {
	case err == nil:
		r.traces[taskID] = &trace
		haveArtifacts = true
	case !record.IsNotFound(err):
		return err
	}

	var events []record.RecordedEvent
	switch err := r.store.Load(taskID, storage.KindEvents, &events); {
	case err == nil:
		r.events[taskID] = events
		for _, ev := range events {
			if ev.Seq > r.seq {
				r.seq = ev.Seq
			}
		}
	case !record.IsNotFound(err):
		return err
	case haveArtifacts:
		return fmt.Errorf("%w: task %q has artifact snapshots but no event log", record.ErrCorruptState, taskID)
	}

	r.hydrated[taskID] = true
	return nil
}

// commit is the single write path. It assigns sequence numbers to the new
// envelopes, persists the task's unified log and the artifact snapshot, and
// only then mutates memory via apply. A failed persist leaves the pre-call
// state fully observable. Must be called with the lock held.
//
// The log goes first: it is the replay source of truth, so an accepted fact
// must never be visible in an artifact snapshot while absent from replay. A
// crash between the two writes leaves the log at most one batch ahead of the
// snapshot, which replay tolerates. When the snapshot write fails, the prior
// log is restored so a restart cannot resurrect the rejected fact.
func (r *Recorder) commit(taskID string, artifactKind storage.Kind, artifactValue any, newEvents []record.RecordedEvent, apply func()) error {
	for i := range newEvents {
		newEvents[i].Seq = r.seq + uint64(i) + 1
		newEvents[i].TaskID = taskID
	}

	prior := r.events[taskID]
	candidate := make([]record.RecordedEvent, 0, len(prior)+len(newEvents))
	candidate = append(candidate, prior...)
	candidate = append(candidate, newEvents...)

	if err := r.store.Persist(taskID, storage.KindEvents, candidate); err != nil {
		r.log.StorageFailure("persist events", taskID, err)
		return err
	}
	if err := r.store.Persist(taskID, artifactKind, artifactValue); err != nil {
		r.log.StorageFailure("persist "+string(artifactKind), taskID, err)
		if undoErr := r.store.Persist(taskID, storage.KindEvents, prior); undoErr != nil {
			r.log.StorageFailure("restore events", taskID, undoErr)
		}
		return err
	}

	apply()
	r.events[taskID] = candidate
	r.seq += uint64(len(newEvents))
	r.hydrated[taskID] = true

	for _, ev := range newEvents {
		r.log.FactRecorded(string(ev.Kind), taskID, ev.Seq)
	}
	return nil
}

// timestampOr returns ts when set, otherwise the recorder's current time.
// Facts that carry their own occurrence time keep it, so replay stays
// chronological even when a fact is reported late.
func (r *Recorder) timestampOr(ts time.Time) time.Time {
	if ts.IsZero() {
		return r.now()
	}
	return ts
}
