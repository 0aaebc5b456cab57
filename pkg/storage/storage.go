// Package storage maps each (task, artifact-kind) pair to exactly one
// durable resource holding the latest full snapshot of that artifact.
// Accumulation semantics live in the recorder; a store only overwrites and
// reads whole snapshots.
package storage

import (
	"fmt"

	"github.com/flightrec/flightrec/pkg/record"
)

// Kind names an artifact kind with its own durable resource per task.
type Kind string

const (
	KindPlan          Kind = "plan"
	KindCollaborators Kind = "collaborators"
	KindSubstitutions Kind = "substitutions"
	KindTrace         Kind = "trace"
	// KindEvents carries the task's slice of the unified RecordedEvent log,
	// so replay stays deterministic across process restarts.
	KindEvents Kind = "events"
)

// Kinds lists every artifact kind, in hydration order.
var Kinds = []Kind{KindPlan, KindCollaborators, KindSubstitutions, KindTrace, KindEvents}

// ValidKind reports whether k names a known artifact kind.
func ValidKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Store is the persistence contract. Persist is idempotent and overwrites
// the full snapshot; Load fills out with the snapshot or returns
// record.ErrNotFound. A resource that exists but cannot be decoded returns
// record.ErrCorruptState.
type Store interface {
	Persist(taskID string, kind Kind, value any) error
	Load(taskID string, kind Kind, out any) error
	Close() error
}

// checkKey validates the (taskID, kind) pair shared by every store.
func checkKey(taskID string, kind Kind) error {
	if taskID == "" {
		return fmt.Errorf("%w: empty task id", record.ErrInvalidArgument)
	}
	if !ValidKind(kind) {
		return fmt.Errorf("%w: unknown artifact kind %q", record.ErrInvalidArgument, kind)
	}
	return nil
}
