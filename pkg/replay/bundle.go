package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/flightrec/flightrec/pkg/record"
)

// FormatVersion is the current bundle format version. Readers reject
// versions they do not understand instead of guessing.
const FormatVersion = 1

// Bundle is the self-contained export of one task's full recorded state.
// It is the system's only interchange format: it carries everything replay
// needs without access to the original recorder.
type Bundle struct {
	FormatVersion int       `json:"format_version"`
	WorkflowID    string    `json:"workflow_id"`
	TaskID        string    `json:"task_id"`
	ExportedAt    time.Time `json:"exported_at"`

	Plan          *record.TaskPlan               `json:"plan,omitempty"`
	Collaborators []record.AgentInfo             `json:"collaborators,omitempty"`
	Substitutions []record.ParameterSubstitution `json:"substitutions,omitempty"`
	Trace         *record.ExecutionTrace         `json:"trace,omitempty"`

	// Events is the unified log filtered to this task, in acceptance order.
	Events []record.RecordedEvent `json:"events"`

	// Checksum is the canonical hash of Events, computed at export time.
	// A mismatch on read means the bundle was corrupted or tampered with.
	Checksum string `json:"checksum,omitempty"`
}

// Empty reports whether the bundle carries no recorded state, which is a
// valid "nothing happened yet" export.
func (b *Bundle) Empty() bool {
	return b.Plan == nil && len(b.Collaborators) == 0 &&
		len(b.Substitutions) == 0 && b.Trace == nil && len(b.Events) == 0
}

// Seal computes and stores the integrity checksum over the event list.
func (b *Bundle) Seal() error {
	sum, err := record.CanonicalHash(b.Events)
	if err != nil {
		return err
	}
	b.Checksum = sum
	return nil
}

// Verify recomputes the checksum and compares it to the sealed value.
func (b *Bundle) Verify() error {
	if b.Checksum == "" {
		return nil // unsealed bundles carry no integrity claim
	}
	sum, err := record.CanonicalHash(b.Events)
	if err != nil {
		return err
	}
	if sum != b.Checksum {
		return fmt.Errorf("%w: bundle checksum mismatch", record.ErrCorruptState)
	}
	return nil
}

// Replay returns a fresh chronological sequence over the bundle's events.
// It needs no recorder; the bundle is sufficient on its own.
func (b *Bundle) Replay() *Sequence {
	return NewSequence(b.Events)
}

// WriteFile serializes the bundle to path, sealing it first.
func (b *Bundle) WriteFile(path string) error {
	if err := b.Seal(); err != nil {
		return fmt.Errorf("%w: seal bundle: %v", record.ErrStorage, err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal bundle: %v", record.ErrStorage, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write bundle: %v", record.ErrStorage, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename bundle: %v", record.ErrStorage, err)
	}
	return nil
}

// ReadFile loads a bundle from path, checking the format version and the
// integrity checksum.
func ReadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: bundle %s", record.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: read bundle: %v", record.ErrStorage, err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: bundle %s: %v", record.ErrCorruptState, path, err)
	}
	if b.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported bundle format version %d", record.ErrCorruptState, b.FormatVersion)
	}
	if err := b.Verify(); err != nil {
		return nil, err
	}
	return &b, nil
}
