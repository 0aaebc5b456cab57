// Package replay reconstructs a single chronological timeline from a task's
// recorded facts, either from a live recorder or from an exported bundle.
package replay

import (
	"sort"

	"github.com/flightrec/flightrec/pkg/record"
)

// Sequence is a finite, restartable cursor over a task's RecordedEvents in
// strict chronological order: sorted by timestamp, ties broken by the
// acceptance sequence number. It is not a consumable stream - Reset rewinds
// it, and building a new Sequence from the same events yields the same
// order every time.
type Sequence struct {
	events []record.RecordedEvent
	pos    int
}

// NewSequence copies and orders the given events into a fresh cursor.
func NewSequence(events []record.RecordedEvent) *Sequence {
	ordered := make([]record.RecordedEvent, len(events))
	copy(ordered, events)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].Timestamp.Before(ordered[j].Timestamp)
		}
		return ordered[i].Seq < ordered[j].Seq
	})
	return &Sequence{events: ordered}
}

// Next returns the next event in chronological order. The second return is
// false once the sequence is exhausted.
func (s *Sequence) Next() (record.RecordedEvent, bool) {
	if s.pos >= len(s.events) {
		return record.RecordedEvent{}, false
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, true
}

// Reset rewinds the cursor to the start.
func (s *Sequence) Reset() {
	s.pos = 0
}

// Len returns the total number of events in the sequence.
func (s *Sequence) Len() int {
	return len(s.events)
}

// Events returns a copy of the ordered events.
func (s *Sequence) Events() []record.RecordedEvent {
	out := make([]record.RecordedEvent, len(s.events))
	copy(out, s.events)
	return out
}
