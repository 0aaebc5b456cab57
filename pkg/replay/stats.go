package replay

import (
	"github.com/flightrec/flightrec/pkg/record"
)

// Stats summarizes a task's timeline for quick inspection.
type Stats struct {
	TotalEvents     int
	ByRecordKind    map[record.RecordKind]int
	ByEventKind     map[record.EventKind]int
	Errors          int
	Substitutions   int
	TotalDurationMs int64
}

// ComputeStats walks the recorded events and tallies them.
func ComputeStats(events []record.RecordedEvent) Stats {
	stats := Stats{
		ByRecordKind: make(map[record.RecordKind]int),
		ByEventKind:  make(map[record.EventKind]int),
	}

	for _, ev := range events {
		stats.TotalEvents++
		stats.ByRecordKind[ev.Kind]++

		switch ev.Kind {
		case record.RecordSubstitution:
			stats.Substitutions++
		case record.RecordTraceEvent:
			var te record.TraceEvent
			if err := ev.DecodePayload(&te); err != nil {
				continue // tallying is best effort; replay itself stays strict
			}
			stats.ByEventKind[te.Kind]++
			stats.TotalDurationMs += te.DurationMs
			if te.Kind == record.EventErrorOccurred {
				stats.Errors++
			}
		}
	}
	return stats
}

// ParameterChangesBeforeFirstError returns the parameter substitution
// events that precede the first error-occurred trace event, newest first.
// This is the root-cause scan: the change closest to the failure is the
// prime suspect. With no error in the timeline it returns nil.
func ParameterChangesBeforeFirstError(events []record.RecordedEvent) []record.RecordedEvent {
	ordered := NewSequence(events).Events()

	errorIdx := -1
	for i, ev := range ordered {
		if ev.Kind != record.RecordTraceEvent {
			continue
		}
		var te record.TraceEvent
		if err := ev.DecodePayload(&te); err != nil {
			continue
		}
		if te.Kind == record.EventErrorOccurred {
			errorIdx = i
			break
		}
	}
	if errorIdx < 0 {
		return nil
	}

	var changes []record.RecordedEvent
	for i := errorIdx - 1; i >= 0; i-- {
		if ordered[i].Kind == record.RecordSubstitution {
			changes = append(changes, ordered[i])
		}
	}
	return changes
}
