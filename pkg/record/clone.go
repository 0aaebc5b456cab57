package record

// History must not change after acceptance, so the recorder stores deep
// copies of everything a caller hands it. Metadata values are JSON-shaped
// (maps, slices, scalars); other value types are copied by assignment.

func cloneAny(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = cloneAny(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = cloneAny(vv)
		}
		return out
	default:
		return v
	}
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Clone returns a deep copy of the plan.
func (p TaskPlan) Clone() TaskPlan {
	out := p
	if p.Steps != nil {
		out.Steps = make([]PlanStep, len(p.Steps))
		for i, step := range p.Steps {
			out.Steps[i] = step
			out.Steps[i].InputFields = cloneStrings(step.InputFields)
			out.Steps[i].OutputFields = cloneStrings(step.OutputFields)
		}
	}
	if p.Dependencies != nil {
		out.Dependencies = make(map[string][]string, len(p.Dependencies))
		for k, v := range p.Dependencies {
			out.Dependencies[k] = cloneStrings(v)
		}
	}
	out.RollbackPoints = cloneStrings(p.RollbackPoints)
	out.Metadata = cloneMetadata(p.Metadata)
	return out
}

// Clone returns a deep copy of the participation span.
func (a AgentInfo) Clone() AgentInfo {
	out := a
	out.Capabilities = cloneStrings(a.Capabilities)
	if a.LeftAt != nil {
		left := *a.LeftAt
		out.LeftAt = &left
	}
	return out
}

// Clone returns a deep copy of the substitution.
func (s ParameterSubstitution) Clone() ParameterSubstitution {
	out := s
	out.OldValue = cloneAny(s.OldValue)
	out.NewValue = cloneAny(s.NewValue)
	return out
}

// Clone returns a deep copy of the trace event.
func (e TraceEvent) Clone() TraceEvent {
	out := e
	out.Metadata = cloneMetadata(e.Metadata)
	return out
}

// Clone returns a deep copy of the trace and all its events.
func (t ExecutionTrace) Clone() ExecutionTrace {
	out := t
	if t.EndedAt != nil {
		ended := *t.EndedAt
		out.EndedAt = &ended
	}
	if t.Events != nil {
		out.Events = make([]TraceEvent, len(t.Events))
		for i, ev := range t.Events {
			out.Events[i] = ev.Clone()
		}
	}
	out.ErrorCascade = cloneStrings(t.ErrorCascade)
	return out
}

// CloneAgents returns a deep copy of a span list.
func CloneAgents(spans []AgentInfo) []AgentInfo {
	if spans == nil {
		return nil
	}
	out := make([]AgentInfo, len(spans))
	for i, span := range spans {
		out[i] = span.Clone()
	}
	return out
}

// CloneSubstitutions returns a deep copy of a substitution list.
func CloneSubstitutions(subs []ParameterSubstitution) []ParameterSubstitution {
	if subs == nil {
		return nil
	}
	out := make([]ParameterSubstitution, len(subs))
	for i, sub := range subs {
		out[i] = sub.Clone()
	}
	return out
}
