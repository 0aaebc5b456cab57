package record

import "time"

// AgentInfo is one participation span of an agent in a task. An agent that
// leaves and re-joins gets a new span; history accumulates, it is never
// rewritten.
type AgentInfo struct {
	ID           string     `json:"id"`
	Name         string     `json:"name,omitempty"`
	Role         string     `json:"role,omitempty"`
	Capabilities []string   `json:"capabilities,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
}

// Active reports whether the span is still open (no leave time recorded).
func (a *AgentInfo) Active() bool {
	return a.LeftAt == nil
}

// CurrentCollaborator returns the most recent participation span for the
// given agent id: the span with the latest join time, preferring one that is
// still open. Returns nil if the agent never joined.
func CurrentCollaborator(spans []AgentInfo, agentID string) *AgentInfo {
	var current *AgentInfo
	for i := range spans {
		span := &spans[i]
		if span.ID != agentID {
			continue
		}
		if current == nil {
			current = span
			continue
		}
		if span.Active() != current.Active() {
			if span.Active() {
				current = span
			}
			continue
		}
		if span.JoinedAt.After(current.JoinedAt) {
			current = span
		}
	}
	return current
}

// CollaboratorHistory returns every participation span for the given agent
// id, in recorded order.
func CollaboratorHistory(spans []AgentInfo, agentID string) []AgentInfo {
	var history []AgentInfo
	for _, span := range spans {
		if span.ID == agentID {
			history = append(history, span)
		}
	}
	return history
}
