// Package record defines the value types the flight recorder captures: the
// intended plan, the participants, configuration changes, and trace events.
// Types here are immutable by convention - the recorder appends, it never
// rewrites history.
package record

import (
	"fmt"
	"time"
)

// TaskPlan is the intended execution blueprint for a task. It is created
// once, before execution begins; a new plan version gets a new plan ID.
type TaskPlan struct {
	ID             string              `json:"id"`
	TaskID         string              `json:"task_id"`
	CreatedAt      time.Time           `json:"created_at"`
	Steps          []PlanStep          `json:"steps"`
	Dependencies   map[string][]string `json:"dependencies,omitempty"`    // step id -> prerequisite step ids
	RollbackPoints []string            `json:"rollback_points,omitempty"` // step ids safe to resume from
	Metadata       map[string]any      `json:"metadata,omitempty"`
}

// PlanStep is one unit of a TaskPlan, owned exclusively by its plan.
type PlanStep struct {
	ID           string   `json:"id"`
	Description  string   `json:"description,omitempty"`
	AgentID      string   `json:"agent_id,omitempty"` // agent expected to execute this step
	InputFields  []string `json:"input_fields,omitempty"`
	OutputFields []string `json:"output_fields,omitempty"`
	TimeoutMs    int64    `json:"timeout_ms,omitempty"`
	Critical     bool     `json:"critical,omitempty"` // failure here halts the workflow
	Order        int      `json:"order"`
}

// Validate checks the plan's structural invariant: every step id referenced
// by the dependency map or the rollback list must name a step in Steps, and
// step ids must be unique. Violations return ErrInvalidPlan.
func (p *TaskPlan) Validate() error {
	known := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		if step.ID == "" {
			return fmt.Errorf("%w: step with empty id", ErrInvalidPlan)
		}
		if known[step.ID] {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidPlan, step.ID)
		}
		known[step.ID] = true
	}

	for stepID, prereqs := range p.Dependencies {
		if !known[stepID] {
			return fmt.Errorf("%w: dependency map references unknown step %q", ErrInvalidPlan, stepID)
		}
		for _, prereq := range prereqs {
			if !known[prereq] {
				return fmt.Errorf("%w: step %q depends on unknown step %q", ErrInvalidPlan, stepID, prereq)
			}
		}
	}

	for _, stepID := range p.RollbackPoints {
		if !known[stepID] {
			return fmt.Errorf("%w: rollback point references unknown step %q", ErrInvalidPlan, stepID)
		}
	}

	return nil
}

// Step returns the step with the given id, or nil if the plan has no such
// step.
func (p *TaskPlan) Step(id string) *PlanStep {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i]
		}
	}
	return nil
}
