package provision

import (
	"context"
	"time"

	"github.com/srxprov/srxprov/pkg/session"
)

// Pipeline step names, in execution order.
const (
	StepConnect  = "connect"
	StepBuild    = "build"
	StepLoad     = "load"
	StepDiff     = "diff"
	StepValidate = "validate"
	StepCommit   = "commit"
)

// PipelineSteps lists the pipeline stages in order.
var PipelineSteps = []string{StepConnect, StepBuild, StepLoad, StepDiff, StepValidate, StepCommit}

// StepResult is the outcome of one pipeline stage.
type StepResult struct {
	Step      string    `json:"step"`
	Succeeded bool      `json:"succeeded"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Outcome is the complete record of one configuration run. Created once per
// run, handed to history, never mutated afterward. Callers inspect
// FinalState and Steps rather than errors: pipeline failures never propagate
// past the executor boundary.
type Outcome struct {
	ID         string        `json:"id"`
	Device     string        `json:"device"`
	Intent     ConfigIntent  `json:"intent"`
	FinalState session.State `json:"final_state"`
	Steps      []StepResult  `json:"steps"`

	// AppliedDirectives is populated only when FinalState is committed.
	AppliedDirectives []Directive `json:"applied_directives,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Committed reports whether the run applied its change.
func (o *Outcome) Committed() bool {
	return o.FinalState == session.StateCommitted
}

// FailedStep returns the name of the failed step, or "" if all steps
// succeeded.
func (o *Outcome) FailedStep() string {
	for _, s := range o.Steps {
		if !s.Succeeded {
			return s.Step
		}
	}
	return ""
}

// HistorySink receives completed outcomes. Implemented by the stores in
// pkg/history. Appends are best-effort and off the run's critical path.
type HistorySink interface {
	Append(ctx context.Context, outcome *Outcome) error
}
