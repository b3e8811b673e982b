package artifact

import (
	"fmt"
	"time"
)

type RunState string

const (
	RunStarted RunState = "STARTED"
	RunDone    RunState = "DONE"
	RunFailed  RunState = "FAILED"
)

// RunStatus is the single build-status record for a workspace.
// FailedStage is 1-based and only meaningful when Status is FAILED.
type RunStatus struct {
	RunID       string        `json:"run_id"`
	Status      RunState      `json:"status"`
	FailedStage int           `json:"failed_stage,omitempty"`
	Stage       string        `json:"stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	Verdict     string        `json:"verdict,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Stages      []StageRecord `json:"stages"`
}

// StageRecord is one line of the run history.
type StageRecord struct {
	Index   int          `json:"index"`
	Key     string       `json:"key"`
	Outcome StageOutcome `json:"outcome"`
	Detail  string       `json:"detail,omitempty"`
}

type StageOutcome string

const (
	OutcomeRan     StageOutcome = "ran"
	OutcomeCached  StageOutcome = "cached"
	OutcomeSkipped StageOutcome = "skipped"
	OutcomeHealed  StageOutcome = "healed"
	OutcomeFailed  StageOutcome = "failed"
)

// Label renders the status the way the CLI and /status report it.
func (s RunStatus) Label() string {
	if s.Status == RunFailed {
		return fmt.Sprintf("FAILED-at-stage-%d", s.FailedStage)
	}
	return string(s.Status)
}
