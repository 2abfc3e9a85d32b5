package core

import "time"

// ExecutionStatus is the lifecycle state of one workflow run. Transitions are
// monotonic: a terminal status never reverts to PENDING or RUNNING.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "PENDING"
	ExecutionRunning   ExecutionStatus = "RUNNING"
	ExecutionCompleted ExecutionStatus = "COMPLETED"
	ExecutionFailed    ExecutionStatus = "FAILED"
	ExecutionCancelled ExecutionStatus = "CANCELLED"
)

// Terminal reports whether the status is final.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionCompleted, ExecutionFailed, ExecutionCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next preserves monotonicity.
func (s ExecutionStatus) CanTransition(next ExecutionStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case ExecutionPending:
		return next == ExecutionRunning || next.Terminal()
	case ExecutionRunning:
		return next.Terminal()
	}
	return false
}

// WorkflowMode selects the agent dispatch strategy.
type WorkflowMode string

const (
	ModeSequential WorkflowMode = "sequential"
	ModeParallel   WorkflowMode = "parallel"
)

// Valid reports whether the mode is one of the supported strategies.
func (m WorkflowMode) Valid() bool {
	return m == ModeSequential || m == ModeParallel
}

// StepStatus is the per-step view inside an execution record. SKIPPED marks a
// step that was excluded by the caller's step selection, distinct from FAILED.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// ExecutionRecord is the mutable state of one workflow run. The store owns
// all records; the orchestrator is the only writer; external readers receive
// deep copies, never live references.
type ExecutionRecord struct {
	ID            string                `json:"execution_id"`
	ApplicationID string                `json:"application_id"`
	Mode          WorkflowMode          `json:"mode"`
	Status        ExecutionStatus       `json:"status"`
	Progress      float64               `json:"progress"`
	Steps         map[string]StepStatus `json:"steps"`
	Results       []AgentResult         `json:"results,omitempty"`
	Decision      *LoanDecision         `json:"decision,omitempty"`
	Error         string                `json:"error,omitempty"`
	StartedAt     time.Time             `json:"started_at"`
	CompletedAt   time.Time             `json:"completed_at,omitempty"`
}

// Clone returns a deep copy suitable for handing to concurrent readers.
func (r *ExecutionRecord) Clone() *ExecutionRecord {
	cp := *r
	cp.Steps = make(map[string]StepStatus, len(r.Steps))
	for k, v := range r.Steps {
		cp.Steps[k] = v
	}
	cp.Results = make([]AgentResult, len(r.Results))
	for i, ar := range r.Results {
		cp.Results[i] = ar.Clone()
	}
	cp.Decision = r.Decision.Clone()
	return &cp
}

// ResultFor returns the recorded result for the named agent, or nil.
func (r *ExecutionRecord) ResultFor(agent string) *AgentResult {
	for i := range r.Results {
		if r.Results[i].Agent == agent {
			return &r.Results[i]
		}
	}
	return nil
}
