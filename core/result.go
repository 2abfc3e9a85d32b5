package core

import "time"

// FailureKind categorizes why a tool or agent invocation failed. Tool-level
// and agent-level failures are absorbed and recorded; they never abort the
// surrounding workflow on their own.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureValidation FailureKind = "validation"
	FailureTool       FailureKind = "tool_failure"
	FailureTimeout    FailureKind = "timeout"
	FailureInternal   FailureKind = "internal"
)

// ToolResult is the outcome of exactly one tool invocation. It is immutable
// after creation.
type ToolResult struct {
	Tool       string         `json:"tool"`
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data,omitempty"`
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence,omitempty"`
	Error      string         `json:"error,omitempty"`
	Kind       FailureKind    `json:"kind,omitempty"`
	Duration   time.Duration  `json:"duration,omitempty"`
}

// AgentResult aggregates the tool results of one agent invocation. Once the
// agent returns it, the orchestrator owns it exclusively.
type AgentResult struct {
	Agent       string        `json:"agent"`
	ToolResults []ToolResult  `json:"tool_results"`
	Score       float64       `json:"score"`
	Success     bool          `json:"success"`
	Kind        FailureKind   `json:"kind,omitempty"`
	Conditions  []string      `json:"conditions,omitempty"`
	RedFlags    []string      `json:"red_flags,omitempty"`
	HardFail    bool          `json:"hard_fail,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
}

// Result returns the recorded result for the named tool, or nil.
func (r *AgentResult) Result(tool string) *ToolResult {
	for i := range r.ToolResults {
		if r.ToolResults[i].Tool == tool {
			return &r.ToolResults[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the agent result.
func (r AgentResult) Clone() AgentResult {
	cp := r
	cp.ToolResults = make([]ToolResult, len(r.ToolResults))
	for i, tr := range r.ToolResults {
		trc := tr
		if tr.Data != nil {
			trc.Data = make(map[string]any, len(tr.Data))
			for k, v := range tr.Data {
				trc.Data[k] = v
			}
		}
		cp.ToolResults[i] = trc
	}
	cp.Conditions = append([]string(nil), r.Conditions...)
	cp.RedFlags = append([]string(nil), r.RedFlags...)
	return cp
}
