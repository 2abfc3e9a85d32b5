package agent

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/internal/util"
	"github.com/hupe1980/mortgagemesh/tool"
)

// call binds a tool to an argument builder. The builder sees the results
// accumulated so far, so later tools in an agent can consume earlier outputs.
type call struct {
	tool tool.Tool
	args func(rc *core.RunContext, sofar *core.AgentResult) map[string]any
}

// DomainAgent is the shared implementation behind all built-in agents. The
// plan function yields the tool calls for one run (recomputed per run so
// document-driven agents can scale with the attachment count), reduce folds
// the successful tool scores into the domain score, and finalize gets a last
// look at the completed result for domain-specific post-processing.
type DomainAgent struct {
	name        string
	description string
	domain      string
	critical    bool
	tools       []tool.Tool
	plan        func(rc *core.RunContext) []call
	reduce      func(scores []float64) float64
	finalize    func(rc *core.RunContext, res *core.AgentResult)
}

// Name returns the agent's step identifier.
func (a *DomainAgent) Name() string { return a.name }

// Description returns a short description of the agent's responsibility.
func (a *DomainAgent) Description() string { return a.description }

// Domain returns the scoring domain key used for decision weighting.
func (a *DomainAgent) Domain() string { return a.domain }

// Critical reports whether a failure of this agent aborts a sequential run.
func (a *DomainAgent) Critical() bool { return a.critical }

// Tools returns the agent's tool catalog.
func (a *DomainAgent) Tools() []tool.Tool { return a.tools }

// Run implements Agent. Tools execute in plan order; each failure is
// absorbed into a failed ToolResult and the remaining tools still run.
// Context expiry stops the run at the next tool boundary. When tool names
// are given, only those tools execute; an unknown name fails fast with a
// validation error before any tool runs.
func (a *DomainAgent) Run(runCtx *core.RunContext, tools ...string) (*core.AgentResult, error) {
	selected, err := a.selectTools(tools)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logger := runCtx.Logger()

	res := &core.AgentResult{Agent: a.name, Success: true}

	logger.Info("agent.run.start",
		"agent", a.name,
		"execution_id", runCtx.ExecutionID(),
		"application_id", runCtx.Application().ID,
	)

	for _, c := range a.plan(runCtx) {
		if selected != nil && !selected[c.tool.Name()] {
			continue
		}
		if err := runCtx.Context().Err(); err != nil {
			res.Success = false
			res.Error = err.Error()
			res.Kind = contextFailureKind(err)
			break
		}

		tr := a.invoke(runCtx, c, res)
		res.ToolResults = append(res.ToolResults, tr)
		if !tr.Success {
			res.Success = false
			if res.Kind == core.FailureNone {
				res.Kind = tr.Kind
			}
			if res.Error == "" {
				res.Error = tr.Error
			}
		}
	}

	res.Score = a.reduceScores(res.ToolResults)
	if a.finalize != nil {
		a.finalize(runCtx, res)
	}

	res.Duration = time.Since(start)
	res.CompletedAt = time.Now()

	logger.Info("agent.run.done",
		"agent", a.name,
		"execution_id", runCtx.ExecutionID(),
		"success", res.Success,
		"score", res.Score,
		"duration", res.Duration.String(),
	)

	return res, nil
}

// selectTools resolves an optional tool-name subset against the agent's
// catalog. A nil map means every tool runs.
func (a *DomainAgent) selectTools(names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}

	valid := make([]string, 0, len(a.tools))
	catalog := make(map[string]bool, len(a.tools))
	for _, t := range a.tools {
		valid = append(valid, t.Name())
		catalog[t.Name()] = true
	}

	selected := make(map[string]bool, len(names))
	for _, n := range names {
		if !catalog[n] {
			return nil, &core.ValidationError{
				Field:   "tools",
				Message: "unknown tool: " + n,
				Detail:  valid,
			}
		}
		selected[n] = true
	}
	return selected, nil
}

func (a *DomainAgent) invoke(runCtx *core.RunContext, c call, sofar *core.AgentResult) core.ToolResult {
	toolCtx := core.NewToolContext(runCtx, util.NewID())

	start := time.Now()
	out, err := c.tool.Call(toolCtx, c.args(runCtx, sofar))
	duration := time.Since(start)

	if err != nil {
		kind := core.FailureInternal
		var te *tool.ToolError
		if errors.As(err, &te) {
			kind = te.FailureKind()
		}
		if ctxErr := runCtx.Context().Err(); ctxErr != nil {
			kind = contextFailureKind(ctxErr)
		}
		return core.ToolResult{
			Tool:     c.tool.Name(),
			Success:  false,
			Error:    err.Error(),
			Kind:     kind,
			Duration: duration,
		}
	}

	tr := core.ToolResult{
		Tool:     c.tool.Name(),
		Success:  true,
		Data:     out,
		Duration: duration,
	}
	if score, ok := out["score"].(float64); ok {
		tr.Score = score
	}
	if conf, ok := out["confidence"].(float64); ok {
		tr.Confidence = conf
	}
	return tr
}

func (a *DomainAgent) reduceScores(results []core.ToolResult) float64 {
	var scores []float64
	for _, tr := range results {
		if tr.Success {
			scores = append(scores, tr.Score)
		}
	}
	if len(scores) == 0 {
		return 0
	}
	if a.reduce != nil {
		return a.reduce(scores)
	}
	return meanScore(scores)
}

func meanScore(scores []float64) float64 {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func minScore(scores []float64) float64 {
	min := scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
	}
	return min
}

func contextFailureKind(err error) core.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.FailureTimeout
	}
	return core.FailureInternal
}

// staticPlan adapts a fixed call list into a plan function.
func staticPlan(calls ...call) func(*core.RunContext) []call {
	return func(*core.RunContext) []call { return calls }
}
