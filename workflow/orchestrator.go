// Package workflow implements the mortgage processing orchestrator: it
// dispatches the specialized agents over an application (sequentially or in
// parallel), tracks execution state in the store and aggregates the agent
// results into the final loan decision.
package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/mortgagemesh/agent"
	"github.com/hupe1980/mortgagemesh/config"
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/internal/util"
	"github.com/hupe1980/mortgagemesh/logging"
	"github.com/hupe1980/mortgagemesh/metrics"
	"github.com/hupe1980/mortgagemesh/registry"
	"github.com/hupe1980/mortgagemesh/store"
)

// errRunHalted signals that the record reached a terminal status through
// another path (Cancel) and the run loop must stop writing.
var errRunHalted = errors.New("run halted: record already terminal")

// StartRequest describes one workflow start.
type StartRequest struct {
	Application *core.Application
	Mode        core.WorkflowMode
	// Steps optionally restricts the run to a subset of step identifiers.
	// Unselected steps are recorded as skipped and excluded from decision
	// weighting. Empty means all steps.
	Steps []string
}

// Options configure optional orchestrator collaborators.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Recorder
}

// Orchestrator runs workflows. All exported methods are safe for concurrent
// use; Start returns immediately and the run proceeds in the background.
type Orchestrator struct {
	registry *registry.Registry
	store    store.ExecutionStore
	cfg      *config.Config
	logger   logging.Logger
	metrics  *metrics.Recorder

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an orchestrator.
func New(reg *registry.Registry, st store.ExecutionStore, cfg *config.Config, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Orchestrator{
		registry: reg,
		store:    st,
		cfg:      cfg,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		active:   make(map[string]context.CancelFunc),
	}
}

// Start validates the request, persists a PENDING record and launches the
// run in the background. Validation failures surface before any record is
// created, so a rejected start leaves no trace in the store.
func (o *Orchestrator) Start(req StartRequest) (*core.ExecutionRecord, error) {
	if req.Application == nil {
		return nil, core.NewValidationError("application", "application is required")
	}
	if err := req.Application.Validate(); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = core.ModeSequential
	}
	if !mode.Valid() {
		return nil, &core.ValidationError{
			Field:   "mode",
			Message: "unknown workflow mode",
			Detail:  []string{string(core.ModeSequential), string(core.ModeParallel)},
		}
	}

	selected, err := o.resolveSteps(req.Steps)
	if err != nil {
		return nil, err
	}

	rec := &core.ExecutionRecord{
		ID:            util.NewID(),
		ApplicationID: req.Application.ID,
		Mode:          mode,
		Status:        core.ExecutionPending,
		Steps:         make(map[string]core.StepStatus, len(o.registry.AgentNames())),
		StartedAt:     time.Now(),
	}
	for _, name := range o.registry.AgentNames() {
		if contains(selected, name) {
			rec.Steps[name] = core.StepPending
		} else {
			rec.Steps[name] = core.StepSkipped
		}
	}

	if err := o.store.Create(rec); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.active[rec.ID] = cancel
	o.mu.Unlock()

	o.metrics.ExecutionStarted(string(mode))
	o.logger.Info("workflow.start",
		"execution_id", rec.ID,
		"application_id", rec.ApplicationID,
		"mode", string(mode),
		"steps", len(selected),
	)

	app := req.Application.Clone()
	o.wg.Add(1)
	go o.run(runCtx, rec.ID, app, mode, selected)

	return rec.Clone(), nil
}

// Status returns a snapshot of the identified execution.
func (o *Orchestrator) Status(id string) (*core.ExecutionRecord, error) {
	return o.store.Get(id)
}

// List returns snapshots of all executions, newest first.
func (o *Orchestrator) List() ([]*core.ExecutionRecord, error) {
	return o.store.List()
}

// Cancel moves a non-terminal execution to CANCELLED and interrupts its run.
// Cancelling an already terminal execution returns core.ErrAlreadyTerminal
// and leaves the record untouched.
func (o *Orchestrator) Cancel(id string) (*core.ExecutionRecord, error) {
	rec, err := o.store.Update(id, func(r *core.ExecutionRecord) error {
		if r.Status.Terminal() {
			return core.ErrAlreadyTerminal
		}
		r.Status = core.ExecutionCancelled
		r.Error = "cancelled by caller"
		r.CompletedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if cancel, ok := o.active[id]; ok {
		cancel()
	}
	o.mu.Unlock()

	o.metrics.ExecutionCompleted(string(rec.Mode), string(core.ExecutionCancelled))
	o.logger.Info("workflow.cancel", "execution_id", id)

	return rec, nil
}

// Cleanup removes terminal executions older than age and reports how many
// were removed.
func (o *Orchestrator) Cleanup(age time.Duration) (int, error) {
	if age < 0 {
		return 0, core.NewValidationError("age", "age must not be negative")
	}
	removed, err := o.store.DeleteOlderThan(age)
	if err == nil && removed > 0 {
		o.logger.Info("workflow.cleanup", "removed", removed)
	}
	return removed, err
}

// Wait blocks until all in-flight runs have finished. Intended for tests and
// graceful shutdown.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// resolveSteps validates and canonicalizes a step selection. The result is
// in canonical order with duplicates removed.
func (o *Orchestrator) resolveSteps(steps []string) ([]string, error) {
	known := o.registry.AgentNames()
	if len(steps) == 0 {
		return known, nil
	}

	requested := make(map[string]bool, len(steps))
	for _, s := range steps {
		if _, err := o.registry.Agent(s); err != nil {
			return nil, &core.ValidationError{
				Field:   "steps",
				Message: "unknown step: " + s,
				Detail:  known,
			}
		}
		requested[s] = true
	}

	var selected []string
	for _, name := range known {
		if requested[name] {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

func (o *Orchestrator) run(ctx context.Context, id string, app *core.Application, mode core.WorkflowMode, selected []string) {
	defer func() {
		o.mu.Lock()
		if cancel, ok := o.active[id]; ok {
			cancel()
			delete(o.active, id)
		}
		o.mu.Unlock()
		o.wg.Done()
	}()

	if err := o.transition(id, core.ExecutionRunning, nil); err != nil {
		return
	}

	rc := core.NewRunContext(ctx, id, app, o.logger)

	var (
		results []core.AgentResult
		err     error
	)
	switch mode {
	case core.ModeParallel:
		results, err = o.runParallel(rc, id, selected)
	default:
		results, err = o.runSequential(rc, id, selected, len(selected), mode)
	}

	if err != nil {
		if errors.Is(err, errRunHalted) {
			return
		}
		o.finish(id, mode, core.ExecutionFailed, nil, err.Error())
		return
	}

	if ctx.Err() != nil {
		// Cancelled mid-run. Cancel already wrote the terminal status, and
		// recordStep persisted every result that completed before the cut,
		// so there is nothing left to attach here.
		return
	}

	decision := o.decide(app, results)
	o.finish(id, mode, core.ExecutionCompleted, decision, "")
}

// runSequential executes the selected steps in canonical order, sharing one
// run context so earlier stages can feed later ones. A failed critical step
// aborts the remainder of the chain.
func (o *Orchestrator) runSequential(rc *core.RunContext, id string, selected []string, totalSteps int, mode core.WorkflowMode) ([]core.AgentResult, error) {
	var results []core.AgentResult

	for i, name := range selected {
		if rc.Context().Err() != nil {
			return results, nil
		}

		a, err := o.registry.Agent(name)
		if err != nil {
			return results, &core.OrchestrationFault{Op: "dispatch", Err: err}
		}

		if err := o.setStep(id, name, core.StepRunning); err != nil {
			return results, err
		}

		res, err := a.Run(rc)
		if err != nil {
			return results, &core.OrchestrationFault{Op: "run", Err: err}
		}
		results = append(results, *res)
		o.metrics.AgentRun(name, res.Success, res.Duration)

		stepStatus := core.StepCompleted
		if !res.Success {
			stepStatus = core.StepFailed
		}
		progress := float64(i+1) / float64(totalSteps)
		if err := o.recordStep(id, name, stepStatus, *res, progress); err != nil {
			return results, err
		}

		if !res.Success && o.isCritical(a) {
			o.finish(id, mode, core.ExecutionFailed, nil,
				"critical step failed: "+name)
			return results, errRunHalted
		}
	}
	return results, nil
}

// runParallel runs the document stage first when selected (it is the
// critical gate and seeds shared extraction state), then fans out the
// remaining steps concurrently, each under the configured per-agent timeout.
// A timed-out agent yields a failed result; it never fails the workflow.
func (o *Orchestrator) runParallel(rc *core.RunContext, id string, selected []string) ([]core.AgentResult, error) {
	var results []core.AgentResult

	rest := selected
	if contains(selected, agent.StepDocumentProcessing) {
		seq, err := o.runSequential(rc, id, []string{agent.StepDocumentProcessing}, len(selected), core.ModeParallel)
		if err != nil {
			return seq, err
		}
		results = append(results, seq...)
		rest = without(selected, agent.StepDocumentProcessing)
	}

	if rc.Context().Err() != nil {
		return results, nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		haltErr error
	)

	for _, name := range rest {
		a, err := o.registry.Agent(name)
		if err != nil {
			return results, &core.OrchestrationFault{Op: "dispatch", Err: err}
		}

		if err := o.setStep(id, name, core.StepRunning); err != nil {
			return results, err
		}

		wg.Add(1)
		go func(a agent.Agent) {
			defer wg.Done()

			agentCtx, cancel := context.WithTimeout(rc.Context(), o.cfg.AgentTimeout.Std())
			defer cancel()

			res, err := a.Run(rc.WithContext(agentCtx))
			if err != nil {
				mu.Lock()
				if haltErr == nil {
					haltErr = &core.OrchestrationFault{Op: "run", Err: err}
				}
				mu.Unlock()
				return
			}
			if agentCtx.Err() == context.DeadlineExceeded && res.Success {
				res.Success = false
				res.Kind = core.FailureTimeout
				res.Error = "agent timed out"
			}
			o.metrics.AgentRun(a.Name(), res.Success, res.Duration)

			stepStatus := core.StepCompleted
			if !res.Success {
				stepStatus = core.StepFailed
			}

			mu.Lock()
			results = append(results, *res)
			done := len(results)
			mu.Unlock()

			progress := float64(done) / float64(len(selected))
			if err := o.recordStep(id, a.Name(), stepStatus, *res, progress); err != nil {
				mu.Lock()
				if haltErr == nil {
					haltErr = err
				}
				mu.Unlock()
			}
		}(a)
	}

	wg.Wait()
	if haltErr != nil {
		return results, haltErr
	}

	// Stable record order regardless of completion order.
	order := make(map[string]int, len(selected))
	for i, name := range selected {
		order[name] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].Agent] < order[results[j].Agent]
	})

	return results, nil
}

func (o *Orchestrator) isCritical(a agent.Agent) bool {
	if len(o.cfg.CriticalSteps) > 0 {
		return o.cfg.IsCritical(a.Name())
	}
	return a.Critical()
}

// transition moves the record to next, respecting status monotonicity. A
// record already terminal yields errRunHalted.
func (o *Orchestrator) transition(id string, next core.ExecutionStatus, extra func(r *core.ExecutionRecord)) error {
	_, err := o.store.Update(id, func(r *core.ExecutionRecord) error {
		if !r.Status.CanTransition(next) {
			return errRunHalted
		}
		r.Status = next
		if extra != nil {
			extra(r)
		}
		return nil
	})
	return err
}

func (o *Orchestrator) setStep(id, step string, status core.StepStatus) error {
	_, err := o.store.Update(id, func(r *core.ExecutionRecord) error {
		if r.Status.Terminal() {
			return errRunHalted
		}
		r.Steps[step] = status
		return nil
	})
	return err
}

func (o *Orchestrator) recordStep(id, step string, status core.StepStatus, res core.AgentResult, progress float64) error {
	_, err := o.store.Update(id, func(r *core.ExecutionRecord) error {
		if r.Status.Terminal() {
			return errRunHalted
		}
		r.Steps[step] = status
		r.Results = append(r.Results, res.Clone())
		if progress > r.Progress {
			r.Progress = progress
		}
		return nil
	})
	return err
}

func (o *Orchestrator) finish(id string, mode core.WorkflowMode, status core.ExecutionStatus, decision *core.LoanDecision, errMsg string) {
	err := o.transition(id, status, func(r *core.ExecutionRecord) {
		r.Decision = decision
		r.Error = errMsg
		r.CompletedAt = time.Now()
		if status == core.ExecutionCompleted {
			r.Progress = 1
		}
	})
	if err != nil {
		if !errors.Is(err, errRunHalted) {
			o.logger.Error("workflow.finish_failed", "execution_id", id, "error", err.Error())
		}
		return
	}

	o.metrics.ExecutionCompleted(string(mode), string(status))
	o.logger.Info("workflow.done", "execution_id", id, "status", string(status))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func without(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
