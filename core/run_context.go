package core

import (
	"context"
	"sync"

	"github.com/hupe1980/mortgagemesh/logging"
)

// RunContext carries the per-execution state shared between the orchestrator
// and the agents it dispatches: the cancellable context, the application under
// assessment and a key/value scratch space through which earlier stages hand
// derived data (document extraction output, verified income figures) to later
// ones. All methods are safe for concurrent use by fan-out agents.
type RunContext struct {
	ctx         context.Context
	executionID string
	application *Application
	logger      logging.Logger

	mu     *sync.RWMutex
	shared map[string]any
}

// NewRunContext constructs a RunContext for one execution.
func NewRunContext(ctx context.Context, executionID string, app *Application, logger logging.Logger) *RunContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &RunContext{
		ctx:         ctx,
		executionID: executionID,
		application: app,
		logger:      logger,
		mu:          &sync.RWMutex{},
		shared:      make(map[string]any),
	}
}

// WithContext returns a view of rc bound to ctx. The view shares the
// application and scratch space with rc; only the context differs. The
// orchestrator uses this to impose per-agent deadlines in parallel runs.
func (rc *RunContext) WithContext(ctx context.Context) *RunContext {
	cp := *rc
	cp.ctx = ctx
	return &cp
}

// Context returns the underlying cancellable context.
func (rc *RunContext) Context() context.Context { return rc.ctx }

// ExecutionID returns the id of the execution this context belongs to.
func (rc *RunContext) ExecutionID() string { return rc.executionID }

// Application returns the application under assessment.
func (rc *RunContext) Application() *Application { return rc.application }

// Logger returns the execution-scoped logger.
func (rc *RunContext) Logger() logging.Logger { return rc.logger }

// SetShared stores a value under key for consumption by later stages.
func (rc *RunContext) SetShared(key string, value any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.shared[key] = value
}

// Shared returns the value stored under key, if any.
func (rc *RunContext) Shared(key string) (any, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	v, ok := rc.shared[key]
	return v, ok
}

// SharedMap returns a shallow copy of the full scratch space.
func (rc *RunContext) SharedMap() map[string]any {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	out := make(map[string]any, len(rc.shared))
	for k, v := range rc.shared {
		out[k] = v
	}
	return out
}

// AppendDocument attaches a document produced mid-run (extraction output).
// Later stages observe it through Application().Documents.
func (rc *RunContext) AppendDocument(doc Document) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.application.Documents = append(rc.application.Documents, doc)
}

// SetDocumentExtracted replaces the extracted field set on the identified
// document. It is a no-op when the document is not attached.
func (rc *RunContext) SetDocumentExtracted(id string, fields map[string]any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for i := range rc.application.Documents {
		if rc.application.Documents[i].ID == id {
			rc.application.Documents[i].Extracted = fields
			return
		}
	}
}

// ToolContext is the view of a RunContext handed to a single tool invocation,
// extended with the tool call id for log correlation.
type ToolContext struct {
	*RunContext
	callID string
}

// NewToolContext wraps a RunContext for one tool invocation.
func NewToolContext(rc *RunContext, callID string) *ToolContext {
	return &ToolContext{RunContext: rc, callID: callID}
}

// CallID returns the tool call identifier.
func (tc *ToolContext) CallID() string { return tc.callID }
