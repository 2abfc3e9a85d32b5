package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/hupe1980/mortgagemesh/config"
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/docstore"
	"github.com/hupe1980/mortgagemesh/internal/util"
	"github.com/hupe1980/mortgagemesh/logging"
	"github.com/hupe1980/mortgagemesh/metrics"
	"github.com/hupe1980/mortgagemesh/registry"
	"github.com/hupe1980/mortgagemesh/workflow"
)

// Dispatcher routes method calls onto the orchestrator and the registry. It
// serves both transports: the HTTP JSON-RPC server and the CLI.
type Dispatcher struct {
	orch      *workflow.Orchestrator
	registry  *registry.Registry
	cfg       *config.Config
	documents docstore.Store
	logger    logging.Logger
	metrics   *metrics.Recorder
	started   time.Time
}

// DispatcherOptions configure optional dispatcher collaborators.
type DispatcherOptions struct {
	Logger    logging.Logger
	Metrics   *metrics.Recorder
	Documents docstore.Store
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(orch *workflow.Orchestrator, reg *registry.Registry, cfg *config.Config, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Documents == nil {
		opts.Documents = docstore.NewInMemoryStore()
	}
	return &Dispatcher{
		orch:      orch,
		registry:  reg,
		cfg:       cfg,
		documents: opts.Documents,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		started:   time.Now(),
	}
}

// Dispatch routes one method call. Unknown methods yield CodeMethodNotFound.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, params json.RawMessage) (any, *Error) {
	started := time.Now()

	result, rpcErr := d.dispatch(ctx, method, params)

	outcome := "ok"
	if rpcErr != nil {
		outcome = "error"
		d.logger.Warn("rpc.failed", "method", method, "code", rpcErr.Code, "error", rpcErr.Message)
	} else {
		d.logger.Debug("rpc.ok", "method", method, "latency_ms", time.Since(started).Milliseconds())
	}
	d.metrics.RPCRequest(method, outcome, time.Since(started))

	return result, rpcErr
}

func (d *Dispatcher) dispatch(ctx context.Context, method string, params json.RawMessage) (any, *Error) {
	switch method {
	case "workflow/start":
		return d.workflowStart(params)
	case "workflow/status":
		return d.workflowStatus(params)
	case "workflow/list":
		return d.workflowList()
	case "workflow/cancel":
		return d.workflowCancel(params)
	case "agents/list":
		return d.agentsList(), nil
	case "agents/info":
		return d.agentsInfo(params)
	case "tools/list":
		return d.toolsList(), nil
	case "tools/call":
		return d.toolsCall(ctx, params)
	case "documents/upload":
		return d.documentsUpload(params)
	case "documents/get":
		return d.documentsGet(params)
	case "documents/list":
		return d.documentsList(params)
	case "system/health":
		return d.systemHealth(), nil
	case "system/cleanup":
		return d.systemCleanup(params)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: "method not found: " + method}
	}
}

func (d *Dispatcher) workflowStart(params json.RawMessage) (any, *Error) {
	var p struct {
		Application *core.Application `json:"application"`
		Mode        string            `json:"mode"`
		Steps       []string          `json:"steps"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}

	rec, err := d.orch.Start(workflow.StartRequest{
		Application: p.Application,
		Mode:        core.WorkflowMode(p.Mode),
		Steps:       p.Steps,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return rec, nil
}

func (d *Dispatcher) workflowStatus(params json.RawMessage) (any, *Error) {
	id, err := decodeExecutionID(params)
	if err != nil {
		return nil, invalidParams(err)
	}
	rec, svcErr := d.orch.Status(id)
	if svcErr != nil {
		return nil, serviceError(svcErr)
	}
	return rec, nil
}

func (d *Dispatcher) workflowList() (any, *Error) {
	recs, err := d.orch.List()
	if err != nil {
		return nil, serviceError(err)
	}
	return map[string]any{
		"executions": recs,
		"count":      len(recs),
	}, nil
}

func (d *Dispatcher) workflowCancel(params json.RawMessage) (any, *Error) {
	id, err := decodeExecutionID(params)
	if err != nil {
		return nil, invalidParams(err)
	}
	rec, svcErr := d.orch.Cancel(id)
	if svcErr != nil {
		return nil, serviceError(svcErr)
	}
	return rec, nil
}

func (d *Dispatcher) agentsList() any {
	agents := d.registry.Agents()
	out := make([]map[string]any, 0, len(agents))
	for _, a := range agents {
		toolNames := make([]string, 0, len(a.Tools()))
		for _, t := range a.Tools() {
			toolNames = append(toolNames, t.Name())
		}
		out = append(out, map[string]any{
			"name":        a.Name(),
			"description": a.Description(),
			"domain":      a.Domain(),
			"critical":    a.Critical(),
			"tools":       toolNames,
		})
	}
	return map[string]any{"agents": out, "count": len(out)}
}

func (d *Dispatcher) agentsInfo(params json.RawMessage) (any, *Error) {
	var p struct {
		Name string `json:"name"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}

	a, err := d.registry.Agent(p.Name)
	if err != nil {
		return nil, serviceError(err)
	}

	tools := make([]map[string]any, 0, len(a.Tools()))
	for _, t := range a.Tools() {
		tools = append(tools, map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  t.Parameters(),
		})
	}
	return map[string]any{
		"name":        a.Name(),
		"description": a.Description(),
		"domain":      a.Domain(),
		"critical":    a.Critical(),
		"weight":      d.cfg.Weights.ByDomain()[a.Domain()],
		"tools":       tools,
	}, nil
}

func (d *Dispatcher) toolsList() any {
	tools := d.registry.Tools()
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  t.Parameters(),
		})
	}
	return map[string]any{"tools": out, "count": len(out)}
}

func (d *Dispatcher) toolsCall(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p struct {
		Name        string            `json:"name"`
		Arguments   map[string]any    `json:"arguments"`
		Application *core.Application `json:"application"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}

	t, err := d.registry.Tool(p.Name)
	if err != nil {
		return nil, serviceError(err)
	}

	app := p.Application
	if app == nil {
		app = &core.Application{}
	}
	if p.Arguments == nil {
		p.Arguments = map[string]any{}
	}

	rc := core.NewRunContext(ctx, "adhoc", app, d.logger)
	out, err := t.Call(core.NewToolContext(rc, util.NewID()), p.Arguments)
	if err != nil {
		return nil, serviceError(err)
	}
	return map[string]any{"tool": p.Name, "output": out}, nil
}

func (d *Dispatcher) documentsUpload(params json.RawMessage) (any, *Error) {
	var p struct {
		ApplicationID string `json:"application_id"`
		DocumentID    string `json:"document_id"`
		ContentType   string `json:"content_type"`
		Content       string `json:"content"` // base64
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}

	data, err := base64.StdEncoding.DecodeString(p.Content)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid params: content must be base64"}
	}

	meta, svcErr := d.documents.Put(p.ApplicationID, p.DocumentID, p.ContentType, data)
	if svcErr != nil {
		return nil, serviceError(svcErr)
	}
	return meta, nil
}

func (d *Dispatcher) documentsGet(params json.RawMessage) (any, *Error) {
	var p struct {
		ApplicationID string `json:"application_id"`
		DocumentID    string `json:"document_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}

	meta, data, err := d.documents.Get(p.ApplicationID, p.DocumentID)
	if err != nil {
		return nil, serviceError(err)
	}
	return map[string]any{
		"meta":    meta,
		"content": base64.StdEncoding.EncodeToString(data),
	}, nil
}

func (d *Dispatcher) documentsList(params json.RawMessage) (any, *Error) {
	var p struct {
		ApplicationID string `json:"application_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}

	metas, err := d.documents.List(p.ApplicationID)
	if err != nil {
		return nil, serviceError(err)
	}
	return map[string]any{"documents": metas, "count": len(metas)}, nil
}

func (d *Dispatcher) systemHealth() any {
	agents := len(d.registry.AgentNames())
	tools := len(d.registry.Tools())

	var issues []string
	if agents == 0 {
		issues = append(issues, "no agents registered")
	}
	if tools == 0 {
		issues = append(issues, "no tools registered")
	}

	status := "ok"
	if len(issues) > 0 {
		status = "unhealthy"
	}

	out := map[string]any{
		"status":  status,
		"uptime":  time.Since(d.started).String(),
		"agents":  agents,
		"tools":   tools,
		"version": "1.0.0",
	}
	if len(issues) > 0 {
		out["issues"] = issues
	}
	return out
}

func (d *Dispatcher) systemCleanup(params json.RawMessage) (any, *Error) {
	var p struct {
		OlderThan string `json:"older_than"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}

	age := d.cfg.CleanupAge.Std()
	if p.OlderThan != "" {
		parsed, err := time.ParseDuration(p.OlderThan)
		if err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: "invalid params: older_than must be a duration like 24h"}
		}
		age = parsed
	}

	removed, err := d.orch.Cleanup(age)
	if err != nil {
		return nil, serviceError(err)
	}
	return map[string]any{"removed": removed, "older_than": age.String()}, nil
}

// decodeParams tolerates absent params for methods whose fields are all
// optional; concrete handlers validate the fields they require.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	return json.Unmarshal(params, v)
}

func decodeExecutionID(params json.RawMessage) (string, error) {
	var p struct {
		ExecutionID string `json:"execution_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return "", err
	}
	if p.ExecutionID == "" {
		return "", core.NewValidationError("execution_id", "execution id is required")
	}
	return p.ExecutionID, nil
}
