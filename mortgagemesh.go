// Package mortgagemesh provides a high-level façade over the mortgage
// processing workflow system. Most applications interact with this package
// by:
//  1. Creating a Mesh via New() (optionally overriding config, store,
//     extractor or logger)
//  2. Starting workflow executions over mortgage applications
//  3. Polling status or serving the whole system over JSON-RPC
//
// The façade delegates orchestration to workflow.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing: an in-memory execution store and the deterministic static
// document extractor.
package mortgagemesh

import (
	"time"

	"github.com/hupe1980/mortgagemesh/config"
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/docstore"
	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/hupe1980/mortgagemesh/logging"
	"github.com/hupe1980/mortgagemesh/metrics"
	"github.com/hupe1980/mortgagemesh/registry"
	"github.com/hupe1980/mortgagemesh/rpc"
	"github.com/hupe1980/mortgagemesh/store"
	"github.com/hupe1980/mortgagemesh/workflow"
)

// Options configures the Mesh instance.
type Options struct {
	// Config (defaults to config.Default() if nil)
	Config *config.Config

	// Store (defaults to an in-memory implementation if not provided)
	Store store.ExecutionStore

	// Extractor backs the document intelligence tools (defaults to the
	// deterministic static extractor)
	Extractor extract.DocumentExtractor

	// Documents stores raw uploaded document bytes (defaults to an
	// in-memory implementation if not provided)
	Documents docstore.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Metrics (nil disables instrumentation)
	Metrics *metrics.Recorder
}

// Mesh is the high-level façade aggregating the orchestrator and its
// collaborators.
type Mesh struct {
	cfg        *config.Config
	registry   *registry.Registry
	store      store.ExecutionStore
	documents  docstore.Store
	orch       *workflow.Orchestrator
	dispatcher *rpc.Dispatcher
}

// New creates a new Mesh with optional overrides. Any unset collaborator is
// initialized with its default implementation.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Config:    config.Default(),
		Store:     store.NewInMemoryStore(),
		Extractor: extract.NewStaticExtractor(),
		Documents: docstore.NewInMemoryStore(),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	reg := registry.New(opts.Extractor)

	orch := workflow.New(reg, opts.Store, opts.Config, func(o *workflow.Options) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	dispatcher := rpc.NewDispatcher(orch, reg, opts.Config, func(o *rpc.DispatcherOptions) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
		o.Documents = opts.Documents
	})

	return &Mesh{
		cfg:        opts.Config,
		registry:   reg,
		store:      opts.Store,
		documents:  opts.Documents,
		orch:       orch,
		dispatcher: dispatcher,
	}
}

// Start launches a workflow execution and returns its initial record.
func (m *Mesh) Start(req workflow.StartRequest) (*core.ExecutionRecord, error) {
	return m.orch.Start(req)
}

// Status returns a snapshot of the identified execution.
func (m *Mesh) Status(id string) (*core.ExecutionRecord, error) {
	return m.orch.Status(id)
}

// List returns snapshots of all executions, newest first.
func (m *Mesh) List() ([]*core.ExecutionRecord, error) {
	return m.orch.List()
}

// Cancel cancels a non-terminal execution.
func (m *Mesh) Cancel(id string) (*core.ExecutionRecord, error) {
	return m.orch.Cancel(id)
}

// Cleanup removes terminal executions older than age.
func (m *Mesh) Cleanup(age time.Duration) (int, error) {
	return m.orch.Cleanup(age)
}

// Wait blocks until all in-flight executions have finished.
func (m *Mesh) Wait() { m.orch.Wait() }

// Config returns the active configuration.
func (m *Mesh) Config() *config.Config { return m.cfg }

// Documents returns the document content store.
func (m *Mesh) Documents() docstore.Store { return m.documents }

// Registry returns the agent and tool registry.
func (m *Mesh) Registry() *registry.Registry { return m.registry }

// Orchestrator returns the underlying workflow orchestrator.
func (m *Mesh) Orchestrator() *workflow.Orchestrator { return m.orch }

// Dispatcher returns the JSON-RPC dispatcher, shared by server and CLI.
func (m *Mesh) Dispatcher() *rpc.Dispatcher { return m.dispatcher }
