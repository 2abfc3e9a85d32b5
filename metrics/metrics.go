// Package metrics exposes Prometheus instrumentation for the orchestrator
// and the protocol surface. A nil *Recorder is valid and records nothing, so
// callers never need to branch on whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder bundles the collectors. Construct one per process.
type Recorder struct {
	executionsStarted   *prometheus.CounterVec
	executionsCompleted *prometheus.CounterVec
	agentDuration       *prometheus.HistogramVec
	rpcRequests         *prometheus.CounterVec
	rpcDuration         *prometheus.HistogramVec
}

// NewRecorder registers the collectors with the given registerer.
// Pass prometheus.DefaultRegisterer for normal operation.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		executionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mortgagemesh",
			Name:      "executions_started_total",
			Help:      "Workflow executions started, by mode.",
		}, []string{"mode"}),
		executionsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mortgagemesh",
			Name:      "executions_completed_total",
			Help:      "Workflow executions reaching a terminal status, by mode and status.",
		}, []string{"mode", "status"}),
		agentDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mortgagemesh",
			Name:      "agent_duration_seconds",
			Help:      "Agent run duration, by agent and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent", "success"}),
		rpcRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mortgagemesh",
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests, by method and outcome.",
		}, []string{"method", "outcome"}),
		rpcDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mortgagemesh",
			Name:      "rpc_request_duration_seconds",
			Help:      "JSON-RPC request duration, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// ExecutionStarted counts a workflow start.
func (r *Recorder) ExecutionStarted(mode string) {
	if r == nil {
		return
	}
	r.executionsStarted.WithLabelValues(mode).Inc()
}

// ExecutionCompleted counts a workflow reaching a terminal status.
func (r *Recorder) ExecutionCompleted(mode, status string) {
	if r == nil {
		return
	}
	r.executionsCompleted.WithLabelValues(mode, status).Inc()
}

// AgentRun observes one agent run.
func (r *Recorder) AgentRun(agent string, success bool, d time.Duration) {
	if r == nil {
		return
	}
	label := "false"
	if success {
		label = "true"
	}
	r.agentDuration.WithLabelValues(agent, label).Observe(d.Seconds())
}

// RPCRequest observes one JSON-RPC request.
func (r *Recorder) RPCRequest(method, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.rpcRequests.WithLabelValues(method, outcome).Inc()
	r.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}
