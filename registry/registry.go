// Package registry indexes the agents and tools available to the
// orchestrator and the protocol surface. A Registry is immutable after
// construction and therefore safe for unsynchronized concurrent reads.
package registry

import (
	"github.com/hupe1980/mortgagemesh/agent"
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/hupe1980/mortgagemesh/tool"
)

// Registry resolves agents by step identifier and tools by name.
type Registry struct {
	agents     map[string]agent.Agent
	agentOrder []string
	tools      map[string]tool.Tool
	toolOrder  []string
}

// New builds a registry over the full built-in agent set. The extractor
// backs the document processing tools.
func New(ex extract.DocumentExtractor) *Registry {
	return FromAgents(
		agent.NewDocumentAgent(ex),
		agent.NewCreditAgent(),
		agent.NewIncomeAgent(),
		agent.NewPropertyAgent(),
		agent.NewRiskAgent(),
		agent.NewUnderwritingAgent(),
	)
}

// FromAgents builds a registry over an explicit agent set, indexing every
// tool the agents carry. Later agents do not shadow earlier tool names.
func FromAgents(agents ...agent.Agent) *Registry {
	r := &Registry{
		agents: make(map[string]agent.Agent, len(agents)),
		tools:  make(map[string]tool.Tool),
	}
	for _, a := range agents {
		if _, exists := r.agents[a.Name()]; exists {
			continue
		}
		r.agents[a.Name()] = a
		r.agentOrder = append(r.agentOrder, a.Name())
		for _, t := range a.Tools() {
			if _, exists := r.tools[t.Name()]; exists {
				continue
			}
			r.tools[t.Name()] = t
			r.toolOrder = append(r.toolOrder, t.Name())
		}
	}
	return r
}

// Agent resolves a step identifier. Unknown names yield *core.NotFoundError.
func (r *Registry) Agent(name string) (agent.Agent, error) {
	a, ok := r.agents[name]
	if !ok {
		return nil, core.NewNotFoundError("agent", name)
	}
	return a, nil
}

// Tool resolves a tool name. Unknown names yield *core.NotFoundError.
func (r *Registry) Tool(name string) (tool.Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, core.NewNotFoundError("tool", name)
	}
	return t, nil
}

// Agents returns all registered agents in registration order.
func (r *Registry) Agents() []agent.Agent {
	out := make([]agent.Agent, 0, len(r.agentOrder))
	for _, name := range r.agentOrder {
		out = append(out, r.agents[name])
	}
	return out
}

// AgentNames returns the registered step identifiers in registration order.
func (r *Registry) AgentNames() []string {
	return append([]string(nil), r.agentOrder...)
}

// Tools returns all registered tools in registration order.
func (r *Registry) Tools() []tool.Tool {
	out := make([]tool.Tool, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		out = append(out, r.tools[name])
	}
	return out
}
