package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mortgagemesh/agent"
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
)

func TestRegistryResolvesBuiltins(t *testing.T) {
	r := New(extract.NewStaticExtractor())

	assert.Equal(t, agent.Order, r.AgentNames())
	assert.Len(t, r.Tools(), 18)

	a, err := r.Agent(agent.StepRiskAssessment)
	require.NoError(t, err)
	assert.Equal(t, "risk", a.Domain())

	tl, err := r.Tool("pep_sanctions_checker")
	require.NoError(t, err)
	assert.NotEmpty(t, tl.Parameters())
}

func TestRegistryNotFound(t *testing.T) {
	r := New(extract.NewStaticExtractor())

	_, err := r.Agent("appraisal")
	var nfErr *core.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "agent", nfErr.Kind)

	_, err = r.Tool("crystal_ball")
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "tool", nfErr.Kind)
}
