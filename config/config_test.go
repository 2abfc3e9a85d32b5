package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.25, cfg.Weights.Credit)
	assert.Equal(t, 0.75, cfg.Thresholds.Approve)
	assert.Equal(t, 30*time.Second, cfg.AgentTimeout.Std())
	assert.Equal(t, "static", cfg.Extractor)
	assert.True(t, cfg.IsCritical("document_processing"))
	assert.False(t, cfg.IsCritical("underwriting"))
}

func TestWeightsByDomain(t *testing.T) {
	byDomain := Default().Weights.ByDomain()
	require.Len(t, byDomain, 6)

	var sum float64
	for _, w := range byDomain {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Weights.Credit = 0.5
	assert.ErrorContains(t, cfg.Validate(), "sum to 1")

	cfg = Default()
	cfg.Weights.Risk = -0.2
	cfg.Weights.Credit += 0.4
	assert.ErrorContains(t, cfg.Validate(), "negative")
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := Default()
	cfg.Thresholds.Approve = 0.5
	cfg.Thresholds.Conditional = 0.6
	assert.ErrorContains(t, cfg.Validate(), "must exceed")
}

func TestValidateRejectsUnknownExtractor(t *testing.T) {
	cfg := Default()
	cfg.Extractor = "psychic"
	assert.ErrorContains(t, cfg.Validate(), "extractor")
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
thresholds:
  approve: 0.8
  conditional: 0.6
agent_timeout: 5s
log_format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden fields.
	assert.Equal(t, 0.8, cfg.Thresholds.Approve)
	assert.Equal(t, 0.6, cfg.Thresholds.Conditional)
	assert.Equal(t, 5*time.Second, cfg.AgentTimeout.Std())
	assert.Equal(t, "json", cfg.LogFormat)

	// Untouched fields keep their defaults.
	assert.Equal(t, 0.10, cfg.Weights.Document)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights:\n  credit: 0.9\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
