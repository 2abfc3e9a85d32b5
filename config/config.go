// Package config loads and validates orchestrator configuration from YAML.
// Zero-value fields fall back to the defaults, so a partial file only
// overrides what it names.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" or "24h" decode
// directly.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like 30s: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

// Weights are the per-domain contributions to the overall decision score.
// They must sum to 1 across the domains present in a run; domains skipped by
// step selection are renormalized out at aggregation time.
type Weights struct {
	Document     float64 `yaml:"document"`
	Credit       float64 `yaml:"credit"`
	Income       float64 `yaml:"income"`
	Property     float64 `yaml:"property"`
	Risk         float64 `yaml:"risk"`
	Underwriting float64 `yaml:"underwriting"`
}

// ByDomain returns the weights keyed by domain name.
func (w Weights) ByDomain() map[string]float64 {
	return map[string]float64{
		"document":     w.Document,
		"credit":       w.Credit,
		"income":       w.Income,
		"property":     w.Property,
		"risk":         w.Risk,
		"underwriting": w.Underwriting,
	}
}

// Thresholds map the overall score onto a decision.
type Thresholds struct {
	Approve     float64 `yaml:"approve"`
	Conditional float64 `yaml:"conditional"`
}

// Server configures the JSON-RPC HTTP listener.
type Server struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	MetricsAddr     string   `yaml:"metrics_addr"`
}

// Config is the full runtime configuration.
type Config struct {
	Weights       Weights    `yaml:"weights"`
	Thresholds    Thresholds `yaml:"thresholds"`
	AgentTimeout  Duration   `yaml:"agent_timeout"`
	CriticalSteps []string   `yaml:"critical_steps"`
	Extractor     string     `yaml:"extractor"` // static, anthropic, openai
	CleanupAge    Duration   `yaml:"cleanup_age"`
	LogLevel      string     `yaml:"log_level"`
	LogFormat     string     `yaml:"log_format"` // text, json
	Server        Server     `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Weights: Weights{
			Document:     0.10,
			Credit:       0.25,
			Income:       0.20,
			Property:     0.15,
			Risk:         0.20,
			Underwriting: 0.10,
		},
		Thresholds: Thresholds{
			Approve:     0.75,
			Conditional: 0.55,
		},
		AgentTimeout:  Duration(30 * time.Second),
		CriticalSteps: []string{"document_processing"},
		Extractor:     "static",
		CleanupAge:    Duration(24 * time.Hour),
		LogLevel:      "info",
		LogFormat:     "text",
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
	}
}

// Load reads a YAML file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	var sum float64
	for domain, w := range c.Weights.ByDomain() {
		if w < 0 {
			return fmt.Errorf("weight for domain %s is negative", domain)
		}
		sum += w
	}
	const tolerance = 1e-6
	if sum < 1-tolerance || sum > 1+tolerance {
		return fmt.Errorf("domain weights must sum to 1, got %.4f", sum)
	}

	if c.Thresholds.Approve <= c.Thresholds.Conditional {
		return fmt.Errorf("approve threshold (%.2f) must exceed conditional threshold (%.2f)",
			c.Thresholds.Approve, c.Thresholds.Conditional)
	}
	if c.Thresholds.Approve > 1 || c.Thresholds.Conditional < 0 {
		return fmt.Errorf("thresholds must lie in [0,1]")
	}

	if c.AgentTimeout <= 0 {
		return fmt.Errorf("agent timeout must be positive")
	}

	switch c.Extractor {
	case "static", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown extractor backend %q", c.Extractor)
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	return nil
}

// IsCritical reports whether the named step is configured as critical.
func (c *Config) IsCritical(step string) bool {
	for _, s := range c.CriticalSteps {
		if s == step {
			return true
		}
	}
	return false
}
