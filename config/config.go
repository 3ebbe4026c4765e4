// Package config provides unified configuration loading for opinionsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/opinionsim/agent"
	"github.com/hupe1980/opinionsim/logging"
	"github.com/hupe1980/opinionsim/simulation"
	"gopkg.in/yaml.v3"
)

// Config contains all opinionsim configuration settings.
type Config struct {
	// LLM contains connection settings for the generation service.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Simulation contains the score update tunables.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Population lists the personas taking part, in invocation order.
	Population []agent.Persona `json:"population" yaml:"population"`

	// Dataset describes where stimuli come from.
	Dataset DatasetConfig `json:"dataset" yaml:"dataset"`

	// Output describes where results go.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LLMConfig configures the generation service connection.
type LLMConfig struct {
	// Provider identifies the backend: "openai" (including OpenAI-compatible
	// endpoints such as DeepSeek) or "anthropic".
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the API key for the provider. Supports ${VAR} syntax for env vars.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the model identifier sent to the provider.
	Model string `json:"model" yaml:"model"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the completion length.
	MaxTokens int64 `json:"max_tokens" yaml:"max_tokens"`

	// Timeout is the maximum duration to wait for a single response.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// RedactedAPIKey returns the API key with most characters masked.
// Shows first 4 and last 4 characters, e.g., "sk-a...xyz9".
// Returns "" for empty keys and "(set)" for keys shorter than 12 chars.
func (c LLMConfig) RedactedAPIKey() string {
	if c.APIKey == "" {
		return ""
	}
	if len(c.APIKey) < 12 {
		return "(set)"
	}
	return c.APIKey[:4] + "..." + c.APIKey[len(c.APIKey)-4:]
}

// String implements fmt.Stringer to prevent accidental API key logging.
func (c LLMConfig) String() string {
	return fmt.Sprintf("LLMConfig{Provider:%s, Model:%s, BaseURL:%s, APIKey:%s}",
		c.Provider, c.Model, c.BaseURL, c.RedactedAPIKey())
}

// SimulationConfig holds the score update tunables.
type SimulationConfig struct {
	// MemoryDecay is the fraction of the prior score retained. Range: (0, 1).
	MemoryDecay float64 `json:"memory_decay" yaml:"memory_decay"`

	// ImpactScale divides the declared shift. Must be > 0.
	ImpactScale float64 `json:"impact_scale" yaml:"impact_scale"`
}

// DatasetConfig describes the comment CSV and sampling.
type DatasetConfig struct {
	Path            string `json:"path" yaml:"path"`
	ContentColumn   string `json:"content_column" yaml:"content_column"`
	LabelColumn     string `json:"label_column" yaml:"label_column"`
	SamplesPerClass int    `json:"samples_per_class" yaml:"samples_per_class"`
	Seed            uint64 `json:"seed" yaml:"seed"`
}

// OutputConfig describes result destinations.
type OutputConfig struct {
	// ResultPath is the JSON file the simulation output is written to.
	ResultPath string `json:"result_path" yaml:"result_path"`

	// StorePath is the SQLite database runs are recorded in. Empty keeps
	// runs in memory only.
	StorePath string `json:"store_path,omitempty" yaml:"store_path,omitempty"`

	// BundleDir is where deliverable bundles are written.
	BundleDir string `json:"bundle_dir" yaml:"bundle_dir"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "debug", "info" (default), "warn" or "error".
	Level string `json:"level" yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format"`
}

// DefaultPopulation is used when no population is configured.
func DefaultPopulation() []agent.Persona {
	return []agent.Persona{
		{
			Name:        "Xiaolin",
			Description: "A college student on a tight budget who compares coupons across apps before every order and is quick to switch for a better deal.",
		},
		{
			Name:        "Mr. Zhao",
			Description: "A busy office worker who orders lunch daily; punctual delivery matters far more to him than a few yuan.",
		},
		{
			Name:        "Auntie Wang",
			Description: "A retired long-time customer who values polite riders and reliable after-sales service, and distrusts platforms that treat loyal users unfairly.",
		},
		{
			Name:        "Ada",
			Description: "A software engineer who reads reviews critically, notices algorithmic price discrimination and rarely changes habits without evidence.",
		},
	}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			BaseURL:     "https://api.deepseek.com",
			Model:       "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   1024,
			Timeout:     60 * time.Second,
		},
		Simulation: SimulationConfig{
			MemoryDecay: agent.DefaultMemoryDecay,
			ImpactScale: agent.DefaultImpactScale,
		},
		Population: DefaultPopulation(),
		Dataset: DatasetConfig{
			ContentColumn:   "content",
			LabelColumn:     "cluster_label",
			SamplesPerClass: 5,
			Seed:            42,
		},
		Output: OutputConfig{
			ResultPath: "simulation_result.json",
			BundleDir:  ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from path (when non-empty) and applies
// environment overrides. Order: defaults -> file -> environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	// A file that lists its own population replaces the defaults entirely.
	cfg.Population = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if len(cfg.Population) == 0 {
		cfg.Population = DefaultPopulation()
	}

	// Expand environment variables in API key
	cfg.LLM.APIKey = expandEnvVars(cfg.LLM.APIKey)

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Simulation.MemoryDecay <= 0 || c.Simulation.MemoryDecay >= 1 {
		return fmt.Errorf("memory_decay must be in (0, 1), got %v", c.Simulation.MemoryDecay)
	}

	if c.Simulation.ImpactScale <= 0 {
		return fmt.Errorf("impact_scale must be positive, got %v", c.Simulation.ImpactScale)
	}

	if c.LLM.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.LLM.Timeout)
	}

	validProviders := map[string]bool{"openai": true, "anthropic": true}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid provider: %s (valid: openai, anthropic)", c.LLM.Provider)
	}

	if c.Dataset.SamplesPerClass < 0 {
		return fmt.Errorf("samples_per_class must be non-negative, got %d", c.Dataset.SamplesPerClass)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return simulation.ValidatePopulation(c.Population)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPINIONSIM_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}

	if v := os.Getenv("OPINIONSIM_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("OPINIONSIM_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			// Keys follow the endpoint they belong to.
			keys := []string{"OPENAI_API_KEY", "DEEPSEEK_API_KEY"}
			if isDeepSeek(cfg.LLM.BaseURL) {
				keys = []string{"DEEPSEEK_API_KEY"}
			}
			for _, k := range keys {
				if v := os.Getenv(k); v != "" {
					cfg.LLM.APIKey = v
					break
				}
			}
		case "anthropic":
			if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
				cfg.LLM.APIKey = v
			}
		}
	}

	if v := os.Getenv("OPINIONSIM_MEMORY_DECAY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.MemoryDecay = f
		}
	}

	if v := os.Getenv("OPINIONSIM_IMPACT_SCALE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.ImpactScale = f
		}
	}

	if v := os.Getenv("OPINIONSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// isDeepSeek reports whether the base URL points at the DeepSeek API.
func isDeepSeek(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "deepseek.com" || strings.HasSuffix(host, ".deepseek.com")
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
