package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 0.8, cfg.Simulation.MemoryDecay)
	assert.Equal(t, 10.0, cfg.Simulation.ImpactScale)
	assert.Len(t, cfg.Population, 4)
	assert.Equal(t, uint64(42), cfg.Dataset.Seed)
	assert.Equal(t, "content", cfg.Dataset.ContentColumn)
	assert.Equal(t, "cluster_label", cfg.Dataset.LabelColumn)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_SIM_KEY", "sk-from-env-1234567890")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: anthropic
  api_key: ${TEST_SIM_KEY}
  model: claude-test
  timeout: 15s
simulation:
  memory_decay: 0.5
  impact_scale: 5
population:
  - name: Lin
    description: price sensitive
  - name: Zhao
    description: values speed
dataset:
  samples_per_class: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-from-env-1234567890", cfg.LLM.APIKey)
	assert.Equal(t, "claude-test", cfg.LLM.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 0.5, cfg.Simulation.MemoryDecay)
	assert.Equal(t, 5.0, cfg.Simulation.ImpactScale)
	require.Len(t, cfg.Population, 2)
	assert.Equal(t, "Lin", cfg.Population[0].Name)
	assert.Equal(t, 3, cfg.Dataset.SamplesPerClass)
	// Unset fields keep their defaults.
	assert.Equal(t, "content", cfg.Dataset.ContentColumn)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_DefaultPopulationWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: x\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPopulation(), cfg.Population)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPINIONSIM_LLM_MODEL", "gpt-test")
	t.Setenv("OPINIONSIM_LLM_BASE_URL", "http://localhost:8080")
	t.Setenv("OPINIONSIM_MEMORY_DECAY", "0.6")
	t.Setenv("OPINIONSIM_IMPACT_SCALE", "not-a-number")
	t.Setenv("OPINIONSIM_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-test", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:8080", cfg.LLM.BaseURL)
	assert.Equal(t, 0.6, cfg.Simulation.MemoryDecay)
	assert.Equal(t, 10.0, cfg.Simulation.ImpactScale)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "ds-key", cfg.LLM.APIKey)
}

func TestLoad_APIKeyFollowsBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		openai   string
		deepseek string
		want     string
	}{
		{"deepseek default prefers deepseek key", "", "sk-openai-secret", "sk-deepseek", "sk-deepseek"},
		{"deepseek never gets openai key", "", "sk-openai-secret", "", ""},
		{"openai endpoint prefers openai key", "https://api.openai.com/v1", "sk-openai-secret", "sk-deepseek", "sk-openai-secret"},
		{"other endpoint falls back to deepseek key", "http://localhost:8080", "", "sk-deepseek", "sk-deepseek"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPINIONSIM_LLM_BASE_URL", tt.baseURL)
			t.Setenv("OPENAI_API_KEY", tt.openai)
			t.Setenv("DEEPSEEK_API_KEY", tt.deepseek)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LLM.APIKey)
		})
	}
}

func TestIsDeepSeek(t *testing.T) {
	assert.True(t, isDeepSeek("https://api.deepseek.com"))
	assert.True(t, isDeepSeek("https://API.DeepSeek.com/v1"))
	assert.False(t, isDeepSeek("https://deepseek.com.evil.example"))
	assert.False(t, isDeepSeek("https://api.openai.com/v1"))
	assert.False(t, isDeepSeek(""))
}

func TestLoad_AnthropicKey(t *testing.T) {
	t.Setenv("OPINIONSIM_LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "ant-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "ant-key", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"decay zero", func(c *Config) { c.Simulation.MemoryDecay = 0 }},
		{"decay one", func(c *Config) { c.Simulation.MemoryDecay = 1 }},
		{"scale zero", func(c *Config) { c.Simulation.ImpactScale = 0 }},
		{"negative timeout", func(c *Config) { c.LLM.Timeout = -time.Second }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "cohere" }},
		{"negative samples", func(c *Config) { c.Dataset.SamplesPerClass = -1 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty population", func(c *Config) { c.Population = nil }},
		{"duplicate names", func(c *Config) {
			c.Population = append(c.Population, c.Population[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRedactedAPIKey(t *testing.T) {
	assert.Equal(t, "", LLMConfig{}.RedactedAPIKey())
	assert.Equal(t, "(set)", LLMConfig{APIKey: "short"}.RedactedAPIKey())
	assert.Equal(t, "sk-a...wxyz", LLMConfig{APIKey: "sk-abcdefghijklmnopqrstuvwxyz"}.RedactedAPIKey())

	s := LLMConfig{Provider: "openai", APIKey: "sk-abcdefghijklmnopqrstuvwxyz"}.String()
	assert.NotContains(t, s, "abcdefghijklmnop")
	assert.Contains(t, s, "sk-a...wxyz")
}
