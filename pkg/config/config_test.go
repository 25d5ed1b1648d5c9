// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "bedrock", cfg.LLM.Provider)
	assert.Equal(t, "us.anthropic.claude-sonnet-4-5-20250929-v1:0", cfg.LLM.BedrockModelID)
	assert.Equal(t, "us-west-2", cfg.LLM.BedrockRegion)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)

	assert.Equal(t, 1000, cfg.Query.RowLimit)
	assert.Equal(t, 30, cfg.Query.TimeoutSeconds)

	assert.Equal(t, 100_000, cfg.Memory.MaxContextTokens)
	assert.InDelta(t, 0.3, cfg.Memory.SummaryRatio, 0.001)
	assert.Equal(t, 10, cfg.Memory.PreservedRecentMessages)

	assert.Equal(t, 10, cfg.Agent.MaxTurns)
	assert.Equal(t, 20, cfg.Agent.MaxToolExecutions)

	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, "bobbin.log", cfg.Logging.File)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOBBIN_LLM_PROVIDER", "anthropic")
	t.Setenv("BOBBIN_LLM_ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("BOBBIN_QUERY_ROW_LIMIT", "100")
	t.Setenv("BOBBIN_OBSERVABILITY_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-ant-test", cfg.LLM.AnthropicAPIKey)
	assert.Equal(t, 100, cfg.Query.RowLimit)
	assert.True(t, cfg.Observability.Enabled)
}

func TestLoad_ConfigFile(t *testing.T) {
	content := `llm:
  provider: anthropic
  anthropic_model: claude-sonnet-4-5-20250929
  max_tokens: 2048
query:
  row_limit: 250
memory:
  max_context_tokens: 50000
  summary_ratio: 0.5
  preserved_recent_messages: 4
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "bobbin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 250, cfg.Query.RowLimit)
	assert.Equal(t, 50000, cfg.Memory.MaxContextTokens)
	assert.InDelta(t, 0.5, cfg.Memory.SummaryRatio, 0.001)
	assert.Equal(t, 4, cfg.Memory.PreservedRecentMessages)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Keys the file does not set fall back to defaults
	assert.Equal(t, 30, cfg.Query.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Agent.MaxTurns)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LLM:    LLMConfig{Provider: "bedrock"},
			Query:  QueryConfig{RowLimit: 500, TimeoutSeconds: 300},
			Memory: MemoryConfig{SummaryRatio: 0.3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "unsupported provider",
			mutate:  func(c *Config) { c.LLM.Provider = "openai" },
			wantErr: "unsupported llm.provider",
		},
		{
			name:    "summary ratio out of range",
			mutate:  func(c *Config) { c.Memory.SummaryRatio = 1.5 },
			wantErr: "summary_ratio",
		},
		{
			name:    "non-positive row limit",
			mutate:  func(c *Config) { c.Query.RowLimit = 0 },
			wantErr: "row_limit",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.Query.TimeoutSeconds = -1 },
			wantErr: "timeout_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
