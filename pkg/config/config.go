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
// Package config loads application configuration.
// Priority: config file > BOBBIN_* env vars > defaults. Warehouse
// credentials stay on their own REDSHIFT_* variables (see
// pkg/backends/redshift) so they can be rotated without touching the
// app config.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFileName is the name of the config file (bobbin.yaml).
const DefaultConfigFileName = "bobbin"

// Config holds all application configuration.
type Config struct {
	// LLM provider configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Query execution defaults
	Query QueryConfig `mapstructure:"query"`

	// Memory holds conversation summarization parameters
	Memory MemoryConfig `mapstructure:"memory"`

	// Agent loop bounds
	Agent AgentConfig `mapstructure:"agent"`

	// Observability configuration
	Observability ObservabilityConfig `mapstructure:"observability"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	// Provider selects the LLM backend: "bedrock" or "anthropic"
	Provider string `mapstructure:"provider"`

	// AnthropicAPIKey for the direct Anthropic API
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`

	// AnthropicModel identifier
	AnthropicModel string `mapstructure:"anthropic_model"`

	// BedrockModelID identifier
	BedrockModelID string `mapstructure:"bedrock_model_id"`

	// BedrockRegion is the AWS region for Bedrock
	BedrockRegion string `mapstructure:"bedrock_region"`

	// AWSProfile selects a named shared-config profile
	AWSProfile string `mapstructure:"aws_profile"`

	// MaxTokens per response
	MaxTokens int `mapstructure:"max_tokens"`

	// Temperature for sampling
	Temperature float64 `mapstructure:"temperature"`
}

// QueryConfig holds query execution defaults.
type QueryConfig struct {
	// RowLimit injected into unbounded SELECT statements
	RowLimit int `mapstructure:"row_limit"`

	// TimeoutSeconds is the server-side statement timeout
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// MemoryConfig holds conversation summarization parameters.
type MemoryConfig struct {
	// MaxContextTokens is the session context window budget
	MaxContextTokens int `mapstructure:"max_context_tokens"`

	// SummaryRatio is the fraction of history folded into a summary
	SummaryRatio float64 `mapstructure:"summary_ratio"`

	// PreservedRecentMessages always survive summarization verbatim
	PreservedRecentMessages int `mapstructure:"preserved_recent_messages"`
}

// AgentConfig holds conversation loop bounds.
type AgentConfig struct {
	// MaxTurns bounds LLM round-trips per request
	MaxTurns int `mapstructure:"max_turns"`

	// MaxToolExecutions bounds tool calls per request
	MaxToolExecutions int `mapstructure:"max_tool_executions"`
}

// ObservabilityConfig holds tracing configuration.
type ObservabilityConfig struct {
	// Enabled turns span export on. Resolved once at startup; when
	// false the agent runs with a no-op tracer.
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// File is the log file path
	File string `mapstructure:"file"`

	// Level is the minimum level (debug, info, warn, error)
	Level string `mapstructure:"level"`
}

// Load reads configuration from an optional config file plus BOBBIN_*
// environment variables (e.g. BOBBIN_LLM_PROVIDER overrides
// llm.provider).
func Load(cfgFile string) (*Config, error) {
	return LoadFrom(viper.New(), cfgFile)
}

// LoadFrom is Load on a caller-owned viper instance, so command-line
// flags bound via viper.BindPFlag participate in precedence.
func LoadFrom(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.bobbin")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		// No config file; defaults + env vars apply
	}

	v.SetEnvPrefix("BOBBIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "bedrock", "anthropic":
	default:
		return fmt.Errorf("unsupported llm.provider %q (expected bedrock or anthropic)", c.LLM.Provider)
	}
	if c.Memory.SummaryRatio <= 0 || c.Memory.SummaryRatio > 1 {
		return fmt.Errorf("memory.summary_ratio must be in (0, 1], got %v", c.Memory.SummaryRatio)
	}
	if c.Query.RowLimit <= 0 {
		return fmt.Errorf("query.row_limit must be positive, got %d", c.Query.RowLimit)
	}
	if c.Query.TimeoutSeconds <= 0 {
		return fmt.Errorf("query.timeout_seconds must be positive, got %d", c.Query.TimeoutSeconds)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "bedrock")
	// Keys without a meaningful default still need registering, or
	// AutomaticEnv never surfaces them through Unmarshal.
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.aws_profile", "")
	v.SetDefault("llm.anthropic_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.bedrock_model_id", "us.anthropic.claude-sonnet-4-5-20250929-v1:0")
	v.SetDefault("llm.bedrock_region", "us-west-2")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 1.0)

	v.SetDefault("query.row_limit", 1000)
	v.SetDefault("query.timeout_seconds", 30)

	v.SetDefault("memory.max_context_tokens", 100_000)
	v.SetDefault("memory.summary_ratio", 0.3)
	v.SetDefault("memory.preserved_recent_messages", 10)

	v.SetDefault("agent.max_turns", 10)
	v.SetDefault("agent.max_tool_executions", 20)

	v.SetDefault("observability.enabled", false)

	v.SetDefault("logging.file", "bobbin.log")
	v.SetDefault("logging.level", "info")
}
