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
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/teradata-labs/bobbin/internal/log"
	"github.com/teradata-labs/bobbin/internal/version"
	"github.com/teradata-labs/bobbin/pkg/config"
)

var (
	cfgFile string
	cfg     *config.Config

	// vp carries flag bindings into config.LoadFrom
	vp = viper.New()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "bobbin",
	Short:   "Bobbin - Conversational SQL agent for Amazon Redshift",
	Long:    `Bobbin is an interactive LLM agent that answers questions about your Redshift warehouse by writing and executing SQL. Queries are validated against a destructive-statement deny-list, row-limited, and timeout-bounded.`,
	Version: version.Get(),
	Run:     runChat,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./bobbin.yaml or ~/.bobbin/bobbin.yaml)")

	// LLM flags
	rootCmd.PersistentFlags().String("llm-provider", "bedrock", "LLM provider (bedrock, anthropic)")
	rootCmd.PersistentFlags().String("anthropic-key", "", "Anthropic API key (or use ANTHROPIC_API_KEY)")
	rootCmd.PersistentFlags().String("anthropic-model", "claude-sonnet-4-5-20250929", "Anthropic model")
	rootCmd.PersistentFlags().String("bedrock-model", "us.anthropic.claude-sonnet-4-5-20250929-v1:0", "Bedrock model ID")
	rootCmd.PersistentFlags().String("bedrock-region", "us-west-2", "AWS region for Bedrock")
	rootCmd.PersistentFlags().Float64("temperature", 1.0, "LLM temperature")
	rootCmd.PersistentFlags().Int("max-tokens", 4096, "Maximum tokens per response")

	// Query flags
	rootCmd.PersistentFlags().Int("row-limit", 1000, "Default LIMIT injected into unbounded SELECT queries")
	rootCmd.PersistentFlags().Int("query-timeout", 30, "Default statement timeout in seconds")

	// Observability flags
	rootCmd.PersistentFlags().Bool("observability", false, "Enable span tracing to the log file")

	// Logging flags
	rootCmd.PersistentFlags().String("log-file", "bobbin.log", "Log file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	// Session flags
	rootCmd.PersistentFlags().String("session", "", "Resume existing session ID")

	// Bind flags to viper
	_ = vp.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = vp.BindPFlag("llm.anthropic_api_key", rootCmd.PersistentFlags().Lookup("anthropic-key"))
	_ = vp.BindPFlag("llm.anthropic_model", rootCmd.PersistentFlags().Lookup("anthropic-model"))
	_ = vp.BindPFlag("llm.bedrock_model_id", rootCmd.PersistentFlags().Lookup("bedrock-model"))
	_ = vp.BindPFlag("llm.bedrock_region", rootCmd.PersistentFlags().Lookup("bedrock-region"))
	_ = vp.BindPFlag("llm.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = vp.BindPFlag("llm.max_tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))

	_ = vp.BindPFlag("query.row_limit", rootCmd.PersistentFlags().Lookup("row-limit"))
	_ = vp.BindPFlag("query.timeout_seconds", rootCmd.PersistentFlags().Lookup("query-timeout"))

	_ = vp.BindPFlag("observability.enabled", rootCmd.PersistentFlags().Lookup("observability"))

	_ = vp.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = vp.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig loads .env, the config file, and ENV variables.
func initConfig() {
	// .env in the working directory, if present
	_ = godotenv.Load()

	var err error
	cfg, err = config.LoadFrom(vp, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if err := log.InitFile(cfg.Logging.File, level); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
}
