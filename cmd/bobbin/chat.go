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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teradata-labs/bobbin/internal/log"
	"github.com/teradata-labs/bobbin/pkg/agent"
	"github.com/teradata-labs/bobbin/pkg/backends/redshift"
	"github.com/teradata-labs/bobbin/pkg/config"
	"github.com/teradata-labs/bobbin/pkg/llm"
	"github.com/teradata-labs/bobbin/pkg/llm/anthropic"
	"github.com/teradata-labs/bobbin/pkg/llm/bedrock"
	"github.com/teradata-labs/bobbin/pkg/observability"
	"github.com/teradata-labs/bobbin/pkg/tools"
)

func runChat(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	rcfg, err := redshift.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	backend, err := redshift.NewBackend(rcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backend error: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "LLM provider error: %v\n", err)
		os.Exit(1)
	}

	bot := buildAgent(provider, backend, cfg)

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	fmt.Printf("Bobbin %s | %s via %s | session %s\n",
		cmd.Root().Version, rcfg.Database, provider.Name(), sessionID)
	fmt.Println(`Ask questions about your Redshift data. Type "quit" to leave.`)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("\nbobbin> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			fmt.Println("Goodbye.")
			_ = log.Sync()
			return
		}

		resp, err := bot.Chat(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Println(resp.Content)
		log.Debug("turn complete",
			zap.String("session_id", sessionID),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
			zap.Int("tool_executions", resp.ToolExecutions))
	}
	_ = log.Sync()
}

// buildProvider selects the LLM backend from config.
func buildProvider(ctx context.Context, cfg *config.Config) (llm.LLMProvider, error) {
	switch cfg.LLM.Provider {
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.LLM.AnthropicAPIKey,
			Model:       cfg.LLM.AnthropicModel,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
	case "bedrock":
		return bedrock.NewClient(ctx, bedrock.Config{
			ModelID:     cfg.LLM.BedrockModelID,
			Region:      cfg.LLM.BedrockRegion,
			Profile:     cfg.LLM.AWSProfile,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
	default:
		return nil, fmt.Errorf("unsupported llm.provider %q", cfg.LLM.Provider)
	}
}

// buildAgent assembles the conversation agent with the SQL tool attached.
func buildAgent(provider llm.LLMProvider, backend *redshift.Backend, cfg *config.Config) *agent.Agent {
	var tracer observability.Tracer = observability.NewNoOpTracer()
	if cfg.Observability.Enabled {
		tracer = observability.NewZapTracer(log.Logger())
	}

	bot := agent.New("bobbin", provider,
		agent.WithMaxTurns(cfg.Agent.MaxTurns),
		agent.WithMaxToolExecutions(cfg.Agent.MaxToolExecutions),
		agent.WithSummarization(agent.SummarizationConfig{
			MaxContextTokens:        cfg.Memory.MaxContextTokens,
			SummaryRatio:            cfg.Memory.SummaryRatio,
			PreservedRecentMessages: cfg.Memory.PreservedRecentMessages,
		}),
		agent.WithTracer(tracer))

	bot.RegisterTool(tools.NewQuerySQLTool(backend,
		tools.WithRowLimit(cfg.Query.RowLimit),
		tools.WithTimeout(cfg.Query.TimeoutSeconds)))

	return bot
}
