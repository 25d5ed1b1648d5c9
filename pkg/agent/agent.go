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
// Package agent implements the stateful conversation agent: it wires an
// LLM provider, the tool executor, and summarizing conversation memory
// into a bounded tool-use loop.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/bobbin/internal/log"
	"github.com/teradata-labs/bobbin/pkg/llm"
	"github.com/teradata-labs/bobbin/pkg/observability"
	"github.com/teradata-labs/bobbin/pkg/shuttle"
)

// defaultSystemPrompt steers the model toward warehouse analysis work.
const defaultSystemPrompt = `You are a SQL analysis assistant for an Amazon Redshift warehouse.

You answer questions about the data by writing SQL and running it with the
execute_sql tool. Guidelines:
- Discover schemas via system tables (pg_table_def, svv_table_info) before
  guessing column names.
- Prefer small, targeted SELECT queries; results are row-limited.
- Never fabricate data: only report what queries actually return.
- The tool only runs SELECT statements; for anything that modifies data,
  tell the user to run it themselves.`

const (
	// DefaultMaxTurns bounds LLM round-trips per Chat call
	DefaultMaxTurns = 10
	// DefaultMaxToolExecutions bounds tool calls per Chat call
	DefaultMaxToolExecutions = 20
)

// Config holds agent configuration.
type Config struct {
	Name              string
	SystemPrompt      string
	MaxTurns          int
	MaxToolExecutions int
	Summarization     SummarizationConfig
}

// Response is the outcome of one Chat call.
type Response struct {
	// Content is the agent's final text answer
	Content string

	// Usage accumulates token usage across all turns
	Usage llm.Usage

	// ToolExecutions counts tool calls made during this Chat
	ToolExecutions int

	// Metadata contains loop statistics
	Metadata map[string]interface{}
}

// Agent is a stateful conversation agent. It is safe for concurrent use;
// per-session history is serialized by the session lock.
type Agent struct {
	config   Config
	provider llm.LLMProvider
	registry *shuttle.Registry
	executor *shuttle.Executor
	memory   *Memory
	tracer   observability.Tracer

	// compressorOverride, when set via WithCompressor, replaces the
	// default LLM-backed compressor at construction time
	compressorOverride MemoryCompressor
}

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if prompt != "" {
			a.config.SystemPrompt = prompt
		}
	}
}

// WithMaxTurns bounds LLM round-trips per Chat call.
func WithMaxTurns(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.config.MaxTurns = n
		}
	}
}

// WithMaxToolExecutions bounds tool calls per Chat call.
func WithMaxToolExecutions(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.config.MaxToolExecutions = n
		}
	}
}

// WithSummarization sets the conversation memory parameters.
func WithSummarization(cfg SummarizationConfig) Option {
	return func(a *Agent) {
		a.config.Summarization = cfg
	}
}

// WithTracer sets the observability tracer.
func WithTracer(tracer observability.Tracer) Option {
	return func(a *Agent) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

// WithCompressor sets the memory compressor used for summarization.
// Must be applied before the first Chat call.
func WithCompressor(c MemoryCompressor) Option {
	return func(a *Agent) {
		if c != nil {
			a.compressorOverride = c
		}
	}
}

// New creates an agent backed by the given LLM provider.
func New(name string, provider llm.LLMProvider, opts ...Option) *Agent {
	a := &Agent{
		config: Config{
			Name:              name,
			SystemPrompt:      defaultSystemPrompt,
			MaxTurns:          DefaultMaxTurns,
			MaxToolExecutions: DefaultMaxToolExecutions,
			Summarization:     DefaultSummarizationConfig(),
		},
		provider: provider,
		registry: shuttle.NewRegistry(),
		tracer:   observability.NewNoOpTracer(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.executor = shuttle.NewExecutor(a.registry)

	compressor := a.compressorOverride
	if compressor == nil {
		compressor = NewLLMCompressor(provider)
	}
	a.memory = NewMemory(a.config.Summarization, compressor)

	return a
}

// RegisterTool registers a tool with the agent.
func (a *Agent) RegisterTool(tool shuttle.Tool) {
	a.registry.Register(tool)
}

// RegisterTools registers multiple tools.
func (a *Agent) RegisterTools(tools ...shuttle.Tool) {
	for _, t := range tools {
		a.registry.Register(t)
	}
}

// ListTools returns registered tool names.
func (a *Agent) ListTools() []string {
	return a.registry.List()
}

// Memory exposes the session manager.
func (a *Agent) Memory() *Memory {
	return a.memory
}

// Name returns the agent name.
func (a *Agent) Name() string {
	return a.config.Name
}

// Chat sends a user message into a session and runs the conversation
// loop until the LLM produces a final text answer or a bound is hit.
func (a *Agent) Chat(ctx context.Context, sessionID, userMessage string) (*Response, error) {
	start := time.Now()

	ctx, span := a.tracer.StartSpan(ctx, observability.SpanAgentConversation)
	defer a.tracer.EndSpan(span)
	span.SetAttribute(observability.AttrSessionID, sessionID)
	span.SetAttribute("llm.provider", a.provider.Name())
	span.SetAttribute("llm.model", a.provider.Model())

	session := a.memory.GetOrCreateSession(sessionID)
	session.AddMessage(Message{Role: "user", Content: userMessage})

	if compressed, err := a.memory.Condense(ctx, session); err != nil {
		span.RecordError(err)
	} else if compressed {
		span.AddEvent("memory.summarized", map[string]interface{}{
			"session_id": sessionID,
		})
	}

	response, err := a.runConversationLoop(ctx, span, session)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	session.AddMessage(Message{Role: "assistant", Content: response.Content})

	log.Info("conversation turn complete",
		zap.String("agent", a.config.Name),
		zap.String("session_id", sessionID),
		zap.Int("tool_executions", response.ToolExecutions),
		zap.Int("total_tokens", response.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)))

	return response, nil
}

func (a *Agent) runConversationLoop(ctx context.Context, span *observability.Span, session *Session) (*Response, error) {
	tools := a.registry.ListTools()
	usage := llm.Usage{}
	toolExecutionCount := 0

	for turnCount := 0; turnCount < a.config.MaxTurns; turnCount++ {
		messages := append([]Message{
			{Role: "system", Content: a.config.SystemPrompt},
		}, session.GetMessages()...)

		llmCtx, llmSpan := a.tracer.StartSpan(ctx, observability.SpanLLMCompletion)
		llmResp, err := a.provider.Chat(llmCtx, messages, tools)
		if err != nil {
			llmSpan.RecordError(err)
			a.tracer.EndSpan(llmSpan)
			return nil, fmt.Errorf("LLM call failed: %w", err)
		}
		llmSpan.SetAttribute("llm.input_tokens", llmResp.Usage.InputTokens)
		llmSpan.SetAttribute("llm.output_tokens", llmResp.Usage.OutputTokens)
		a.tracer.EndSpan(llmSpan)

		usage.InputTokens += llmResp.Usage.InputTokens
		usage.OutputTokens += llmResp.Usage.OutputTokens
		usage.TotalTokens += llmResp.Usage.TotalTokens

		// No tool calls means the model gave its final answer
		if len(llmResp.ToolCalls) == 0 {
			return &Response{
				Content:        llmResp.Content,
				Usage:          usage,
				ToolExecutions: toolExecutionCount,
				Metadata: map[string]interface{}{
					"turns":       turnCount + 1,
					"stop_reason": llmResp.StopReason,
				},
			}, nil
		}

		// The assistant message carrying the tool calls must precede the
		// tool results in history, or the Messages API rejects the turn.
		session.AddMessage(Message{
			Role:      "assistant",
			Content:   llmResp.Content,
			ToolCalls: llmResp.ToolCalls,
		})

		for _, toolCall := range llmResp.ToolCalls {
			if toolExecutionCount >= a.config.MaxToolExecutions {
				session.AddMessage(Message{
					Role:      "tool",
					ToolUseID: toolCall.ID,
					Content:   "Tool execution limit reached for this request; answer with what you have.",
				})
				continue
			}
			toolExecutionCount++

			toolCtx, toolSpan := a.tracer.StartSpan(ctx, observability.SpanToolExecution)
			toolSpan.SetAttribute(observability.AttrToolName, toolCall.Name)

			result, err := a.executor.Execute(toolCtx, toolCall.Name, toolCall.Input)
			if err != nil {
				// Unknown tool; tell the model instead of aborting
				toolSpan.RecordError(err)
				result = &shuttle.Result{
					Success: false,
					Error:   &shuttle.Error{Code: "unknown_tool", Message: err.Error()},
				}
			}
			if !result.Success && result.Error != nil {
				toolSpan.SetAttribute(observability.AttrErrorMessage, result.Error.Message)
			}
			a.tracer.EndSpan(toolSpan)

			session.AddMessage(Message{
				Role:      "tool",
				ToolUseID: toolCall.ID,
				Content:   formatToolResult(result),
			})
		}
	}

	span.AddEvent("conversation.bound_reached", map[string]interface{}{
		"max_turns":       a.config.MaxTurns,
		"tool_executions": toolExecutionCount,
	})

	return &Response{
		Content:        "I hit the turn limit for this request before reaching a final answer. Try narrowing the question.",
		Usage:          usage,
		ToolExecutions: toolExecutionCount,
		Metadata: map[string]interface{}{
			"turns":         a.config.MaxTurns,
			"max_turns_hit": true,
		},
	}, nil
}

// formatToolResult serializes a tool result for the LLM. JSON keeps the
// envelope machine-readable; serialization failures degrade to %v.
func formatToolResult(result *shuttle.Result) string {
	payload := map[string]interface{}{
		"success": result.Success,
	}
	if result.Data != nil {
		payload["data"] = result.Data
	}
	if result.Error != nil {
		payload["error"] = map[string]interface{}{
			"code":       result.Error.Code,
			"message":    result.Error.Message,
			"suggestion": result.Error.Suggestion,
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(encoded)
}
