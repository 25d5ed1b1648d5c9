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
package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/bobbin/pkg/llm"
	"github.com/teradata-labs/bobbin/pkg/shuttle"
)

// scriptedProvider replays canned responses in order.
type scriptedProvider struct {
	responses []*llm.LLMResponse
	err       error
	calls     int
	history   [][]llm.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message, tools []shuttle.Tool) (*llm.LLMResponse, error) {
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	p.history = append(p.history, snapshot)

	if p.err != nil {
		return nil, p.err
	}
	if p.calls >= len(p.responses) {
		return &llm.LLMResponse{Content: "done", StopReason: "end_turn"}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "test-model" }

func TestChatPlainAnswer(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*llm.LLMResponse{
			{Content: "There are 42 users.", StopReason: "end_turn", Usage: llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		},
	}
	a := New("sql-agent", provider)

	resp, err := a.Chat(context.Background(), "s1", "how many users?")

	require.NoError(t, err)
	assert.Equal(t, "There are 42 users.", resp.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, 0, resp.ToolExecutions)

	// History holds the user question and the final answer
	session, ok := a.Memory().GetSession("s1")
	require.True(t, ok)
	assert.Equal(t, 2, session.MessageCount())
}

func TestChatSystemPromptPrepended(t *testing.T) {
	provider := &scriptedProvider{}
	a := New("sql-agent", provider, WithSystemPrompt("custom prompt"))

	_, err := a.Chat(context.Background(), "s1", "hi")

	require.NoError(t, err)
	require.NotEmpty(t, provider.history)
	first := provider.history[0][0]
	assert.Equal(t, "system", first.Role)
	assert.Equal(t, "custom prompt", first.Content)
}

func TestChatToolUseLoop(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*llm.LLMResponse{
			{
				StopReason: "tool_use",
				ToolCalls: []llm.ToolCall{
					{ID: "tc_1", Name: "execute_sql", Input: map[string]interface{}{"query": "SELECT COUNT(*) FROM users"}},
				},
				Usage: llm.Usage{TotalTokens: 20},
			},
			{Content: "There are 42 users.", StopReason: "end_turn", Usage: llm.Usage{TotalTokens: 10}},
		},
	}
	a := New("sql-agent", provider)

	tool := &shuttle.MockTool{
		MockName: "execute_sql",
		MockExecute: func(ctx context.Context, params map[string]interface{}) (*shuttle.Result, error) {
			return &shuttle.Result{Success: true, Data: map[string]interface{}{"row_count": 1}}, nil
		},
	}
	a.RegisterTool(tool)

	resp, err := a.Chat(context.Background(), "s1", "count the users")

	require.NoError(t, err)
	assert.Equal(t, "There are 42 users.", resp.Content)
	assert.Equal(t, 1, resp.ToolExecutions)
	assert.Equal(t, 30, resp.Usage.TotalTokens)
	assert.Equal(t, 1, tool.CallCount())

	// Second LLM call must see assistant tool-call message then tool result
	require.Len(t, provider.history, 2)
	second := provider.history[1]
	roles := make([]string, len(second))
	for i, m := range second {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{"system", "user", "assistant", "tool"}, roles)
	assert.Equal(t, "tc_1", second[3].ToolUseID)
	assert.Contains(t, second[3].Content, `"success":true`)
}

func TestChatToolFailureFlowsBackToLLM(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*llm.LLMResponse{
			{
				StopReason: "tool_use",
				ToolCalls: []llm.ToolCall{
					{ID: "tc_1", Name: "execute_sql", Input: map[string]interface{}{"query": "SELECT * FROM missing"}},
				},
			},
			{Content: "That table does not exist.", StopReason: "end_turn"},
		},
	}
	a := New("sql-agent", provider)
	a.RegisterTool(&shuttle.MockTool{
		MockName: "execute_sql",
		MockExecute: func(ctx context.Context, params map[string]interface{}) (*shuttle.Result, error) {
			return nil, errors.New("relation does not exist")
		},
	})

	resp, err := a.Chat(context.Background(), "s1", "query missing table")

	require.NoError(t, err, "tool failures must not abort the conversation")
	assert.Equal(t, "That table does not exist.", resp.Content)

	second := provider.history[1]
	assert.Contains(t, second[3].Content, `"success":false`)
	assert.Contains(t, second[3].Content, "relation does not exist")
}

func TestChatUnknownToolReported(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*llm.LLMResponse{
			{
				StopReason: "tool_use",
				ToolCalls:  []llm.ToolCall{{ID: "tc_1", Name: "no_such_tool"}},
			},
			{Content: "Sorry, I cannot do that.", StopReason: "end_turn"},
		},
	}
	a := New("sql-agent", provider)

	resp, err := a.Chat(context.Background(), "s1", "do something odd")

	require.NoError(t, err)
	assert.Equal(t, "Sorry, I cannot do that.", resp.Content)
	second := provider.history[1]
	assert.Contains(t, second[3].Content, "unknown_tool")
}

func TestChatMaxTurnsBound(t *testing.T) {
	// Provider always asks for another tool call
	looping := &loopingProvider{}
	a := New("sql-agent", looping, WithMaxTurns(3))
	a.RegisterTool(&shuttle.MockTool{MockName: "execute_sql"})

	resp, err := a.Chat(context.Background(), "s1", "loop forever")

	require.NoError(t, err)
	assert.Equal(t, 3, looping.calls)
	assert.Equal(t, true, resp.Metadata["max_turns_hit"])
	assert.NotEmpty(t, resp.Content)
}

func TestChatLLMErrorPropagates(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("throttled")}
	a := New("sql-agent", provider)

	_, err := a.Chat(context.Background(), "s1", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM call failed")
}

func TestChatSessionsAreIsolated(t *testing.T) {
	provider := &scriptedProvider{}
	a := New("sql-agent", provider)

	_, err := a.Chat(context.Background(), "alpha", "first")
	require.NoError(t, err)
	_, err = a.Chat(context.Background(), "beta", "second")
	require.NoError(t, err)

	alpha, _ := a.Memory().GetSession("alpha")
	beta, _ := a.Memory().GetSession("beta")
	assert.Equal(t, 2, alpha.MessageCount())
	assert.Equal(t, 2, beta.MessageCount())
}

// loopingProvider requests a tool call on every turn, never finishing.
type loopingProvider struct {
	calls int
}

func (p *loopingProvider) Chat(ctx context.Context, messages []llm.Message, tools []shuttle.Tool) (*llm.LLMResponse, error) {
	p.calls++
	return &llm.LLMResponse{
		StopReason: "tool_use",
		ToolCalls: []llm.ToolCall{
			{ID: "tc_loop", Name: "execute_sql", Input: map[string]interface{}{"query": "SELECT 1"}},
		},
	}, nil
}

func (p *loopingProvider) Name() string  { return "looping" }
func (p *loopingProvider) Model() string { return "test-model" }
