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
	"fmt"
	"strings"

	"github.com/teradata-labs/bobbin/pkg/llm"
)

const summarizationPrompt = `Summarize the following conversation between a user and a SQL analysis agent.
Preserve: tables and schemas mentioned, queries that were run, key findings, and any pending user requests.
Be concise (2-4 sentences).`

// MemoryCompressor compresses a run of messages into a concise summary.
type MemoryCompressor interface {
	CompressMessages(ctx context.Context, messages []Message) (string, error)
	IsEnabled() bool
}

// LLMCompressor uses an LLM to create intelligent summaries of
// conversation history, falling back to simple extraction when the
// provider is unavailable or errors.
type LLMCompressor struct {
	provider llm.LLMProvider
}

// NewLLMCompressor creates a new LLM-powered memory compressor.
// If provider is nil, falls back to simple text extraction.
func NewLLMCompressor(provider llm.LLMProvider) *LLMCompressor {
	return &LLMCompressor{provider: provider}
}

// CompressMessages compresses a slice of messages into a concise summary.
func (c *LLMCompressor) CompressMessages(ctx context.Context, messages []Message) (string, error) {
	if c.provider == nil {
		return simpleCompress(messages), nil
	}

	var parts []string
	for _, msg := range messages {
		content := msg.Content
		if content == "" && len(msg.ToolCalls) > 0 {
			content = "[tool calls]"
		}
		parts = append(parts, fmt.Sprintf("[%s]: %s", msg.Role, content))
	}

	resp, err := c.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: summarizationPrompt},
		{Role: "user", Content: strings.Join(parts, "\n")},
	}, nil)
	if err != nil || resp == nil || strings.TrimSpace(resp.Content) == "" {
		// Summarization is best effort; never fail the conversation over it
		return simpleCompress(messages), nil
	}

	return strings.TrimSpace(resp.Content), nil
}

// IsEnabled returns whether LLM-powered compression is enabled.
func (c *LLMCompressor) IsEnabled() bool {
	return c.provider != nil
}

// SimpleCompressor does keyword extraction without an LLM.
// Useful for testing or when no provider is configured.
type SimpleCompressor struct{}

// NewSimpleCompressor creates a compressor that only does keyword extraction.
func NewSimpleCompressor() *SimpleCompressor {
	return &SimpleCompressor{}
}

// CompressMessages performs simple keyword extraction.
func (c *SimpleCompressor) CompressMessages(ctx context.Context, messages []Message) (string, error) {
	return simpleCompress(messages), nil
}

// IsEnabled always returns false for the simple compressor.
func (c *SimpleCompressor) IsEnabled() bool {
	return false
}

// simpleCompress performs basic extraction without an LLM.
func simpleCompress(messages []Message) string {
	var parts []string

	for _, msg := range messages {
		switch msg.Role {
		case "user":
			parts = append(parts, "User: "+truncate(msg.Content, 60))
		case "assistant":
			if len(msg.ToolCalls) > 0 {
				parts = append(parts, "Agent executed tools")
			} else if msg.Content != "" {
				parts = append(parts, "Agent: "+truncate(msg.Content, 50))
			}
		case "tool":
			parts = append(parts, "Tool result received")
		case "system":
			parts = append(parts, "System instruction")
		}
	}

	if len(parts) == 0 {
		return "Previous exchanges"
	}

	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
