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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateSession(t *testing.T) {
	m := NewMemory(SummarizationConfig{}, nil)

	s1 := m.GetOrCreateSession("a")
	s2 := m.GetOrCreateSession("a")
	s3 := m.GetOrCreateSession("b")

	assert.Same(t, s1, s2)
	assert.NotSame(t, s1, s3)
	assert.Len(t, m.SessionIDs(), 2)
}

func TestSummarizationConfigDefaults(t *testing.T) {
	m := NewMemory(SummarizationConfig{}, nil)

	cfg := m.Config()
	assert.Equal(t, 100_000, cfg.MaxContextTokens)
	assert.InDelta(t, 0.3, cfg.SummaryRatio, 0.001)
	assert.Equal(t, 10, cfg.PreservedRecentMessages)
}

func TestSummarizationConfigPassThrough(t *testing.T) {
	m := NewMemory(SummarizationConfig{
		MaxContextTokens:        5_000,
		SummaryRatio:            0.5,
		PreservedRecentMessages: 4,
	}, nil)

	cfg := m.Config()
	assert.Equal(t, 5_000, cfg.MaxContextTokens)
	assert.InDelta(t, 0.5, cfg.SummaryRatio, 0.001)
	assert.Equal(t, 4, cfg.PreservedRecentMessages)
}

func TestCondenseBelowBudgetIsNoOp(t *testing.T) {
	m := NewMemory(SummarizationConfig{MaxContextTokens: 100_000}, nil)
	session := m.GetOrCreateSession("s")
	session.AddMessage(Message{Role: "user", Content: "short"})

	compressed, err := m.Condense(context.Background(), session)

	require.NoError(t, err)
	assert.False(t, compressed)
	assert.Equal(t, 1, session.MessageCount())
}

func TestCondenseSummarizesOldestMessages(t *testing.T) {
	m := NewMemory(SummarizationConfig{
		MaxContextTokens:        50, // tiny budget forces summarization
		SummaryRatio:            0.5,
		PreservedRecentMessages: 2,
	}, NewSimpleCompressor())
	session := m.GetOrCreateSession("s")

	for i := 0; i < 10; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		session.AddMessage(Message{Role: role, Content: strings.Repeat("words and more words ", 5)})
	}

	compressed, err := m.Condense(context.Background(), session)

	require.NoError(t, err)
	assert.True(t, compressed)

	messages := session.GetMessages()
	// 10 messages, ratio 0.5 -> 5 summarized, replaced by 1 summary
	require.Len(t, messages, 6)
	assert.Equal(t, "assistant", messages[0].Role)
	assert.Contains(t, messages[0].Content, "[Conversation summary]")
}

func TestCondensePreservesRecentMessages(t *testing.T) {
	m := NewMemory(SummarizationConfig{
		MaxContextTokens:        50,
		SummaryRatio:            0.9, // would eat almost everything
		PreservedRecentMessages: 3,
	}, NewSimpleCompressor())
	session := m.GetOrCreateSession("s")

	for i := 0; i < 8; i++ {
		session.AddMessage(Message{Role: "user", Content: strings.Repeat("chatter ", 10)})
	}
	session.AddMessage(Message{Role: "user", Content: "most recent question"})

	_, err := m.Condense(context.Background(), session)
	require.NoError(t, err)

	messages := session.GetMessages()
	// summary + preserved tail of 3
	require.Len(t, messages, 4)
	assert.Equal(t, "most recent question", messages[len(messages)-1].Content)
}

func TestCondenseKeepsToolResultWithItsCall(t *testing.T) {
	m := NewMemory(SummarizationConfig{
		MaxContextTokens:        10,
		SummaryRatio:            0.25,
		PreservedRecentMessages: 2,
	}, NewSimpleCompressor())
	session := m.GetOrCreateSession("s")

	long := strings.Repeat("filler ", 20)
	session.AddMessage(Message{Role: "user", Content: long})
	session.AddMessage(Message{Role: "assistant", Content: long, ToolCalls: []ToolCall{{ID: "tc_1", Name: "execute_sql"}}})
	session.AddMessage(Message{Role: "tool", ToolUseID: "tc_1", Content: long})
	session.AddMessage(Message{Role: "assistant", Content: long})
	session.AddMessage(Message{Role: "user", Content: long})
	session.AddMessage(Message{Role: "assistant", Content: long})

	_, err := m.Condense(context.Background(), session)
	require.NoError(t, err)

	// No orphaned tool result at the head of the surviving history
	messages := session.GetMessages()
	for i, msg := range messages {
		if msg.Role == "tool" && i > 0 {
			assert.NotEmpty(t, messages[i-1].ToolCalls, "tool result must follow its assistant call")
		}
	}
	assert.NotEqual(t, "tool", messages[1].Role, "summary must not be followed by an orphaned tool result")
}
