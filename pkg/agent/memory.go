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
	"math"
	"sync"
	"time"

	"github.com/teradata-labs/bobbin/pkg/llm"
)

// Message is the conversation message type shared with the LLM layer.
type Message = llm.Message

// ToolCall is re-exported for callers building conversation history.
type ToolCall = llm.ToolCall

// SummarizationConfig controls when and how conversation history is
// compressed into summaries.
type SummarizationConfig struct {
	// MaxContextTokens is the context window budget for a session.
	// When estimated history tokens exceed it, summarization runs.
	MaxContextTokens int

	// SummaryRatio is the fraction of messages (oldest first) folded
	// into the summary on each summarization pass.
	SummaryRatio float64

	// PreservedRecentMessages are never summarized, regardless of ratio.
	PreservedRecentMessages int
}

// DefaultSummarizationConfig returns the summarization defaults.
func DefaultSummarizationConfig() SummarizationConfig {
	return SummarizationConfig{
		MaxContextTokens:        100_000,
		SummaryRatio:            0.3,
		PreservedRecentMessages: 10,
	}
}

// normalized fills zero fields with defaults and clamps the ratio.
func (c SummarizationConfig) normalized() SummarizationConfig {
	def := DefaultSummarizationConfig()
	if c.MaxContextTokens <= 0 {
		c.MaxContextTokens = def.MaxContextTokens
	}
	if c.SummaryRatio <= 0 || c.SummaryRatio > 1 {
		c.SummaryRatio = def.SummaryRatio
	}
	if c.PreservedRecentMessages <= 0 {
		c.PreservedRecentMessages = def.PreservedRecentMessages
	}
	return c
}

// Session holds the conversation history for one session ID.
type Session struct {
	mu       sync.RWMutex
	ID       string
	Messages []Message
	Created  time.Time
	Updated  time.Time
}

// AddMessage appends a message to the session history.
func (s *Session) AddMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, msg)
	s.Updated = time.Now()
}

// GetMessages returns a copy of the session history.
func (s *Session) GetMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// MessageCount returns the number of messages in the session.
func (s *Session) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Messages)
}

// Memory manages conversation sessions with summarizing compression.
// When a session's estimated token footprint exceeds the configured
// context budget, the oldest slice of the history is folded into a
// single summary message; the most recent messages always survive
// verbatim.
type Memory struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	config     SummarizationConfig
	compressor MemoryCompressor
	counter    *TokenCounter
}

// NewMemory creates a session manager with the given summarization
// config. A nil compressor falls back to simple extraction.
func NewMemory(config SummarizationConfig, compressor MemoryCompressor) *Memory {
	if compressor == nil {
		compressor = NewSimpleCompressor()
	}
	return &Memory{
		sessions:   make(map[string]*Session),
		config:     config.normalized(),
		compressor: compressor,
		counter:    GetTokenCounter(),
	}
}

// Config returns the active summarization configuration.
func (m *Memory) Config() SummarizationConfig {
	return m.config
}

// GetOrCreateSession gets an existing session or creates a new one.
func (m *Memory) GetOrCreateSession(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[sessionID]; ok {
		return session
	}
	session := &Session{
		ID:      sessionID,
		Created: time.Now(),
		Updated: time.Now(),
	}
	m.sessions[sessionID] = session
	return session
}

// GetSession returns a session if it exists.
func (m *Memory) GetSession(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// DeleteSession discards a session's history.
func (m *Memory) DeleteSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// SessionIDs lists the active sessions.
func (m *Memory) SessionIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Condense summarizes the session's oldest messages if the history has
// outgrown the context budget. Returns true when a summary replaced
// part of the history.
func (m *Memory) Condense(ctx context.Context, session *Session) (bool, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if m.counter.EstimateMessagesTokens(session.Messages) <= m.config.MaxContextTokens {
		return false, nil
	}

	cut := m.summaryCut(session.Messages)
	if cut <= 0 {
		return false, nil
	}

	summary, err := m.compressor.CompressMessages(ctx, session.Messages[:cut])
	if err != nil {
		return false, err
	}

	condensed := make([]Message, 0, len(session.Messages)-cut+1)
	condensed = append(condensed, Message{
		Role:      "assistant",
		Content:   "[Conversation summary] " + summary,
		Timestamp: time.Now(),
	})
	condensed = append(condensed, session.Messages[cut:]...)
	session.Messages = condensed
	session.Updated = time.Now()

	return true, nil
}

// summaryCut picks how many leading messages to fold into the summary.
// The cut never reaches into the preserved recent tail, and never splits
// an assistant tool call from the tool result that answers it.
func (m *Memory) summaryCut(messages []Message) int {
	limit := len(messages) - m.config.PreservedRecentMessages
	if limit <= 0 {
		return 0
	}

	cut := int(math.Ceil(float64(len(messages)) * m.config.SummaryRatio))
	if cut > limit {
		cut = limit
	}

	// A tool result must stay adjacent to the assistant message that
	// requested it. Pull trailing results into the summarized slice.
	for cut < limit && messages[cut].Role == "tool" {
		cut++
	}

	return cut
}
