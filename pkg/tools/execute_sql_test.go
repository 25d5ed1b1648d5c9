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
package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/bobbin/pkg/backends/redshift"
	"github.com/teradata-labs/bobbin/pkg/fabric"
)

// spyBackend records calls so tests can assert the tool never touches the
// backend on validation failures.
type spyBackend struct {
	calls      int
	lastQuery  string
	lastLimit  int
	lastTimout int
	result     *fabric.QueryResult
	err        error
}

func (s *spyBackend) Name() string { return "spy" }

func (s *spyBackend) ExecuteQuery(ctx context.Context, statement string, rowLimit, timeoutSeconds int) (*fabric.QueryResult, error) {
	s.calls++
	s.lastQuery = statement
	s.lastLimit = rowLimit
	s.lastTimout = timeoutSeconds
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &fabric.QueryResult{Type: "rows", Statement: statement}, nil
}

func (s *spyBackend) Ping(ctx context.Context) error { return nil }
func (s *spyBackend) Close() error                   { return nil }

func TestExecuteSQLSuccess(t *testing.T) {
	backend := &spyBackend{
		result: &fabric.QueryResult{
			Type:      "rows",
			Rows:      []map[string]interface{}{{"id": 1}},
			Columns:   []fabric.Column{{Name: "id"}},
			RowCount:  1,
			Statement: "SELECT id FROM t LIMIT 1000",
		},
	}
	tool := NewExecuteSQLTool(backend)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"query": "SELECT id FROM t",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, DefaultRowLimit, backend.lastLimit)
	assert.Equal(t, DefaultTimeoutSeconds, backend.lastTimout)

	data := result.Data.(map[string]interface{})
	assert.Equal(t, "rows", data["type"])
	assert.Equal(t, 1, data["row_count"])
	assert.Equal(t, []string{"id"}, data["columns"])
}

func TestExecuteSQLMissingQuery(t *testing.T) {
	backend := &spyBackend{}
	tool := NewExecuteSQLTool(backend)

	for _, params := range []map[string]interface{}{
		{},
		{"query": ""},
		{"query": "   "},
		{"query": 42},
	} {
		result, err := tool.Execute(context.Background(), params)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "MISSING_QUERY", result.Error.Code)
	}
	assert.Equal(t, 0, backend.calls, "missing query must not touch the backend")
}

func TestExecuteSQLBlockedQueryNeverConnects(t *testing.T) {
	backend := &spyBackend{}
	tool := NewExecuteSQLTool(backend)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":      "DROP DATABASE prod",
		"query_type": "SELECT",
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "QUERY_NOT_ALLOWED", result.Error.Code)
	assert.Equal(t, 0, backend.calls, "blocked query must not touch the backend")
}

func TestExecuteSQLDestructiveAllowedWithDeclaredType(t *testing.T) {
	backend := &spyBackend{
		result: &fabric.QueryResult{Type: "modify", ExecutionStats: fabric.ExecutionStats{RowsAffected: 7}},
	}
	tool := NewExecuteSQLTool(backend)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":      "DELETE FROM events WHERE day < '2024-01-01'",
		"query_type": "DELETE",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, int64(7), data["rows_affected"])
}

func TestExecuteSQLBackendErrorBecomesEnvelope(t *testing.T) {
	backend := &spyBackend{
		err: &redshift.QueryError{Code: "42601", Message: "syntax error at or near"},
	}
	tool := NewExecuteSQLTool(backend)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"query": "SELECT FROM",
	})

	require.NoError(t, err, "backend errors must become failure envelopes")
	assert.False(t, result.Success)
	assert.Equal(t, "42601", result.Error.Code)
	assert.Contains(t, result.Error.Message, "syntax error")
}

func TestExecuteSQLParamCoercion(t *testing.T) {
	backend := &spyBackend{}
	tool := NewExecuteSQLTool(backend)

	// JSON decoding hands numbers to tools as float64
	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":   "SELECT 1",
		"limit":   float64(25),
		"timeout": float64(60),
	})

	require.NoError(t, err)
	assert.Equal(t, 25, backend.lastLimit)
	assert.Equal(t, 60, backend.lastTimout)
}

func TestExecuteSQLConfiguredDefaults(t *testing.T) {
	backend := &spyBackend{}
	tool := NewExecuteSQLTool(backend, WithRowLimit(50), WithTimeout(5))

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"query": "SELECT 1",
	})

	require.NoError(t, err)
	assert.Equal(t, 50, backend.lastLimit)
	assert.Equal(t, 5, backend.lastTimout)
}

func TestExecuteSQLFailureCarriesStatement(t *testing.T) {
	backend := &spyBackend{
		err: &redshift.QueryError{Code: "42601", Message: "syntax error at or near"},
	}
	tool := NewExecuteSQLTool(backend)

	blocked, err := tool.Execute(context.Background(), map[string]interface{}{
		"query": "DROP DATABASE prod",
	})
	require.NoError(t, err)
	assert.Equal(t, "DROP DATABASE prod", blocked.Error.Details["statement"])

	failed, err := tool.Execute(context.Background(), map[string]interface{}{
		"query": "SELECT FROM",
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT FROM", failed.Error.Details["statement"])
}

func TestExecuteSQLSuccessReportsExecutionSeconds(t *testing.T) {
	backend := &spyBackend{
		result: &fabric.QueryResult{
			Type:           "rows",
			ExecutionStats: fabric.ExecutionStats{DurationMs: 1500},
		},
	}
	tool := NewExecuteSQLTool(backend)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"query": "SELECT 1",
	})

	require.NoError(t, err)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, 1.5, data["execution_time_seconds"])
}
