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

	"go.uber.org/zap"

	"github.com/teradata-labs/bobbin/internal/log"
	"github.com/teradata-labs/bobbin/pkg/fabric"
	"github.com/teradata-labs/bobbin/pkg/shuttle"
)

// Compile-time interface check
var _ shuttle.Tool = (*QuerySQLTool)(nil)

// QuerySQLTool is the agent-facing entry: read-only queries with an
// optional row limit. The declared type is pinned to SELECT and the
// statement timeout to the configured default, so the model cannot
// unlock destructive statements by declaring a matching type. The rich
// ExecuteSQLTool remains available to programmatic callers.
type QuerySQLTool struct {
	inner *ExecuteSQLTool
}

// NewQuerySQLTool creates the simplified SQL query tool for a backend.
func NewQuerySQLTool(backend fabric.ExecutionBackend, opts ...Option) *QuerySQLTool {
	return &QuerySQLTool{inner: NewExecuteSQLTool(backend, opts...)}
}

func (t *QuerySQLTool) Name() string {
	return "execute_sql"
}

// Description returns the tool description.
func (t *QuerySQLTool) Description() string {
	return `Execute a read-only SQL query against the Redshift warehouse.

Use this tool to:
- Run SELECT queries to answer questions about the data
- Inspect schemas via system tables (pg_table_def, svv_table_info)

Only SELECT statements are accepted. Results are capped with an
automatic LIMIT unless the query already has one.`
}

func (t *QuerySQLTool) InputSchema() *shuttle.JSONSchema {
	return shuttle.NewObjectSchema(
		"Parameters for executing a SQL query",
		map[string]*shuttle.JSONSchema{
			"query": shuttle.NewStringSchema("The SELECT statement to execute"),
			"limit": shuttle.NewIntegerSchema("Maximum rows to return").
				WithDefault(t.inner.defaultRowLimit),
		},
		[]string{"query"},
	)
}

// Backend returns the backend type this tool requires.
func (t *QuerySQLTool) Backend() string {
	return t.inner.Backend()
}

// Execute delegates to the rich tool with the declared type and timeout
// pinned. Caller-supplied query_type or timeout parameters are discarded.
func (t *QuerySQLTool) Execute(ctx context.Context, params map[string]interface{}) (*shuttle.Result, error) {
	return t.inner.Execute(ctx, map[string]interface{}{
		"query":      params["query"],
		"limit":      params["limit"],
		"query_type": "SELECT",
	})
}

// QueryRows is a convenience entry for callers that only want the rows.
// It runs the query with the given row limit, logs any failure, and
// returns nil on failure.
func (t *QuerySQLTool) QueryRows(ctx context.Context, query string, limit int) []map[string]interface{} {
	result, err := t.Execute(ctx, map[string]interface{}{
		"query": query,
		"limit": limit,
	})
	if err != nil || result == nil {
		log.Error("query failed", zap.Error(err))
		return nil
	}
	if !result.Success {
		msg := "unknown error"
		if result.Error != nil {
			msg = result.Error.Message
		}
		log.Error("query failed", zap.String("error", msg))
		return nil
	}

	data, ok := result.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	rows, _ := data["rows"].([]map[string]interface{})
	return rows
}
