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
// Package tools contains the concrete shuttle tools the SQL agent exposes
// to the LLM.
package tools

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/bobbin/internal/log"
	"github.com/teradata-labs/bobbin/pkg/backends/redshift"
	"github.com/teradata-labs/bobbin/pkg/fabric"
	"github.com/teradata-labs/bobbin/pkg/shuttle"
)

// Defaults applied when the LLM omits optional parameters.
const (
	DefaultRowLimit       = 1000
	DefaultTimeoutSeconds = 30
)

// Compile-time interface check
var _ shuttle.Tool = (*ExecuteSQLTool)(nil)

// ExecuteSQLTool executes SQL statements against a warehouse backend.
//
// The tool never returns a Go error and never lets a backend failure
// escape: every outcome is a Result envelope, so the conversation loop
// always has something well-formed to hand back to the LLM.
type ExecuteSQLTool struct {
	backend   fabric.ExecutionBackend
	validator *fabric.QueryValidator

	defaultRowLimit int
	defaultTimeout  int
}

// Option configures an ExecuteSQLTool.
type Option func(*ExecuteSQLTool)

// WithRowLimit overrides the default row limit for SELECT queries.
func WithRowLimit(n int) Option {
	return func(t *ExecuteSQLTool) {
		if n > 0 {
			t.defaultRowLimit = n
		}
	}
}

// WithTimeout overrides the default statement timeout in seconds.
func WithTimeout(seconds int) Option {
	return func(t *ExecuteSQLTool) {
		if seconds > 0 {
			t.defaultTimeout = seconds
		}
	}
}

// NewExecuteSQLTool creates the SQL execution tool for a backend.
func NewExecuteSQLTool(backend fabric.ExecutionBackend, opts ...Option) *ExecuteSQLTool {
	t := &ExecuteSQLTool{
		backend:         backend,
		validator:       fabric.NewQueryValidator(),
		defaultRowLimit: DefaultRowLimit,
		defaultTimeout:  DefaultTimeoutSeconds,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *ExecuteSQLTool) Name() string {
	return "execute_sql"
}

// Description returns the tool description.
func (t *ExecuteSQLTool) Description() string {
	return `Execute a SQL statement against the Redshift warehouse.

Use this tool to:
- Run SELECT queries to answer questions about the data
- Inspect schemas via system tables (pg_table_def, svv_table_info)
- Run DML/DDL when the user explicitly asks for it

SELECT results are capped with an automatic LIMIT unless the query
already has one. Destructive statements (DROP DATABASE, DROP SCHEMA,
TRUNCATE, DELETE FROM) require the matching query_type to be declared.`
}

func (t *ExecuteSQLTool) InputSchema() *shuttle.JSONSchema {
	return shuttle.NewObjectSchema(
		"Parameters for executing a SQL statement",
		map[string]*shuttle.JSONSchema{
			"query": shuttle.NewStringSchema("The SQL statement to execute"),
			"query_type": shuttle.NewStringSchema("Statement type: SELECT, INSERT, UPDATE, DELETE, DROP, ALTER, or CREATE").
				WithDefault("SELECT"),
			"limit": shuttle.NewIntegerSchema("Maximum rows to return for SELECT queries").
				WithDefault(t.defaultRowLimit),
			"timeout": shuttle.NewIntegerSchema("Statement timeout in seconds").
				WithDefault(t.defaultTimeout),
		},
		[]string{"query"},
	)
}

// Backend returns the backend type this tool requires.
func (t *ExecuteSQLTool) Backend() string {
	return "redshift"
}

// Execute runs the statement and shapes the outcome into a Result.
// Validation failures short-circuit before any connection is opened.
func (t *ExecuteSQLTool) Execute(ctx context.Context, params map[string]interface{}) (*shuttle.Result, error) {
	start := time.Now()

	query, _ := params["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return &shuttle.Result{
			Success: false,
			Error: &shuttle.Error{
				Code:       "MISSING_QUERY",
				Message:    "query must be a non-empty string",
				Suggestion: "Provide the SQL statement to execute",
			},
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	queryType := "SELECT"
	if qt, ok := params["query_type"].(string); ok && strings.TrimSpace(qt) != "" {
		queryType = strings.ToUpper(strings.TrimSpace(qt))
	}

	rowLimit := intParam(params, "limit", t.defaultRowLimit)
	timeout := intParam(params, "timeout", t.defaultTimeout)

	if issues := t.validator.Validate(query, queryType); len(issues) > 0 {
		return &shuttle.Result{
			Success: false,
			Error: &shuttle.Error{
				Code:       "QUERY_NOT_ALLOWED",
				Message:    issues[0].Message,
				Suggestion: issues[0].Suggestion,
				Details: map[string]interface{}{
					"query_type": queryType,
					"statement":  query,
				},
			},
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	result, err := t.backend.ExecuteQuery(ctx, query, rowLimit, timeout)
	if err != nil {
		code := "EXECUTION_FAILED"
		var qerr *redshift.QueryError
		if errors.As(err, &qerr) && qerr.Code != "" {
			code = qerr.Code
		}
		log.Warn("statement failed",
			zap.String("tool", t.Name()),
			zap.String("code", code),
			zap.Error(err))
		return &shuttle.Result{
			Success: false,
			Error: &shuttle.Error{
				Code:    code,
				Message: err.Error(),
				Details: map[string]interface{}{"statement": query},
			},
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	data := map[string]interface{}{
		"type":                   result.Type,
		"statement":              result.Statement,
		"execution_time_seconds": result.ExecutionStats.ExecutionSeconds(),
	}
	switch result.Type {
	case "rows":
		columns := make([]string, len(result.Columns))
		for i, c := range result.Columns {
			columns[i] = c.Name
		}
		data["rows"] = result.Rows
		data["columns"] = columns
		data["row_count"] = result.RowCount
	default:
		data["rows_affected"] = result.ExecutionStats.RowsAffected
	}

	return &shuttle.Result{
		Success:         true,
		Data:            data,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
		Metadata: map[string]interface{}{
			"duration_ms": result.ExecutionStats.DurationMs,
		},
	}, nil
}

// intParam coerces a numeric parameter, tolerating the float64 values
// JSON decoding produces.
func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return def
}
