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
// Package fabric defines the execution-layer contract between tools and
// warehouse backends: the query result shape and the pre-flight statement
// validator.
package fabric

import "context"

// ExecutionBackend is the interface a warehouse backend implements.
// One statement per call; the backend owns connection lifecycle, timeout
// configuration, and result shaping.
type ExecutionBackend interface {
	// Name returns the backend identifier (e.g., "redshift")
	Name() string

	// ExecuteQuery executes a single SQL statement. rowLimit is injected
	// into SELECT statements that carry no LIMIT of their own;
	// timeoutSeconds is enforced server-side via a session directive.
	ExecuteQuery(ctx context.Context, statement string, rowLimit, timeoutSeconds int) (*QueryResult, error)

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// QueryResult represents the result of executing a statement.
type QueryResult struct {
	// Type indicates the result type ("rows" for reads, "modify" for writes)
	Type string

	// Rows for tabular results, record-oriented (column name -> value)
	Rows []map[string]interface{}

	// Columns in the order reported by the backend
	Columns []Column

	// RowCount for tabular results
	RowCount int

	// Statement is the statement actually sent to the backend,
	// after any LIMIT injection
	Statement string

	// ExecutionStats tracks execution metrics
	ExecutionStats ExecutionStats
}

// Column represents a column in tabular results.
type Column struct {
	Name string
	Type string
}

// ExecutionStats tracks execution metrics.
type ExecutionStats struct {
	// DurationMs is wall-clock execution time in milliseconds
	DurationMs int64

	// RowsAffected for write operations
	RowsAffected int64
}

// ExecutionSeconds returns the wall-clock duration in seconds.
func (s ExecutionStats) ExecutionSeconds() float64 {
	return float64(s.DurationMs) / 1000.0
}
