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
package redshift

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/teradata-labs/bobbin/pkg/fabric"
)

// Compile-time interface check
var _ fabric.ExecutionBackend = (*Backend)(nil)

// openFunc opens a database handle. Swappable in tests.
type openFunc func(driverName, dataSourceName string) (*sql.DB, error)

// QueryError is a structured execution error carrying the vendor error
// code when the driver reported one.
type QueryError struct {
	Code    string
	Message string
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
	}
	return e.Message
}

// Backend implements fabric.ExecutionBackend for Amazon Redshift.
//
// Unlike pooled backends, every ExecuteQuery call opens a fresh connection
// and closes it when the call returns. Redshift leader-node sessions are
// cheap relative to query cost, and short-lived connections avoid stale
// session state between agent turns.
type Backend struct {
	config Config
	logger *zap.Logger
	open   openFunc
}

// NewBackend creates a new Redshift backend from configuration.
func NewBackend(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redshift config: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Backend{
		config: cfg,
		logger: cfg.Logger,
		open:   sql.Open,
	}, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return "redshift"
}

// ExecuteQuery executes a single SQL statement on a fresh connection.
//
// The statement runs inside a transaction whose first action sets a
// server-side statement_timeout. SELECT statements without a LIMIT clause
// get one injected so an unconstrained query cannot flood the agent
// context. Any execution error rolls the transaction back.
func (b *Backend) ExecuteQuery(ctx context.Context, statement string, rowLimit, timeoutSeconds int) (*fabric.QueryResult, error) {
	start := time.Now()
	statement = strings.TrimSpace(statement)

	db, err := b.open("postgres", b.config.DSN())
	if err != nil {
		return nil, classifyConnectionError(err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classifyConnectionError(err)
	}

	// statement_timeout is in milliseconds and scoped to the transaction
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET statement_timeout = %d", timeoutSeconds*1000)); err != nil {
		_ = tx.Rollback()
		return nil, wrapQueryError(err)
	}

	final := statement
	isSelect := isSelectStatement(statement)
	if isSelect {
		final = injectLimit(statement, rowLimit)
	}

	b.logger.Debug("executing statement",
		zap.String("backend", "redshift"),
		zap.Bool("select", isSelect),
		zap.Int("timeout_seconds", timeoutSeconds))

	var result *fabric.QueryResult
	if isSelect {
		result, err = executeSelect(ctx, tx, final, start)
	} else {
		result, err = executeModify(ctx, tx, final, start)
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapQueryError(err)
	}

	result.Statement = final
	return result, nil
}

// Ping verifies connectivity by opening and closing a connection.
func (b *Backend) Ping(ctx context.Context) error {
	db, err := b.open("postgres", b.config.DSN())
	if err != nil {
		return classifyConnectionError(err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return classifyConnectionError(err)
	}
	return nil
}

// Close releases backend resources. Connections are per-call, so there is
// nothing held between queries.
func (b *Backend) Close() error {
	return nil
}

func executeSelect(ctx context.Context, tx *sql.Tx, statement string, start time.Time) (*fabric.QueryResult, error) {
	rows, err := tx.QueryContext(ctx, statement)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, wrapQueryError(err)
	}

	cols := make([]fabric.Column, len(colNames))
	for i, name := range colNames {
		cols[i] = fabric.Column{Name: name}
	}
	if colTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range colTypes {
			cols[i].Type = ct.DatabaseTypeName()
		}
	}

	// Empty result sets still serialize as [], not null
	resultRows := make([]map[string]interface{}, 0)
	values := make([]interface{}, len(colNames))
	scanArgs := make([]interface{}, len(colNames))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, wrapQueryError(err)
		}
		row := make(map[string]interface{}, len(colNames))
		for i, name := range colNames {
			// lib/pq returns text columns as []byte
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}

	return &fabric.QueryResult{
		Type:     "rows",
		Rows:     resultRows,
		Columns:  cols,
		RowCount: len(resultRows),
		ExecutionStats: fabric.ExecutionStats{
			DurationMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

func executeModify(ctx context.Context, tx *sql.Tx, statement string, start time.Time) (*fabric.QueryResult, error) {
	res, err := tx.ExecContext(ctx, statement)
	if err != nil {
		return nil, wrapQueryError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		affected = -1
	}

	return &fabric.QueryResult{
		Type: "modify",
		ExecutionStats: fabric.ExecutionStats{
			DurationMs:   time.Since(start).Milliseconds(),
			RowsAffected: affected,
		},
	}, nil
}

// injectLimit appends a LIMIT clause to a SELECT statement that has none.
// The check is textual: any LIMIT keyword anywhere in the statement
// suppresses injection, erring on the side of never double-limiting.
func injectLimit(statement string, rowLimit int) string {
	if rowLimit <= 0 {
		return statement
	}
	if strings.Contains(strings.ToUpper(statement), "LIMIT") {
		return statement
	}
	trimmed := strings.TrimRight(strings.TrimSpace(statement), "; \t\n")
	return fmt.Sprintf("%s LIMIT %d", trimmed, rowLimit)
}

// isSelectStatement reports whether the statement's first token is SELECT,
// ignoring leading comments.
func isSelectStatement(statement string) bool {
	tokens := fabric.Tokenize(statement)
	if len(tokens) == 0 {
		return false
	}
	return strings.EqualFold(tokens[0], "SELECT")
}

// wrapQueryError converts driver errors into QueryError, preserving the
// vendor error code lib/pq reports.
func wrapQueryError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &QueryError{
			Code:    string(pqErr.Code),
			Message: pqErr.Message,
		}
	}
	return &QueryError{Message: err.Error()}
}

// classifyConnectionError maps low-level connection failures to stable,
// operator-friendly messages.
func classifyConnectionError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return fmt.Errorf("connection timeout: verify the cluster endpoint is reachable from this network: %w", err)
	case strings.Contains(msg, "password authentication") || strings.Contains(msg, "authentication"):
		return fmt.Errorf("authentication failed: verify Redshift user and password: %w", err)
	default:
		return fmt.Errorf("connection failed: %w", err)
	}
}
