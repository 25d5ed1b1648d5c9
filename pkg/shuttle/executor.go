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
package shuttle

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/teradata-labs/bobbin/internal/log"
)

// Executor executes tools with tracking and error handling.
// Tool failures are never surfaced as Go errors to the caller: every
// outcome, including a panic inside a tool, becomes a failure Result so
// the conversation loop can report it back to the LLM.
type Executor struct {
	registry *Registry
}

// NewExecutor creates a new tool executor.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute executes a tool by name with the given parameters.
func (e *Executor) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*Result, error) {
	tool, ok := e.registry.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", toolName)
	}
	return e.ExecuteWithTool(ctx, tool, params)
}

// ExecuteWithTool executes a specific tool instance (not from registry).
func (e *Executor) ExecuteWithTool(ctx context.Context, tool Tool, params map[string]interface{}) (result *Result, err error) {
	// Normalize parameters to match schema expectations
	// LLMs naturally use snake_case, but some tools expect camelCase
	normalizedParams := normalizeParametersToSchema(tool, params)

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panicked",
				zap.String("tool", tool.Name()),
				zap.Any("panic", r))
			result = &Result{
				Success: false,
				Error: &Error{
					Code:      "internal_error",
					Message:   fmt.Sprintf("tool %s panicked: %v", tool.Name(), r),
					Retryable: false,
				},
				ExecutionTimeMs: time.Since(start).Milliseconds(),
			}
			err = nil
		}
	}()

	result, execErr := tool.Execute(ctx, normalizedParams)
	duration := time.Since(start)

	if execErr != nil {
		return &Result{
			Success:         false,
			Error:           &Error{Code: "execution_failed", Message: execErr.Error(), Retryable: false},
			ExecutionTimeMs: duration.Milliseconds(),
		}, nil
	}

	if result == nil {
		// Tool returned nil result, create one
		result = &Result{Success: true}
	}

	// Executor timing is authoritative, even if the tool set its own
	result.ExecutionTimeMs = duration.Milliseconds()

	return result, nil
}

// normalizeParametersToSchema attempts to normalize parameter names to match the tool's schema.
// This handles the common issue where LLMs use snake_case but tools expect camelCase (or vice versa).
func normalizeParametersToSchema(tool Tool, params map[string]interface{}) map[string]interface{} {
	if len(params) == 0 {
		return params
	}

	schema := tool.InputSchema()
	if schema == nil || schema.Properties == nil {
		return params // No schema to normalize against
	}

	// Build a mapping of lowercase parameter names to actual schema names
	schemaKeys := make(map[string]string)
	for key := range schema.Properties {
		schemaKeys[toLowerUnderscore(key)] = key
	}

	normalized := make(map[string]interface{}, len(params))
	for key, value := range params {
		normalizedKey := toLowerUnderscore(key)
		if schemaKey, exists := schemaKeys[normalizedKey]; exists {
			// Use the schema's preferred key name
			normalized[schemaKey] = value
		} else {
			// No match found, use original key
			normalized[key] = value
		}
	}

	return normalized
}

// toLowerUnderscore converts any naming convention to lowercase with underscores.
// This allows matching camelCase, snake_case, PascalCase, etc.
func toLowerUnderscore(s string) string {
	if s == "" {
		return ""
	}

	var result []rune
	for i, r := range s {
		lower := unicode.ToLower(r)

		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '_')
		}

		result = append(result, lower)
	}

	return string(result)
}
