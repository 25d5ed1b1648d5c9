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
package fabric

import (
	"fmt"
	"strings"
	"unicode"
)

// Issue represents a validation issue found during pre-flight check.
type Issue struct {
	Severity   string // "error", "warning", "info"
	Message    string
	Suggestion string
}

// destructivePatterns are statement fragments that require an explicit
// destructive declared type before they are allowed through.
var destructivePatterns = []string{
	"DROP DATABASE",
	"DROP SCHEMA",
	"TRUNCATE",
	"DELETE FROM",
}

// destructiveTypes are the declared query types that unlock the
// destructive patterns above.
var destructiveTypes = map[string]bool{
	"DELETE": true,
	"DROP":   true,
	"ALTER":  true,
}

// QueryValidator performs pre-flight validation of SQL statements before
// they reach a backend. Validation is fail-closed: a statement passes only
// when every check passes.
type QueryValidator struct{}

// NewQueryValidator creates a new query validator.
func NewQueryValidator() *QueryValidator {
	return &QueryValidator{}
}

// Name returns the validator identifier.
func (v *QueryValidator) Name() string {
	return "query_validator"
}

// Validate checks a statement against the declared query type and returns
// issues found. An empty slice means the statement is allowed.
//
// Checks, in order:
//  1. The statement must contain at least one token after comments are
//     stripped.
//  2. Destructive patterns (DROP DATABASE, DROP SCHEMA, TRUNCATE,
//     DELETE FROM) are allowed only when the declared type is one of
//     DELETE, DROP, or ALTER.
//  3. A statement declared as SELECT must actually begin with SELECT.
func (v *QueryValidator) Validate(statement, declaredType string) []Issue {
	issues := make([]Issue, 0)

	tokens := Tokenize(statement)
	if len(tokens) == 0 {
		issues = append(issues, Issue{
			Severity: "error",
			Message:  "statement is empty or contains only comments",
		})
		return issues
	}

	upperStmt := strings.ToUpper(statement)
	upperType := strings.ToUpper(strings.TrimSpace(declaredType))

	for _, pattern := range destructivePatterns {
		if strings.Contains(upperStmt, pattern) && !destructiveTypes[upperType] {
			issues = append(issues, Issue{
				Severity:   "error",
				Message:    fmt.Sprintf("statement contains destructive operation %q but declared query type is %q", pattern, declaredType),
				Suggestion: "declare query_type as DELETE, DROP, or ALTER to run destructive statements",
			})
		}
	}

	if upperType == "SELECT" && !strings.HasPrefix(strings.ToUpper(tokens[0]), "SELECT") {
		issues = append(issues, Issue{
			Severity:   "error",
			Message:    "query type is SELECT but statement does not begin with SELECT",
			Suggestion: "declare the query type that matches the statement",
		})
	}

	return issues
}

// Tokenize splits a SQL statement into whitespace-delimited tokens with
// line (--) and block (/* */) comments removed. It is a sanity pass, not
// a parser: enough to detect empty statements and find the leading keyword.
func Tokenize(statement string) []string {
	var sb strings.Builder
	runes := []rune(statement)
	inLineComment := false
	blockDepth := 0
	inSingleQuote := false

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if inLineComment {
			if c == '\n' {
				inLineComment = false
				sb.WriteRune(' ')
			}
			continue
		}
		if blockDepth > 0 {
			if c == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				blockDepth--
				i++
				if blockDepth == 0 {
					sb.WriteRune(' ')
				}
			}
			continue
		}
		if inSingleQuote {
			sb.WriteRune(c)
			if c == '\'' {
				inSingleQuote = false
			}
			continue
		}

		switch {
		case c == '\'':
			inSingleQuote = true
			sb.WriteRune(c)
		case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
			inLineComment = true
			i++
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			blockDepth++
			i++
		default:
			sb.WriteRune(c)
		}
	}

	return strings.FieldsFunc(sb.String(), unicode.IsSpace)
}
