// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// CompiledSchema is a tool input schema ready for validation.
type CompiledSchema struct {
	resolved *jsonschema.Resolved
}

// CompileSchema parses and resolves a JSON Schema document.
// Tool servers commonly declare draft-07 in $schema; the declaration is
// dropped so the keywords shared with 2020-12 are still enforced.
func CompileSchema(raw json.RawMessage) (*CompiledSchema, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse input schema: %w", err)
	}
	schema.Schema = ""

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input schema: %w", err)
	}
	return &CompiledSchema{resolved: resolved}, nil
}

// Validate checks an instance and returns the problems found, or nil.
func (c *CompiledSchema) Validate(instance map[string]any) []string {
	if err := c.resolved.Validate(instance); err != nil {
		return splitValidationError(err)
	}
	return nil
}

// splitValidationError turns a possibly joined error into one line per problem.
func splitValidationError(err error) []string {
	var problems []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			problems = append(problems, line)
		}
	}
	if len(problems) == 0 {
		problems = []string{err.Error()}
	}
	return problems
}

// HasSchema reports whether raw declares a schema worth validating against.
func HasSchema(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
