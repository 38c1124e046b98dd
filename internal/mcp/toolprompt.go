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
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

const toolPromptHeader = `# Available Tools

The following tools are provided by locally configured MCP servers.
Invoke a tool with:

    mcpm call <server> <tool> '<json arguments>'

`

// GenerateToolPrompt renders a markdown description of the tools of every
// enabled server in statuses. Servers that fail to start or list their
// tools get an inline error note; the other sections still render.
func (p *Proxy) GenerateToolPrompt(ctx context.Context, statuses []ServerStatus) string {
	var enabled []ServerDefinition
	for _, s := range statuses {
		if s.Enabled {
			enabled = append(enabled, s.Definition)
		}
	}

	sections := make([]string, len(enabled))
	var wg sync.WaitGroup
	for i, def := range enabled {
		wg.Add(1)
		go func(i int, def ServerDefinition) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()

			tools, err := p.listDefinitionTools(callCtx, def)
			sections[i] = renderServerSection(def.Name, tools, err)
		}(i, def)
	}
	wg.Wait()

	return toolPromptHeader + strings.Join(sections, "\n---\n")
}

func renderServerSection(server string, tools []ToolDefinition, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## tool: %s\n\n", server)

	if err != nil {
		fmt.Fprintf(&sb, "\n**ERROR**: %s\n", err.Error())
		return sb.String()
	}
	if len(tools) == 0 {
		sb.WriteString("*No tools available*\n")
		return sb.String()
	}

	for _, tool := range tools {
		fmt.Fprintf(&sb, "### function: %s\n", tool.Name)
		if tool.Description != "" {
			sb.WriteString(tool.Description)
			sb.WriteString("\n")
		}
		sb.WriteString("**Parameters**:\n")
		sb.WriteString(compactSchema(tool.InputSchema))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func compactSchema(raw json.RawMessage) string {
	if !HasSchema(raw) {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
