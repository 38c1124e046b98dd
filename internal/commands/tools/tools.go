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


// Package tools implements the commands that talk to servers: call, tools
// and toolprompt. Each starts the server for the duration of one request.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/cli/format"
	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/mcp"
)

// NewCommands returns the tool commands.
func NewCommands() []*cobra.Command {
	return []*cobra.Command{
		newCallCommand(),
		newToolsCommand(),
		newToolPromptCommand(),
	}
}

func newCallCommand() *cobra.Command {
	var jqExpr string

	cmd := &cobra.Command{
		Use:     "call <server> <tool> [json-arguments]",
		Short:   "Call a tool on an enabled MCP server",
		GroupID: shared.GroupTools,
		Long: `Start the server, validate the arguments against the tool's input schema,
call the tool and print its result. The server is stopped afterwards.

Arguments are a JSON object; when omitted the tool is called with {}.`,
		Example: `  mcpm call files read_file '{"path": "/tmp/notes.txt"}'

  # Pick a field out of a JSON result
  mcpm call github search_issues '{"query": "bug"}' --jq '.items[].title'`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := "{}"
			if len(args) == 3 {
				raw = args[2]
			}
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runCall(cmd.Context(), cmd.OutOrStdout(), svc.Proxy, args[0], args[1], raw, jqExpr)
			})
		},
	}

	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter a JSON result with a jq expression")

	return cmd
}

type callResponse struct {
	shared.JSONResponse
	Server  string            `json:"server"`
	Tool    string            `json:"tool"`
	Content []mcp.ContentItem `json:"content"`
}

func runCall(ctx context.Context, w io.Writer, proxy *mcp.Proxy, server, tool, raw, jqExpr string) error {
	resp, err := proxy.CallTool(ctx, server, tool, raw)
	if err != nil {
		return err
	}

	if jqExpr != "" {
		text := resp.Text()
		var data any
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			data = text
		}
		return shared.WriteJQ(ctx, w, jqExpr, data)
	}
	if shared.GetJSON() {
		content := resp.Content
		if content == nil {
			content = []mcp.ContentItem{}
		}
		return shared.EmitJSON(w, callResponse{
			JSONResponse: shared.NewJSONResponse("call"),
			Server:       server,
			Tool:         tool,
			Content:      content,
		})
	}

	out := format.ToolOutput(resp.Text(), format.IsTTY(w))
	fmt.Fprintln(w, strings.TrimRight(out, "\n"))
	for _, item := range resp.Content {
		if item.Type != "text" {
			fmt.Fprintln(w, shared.RenderLabel(fmt.Sprintf("[%s content omitted, %s]", item.Type, item.MimeType)))
		}
	}
	return nil
}

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "tools <server>",
		Short:   "List the tools of an enabled MCP server",
		GroupID: shared.GroupTools,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runTools(cmd.Context(), cmd.OutOrStdout(), svc.Proxy, args[0])
			})
		},
	}
}

type toolsResponse struct {
	shared.JSONResponse
	Server string               `json:"server"`
	Tools  []mcp.ToolDefinition `json:"tools"`
}

func runTools(ctx context.Context, w io.Writer, proxy *mcp.Proxy, server string) error {
	tools, err := proxy.ListTools(ctx, server)
	if err != nil {
		return err
	}
	if tools == nil {
		tools = []mcp.ToolDefinition{}
	}

	if shared.GetJSON() {
		return shared.EmitJSON(w, toolsResponse{
			JSONResponse: shared.NewJSONResponse("tools"),
			Server:       server,
			Tools:        tools,
		})
	}

	if len(tools) == 0 {
		fmt.Fprintln(w, "No tools available from this server.")
		return nil
	}

	fmt.Fprintf(w, "Tools from %s:\n\n", server)
	for _, t := range tools {
		fmt.Fprintf(w, "  %s\n", shared.Bold.Render(t.Name))
		for _, line := range wrapText(t.Description, 60) {
			fmt.Fprintf(w, "    %s\n", line)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func wrapText(text string, width int) []string {
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
