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


package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	mcpm "github.com/tombee/mcpm/internal/mcp"
)

func nameProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list-mcp-servers",
		Description: "List all MCP servers with whether each is enabled in the host configuration",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, s.handleList)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "add-mcp-server",
		Description: "Manually add a new MCP server (for advanced users)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"name": nameProperty("Name of the MCP server"),
				"config": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"command": map[string]any{
							"type":        "string",
							"description": "Command to run the server",
						},
						"args": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Arguments for the command",
						},
					},
					"required": []string{"command", "args"},
				},
			},
			Required: []string{"name", "config"},
		},
	}, s.handleAdd)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "remove-mcp-server",
		Description: "Remove an MCP server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"name": nameProperty("Name of the MCP server to remove")},
			Required:   []string{"name"},
		},
	}, s.lifecycleHandler("remove-mcp-server", "remove", "removed", s.manager.Remove))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "enable-mcp-server",
		Description: "Enable a disabled MCP server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"name": nameProperty("Name of the MCP server to enable")},
			Required:   []string{"name"},
		},
	}, s.lifecycleHandler("enable-mcp-server", "enable", "enabled", s.manager.Enable))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "disable-mcp-server",
		Description: "Disable an MCP server, keeping its definition",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"name": nameProperty("Name of the MCP server to disable")},
			Required:   []string{"name"},
		},
	}, s.lifecycleHandler("disable-mcp-server", "disable", "disabled", s.manager.Disable))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "search-mcp-server",
		Description: "Search for MCP server packages in the registry",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query (optional)",
				},
			},
		},
	}, s.handleSearch)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "install-mcp-server",
		Description: "Install a MCP package from the registry (automated configuration)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"name": nameProperty("Package ID to install"),
				"parameters": map[string]any{
					"type":                 "object",
					"additionalProperties": map[string]any{"type": "string"},
					"description":          "Package parameters (optional)",
				},
			},
			Required: []string{"name"},
		},
	}, s.handleInstall)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "restart-host",
		Description: "Restart the host application (Claude Desktop) so it reloads its servers",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, s.handleRestart)
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invoke(ctx, "list-mcp-servers", "", "Failed to list servers", func(ctx context.Context) (string, error) {
		statuses, err := s.manager.ListAllWithStatus()
		if err != nil {
			return "", err
		}
		if statuses == nil {
			statuses = []mcpm.ServerStatus{}
		}
		return jsonText(statuses)
	}), nil
}

func (s *Server) handleAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	boot, err := bootConfigArgument(request.GetArguments()["config"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add server '%s': %v", name, err)), nil
	}

	return s.invoke(ctx, "add-mcp-server", name, fmt.Sprintf("Failed to add server '%s'", name), func(ctx context.Context) (string, error) {
		if _, err := s.manager.Add(name, boot, mcpm.ProvenanceLocal); err != nil {
			return "", err
		}
		return fmt.Sprintf("MCP server '%s' added successfully", name), nil
	}), nil
}

// lifecycleHandler builds the handler of remove, enable and disable.
func (s *Server) lifecycleHandler(tool, verb, past string, apply func(string) error) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.invoke(ctx, tool, name, fmt.Sprintf("Failed to %s server '%s'", verb, name), func(ctx context.Context) (string, error) {
			if err := apply(name); err != nil {
				return "", err
			}
			return fmt.Sprintf("MCP server '%s' %s successfully", name, past), nil
		}), nil
	}
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	return s.invoke(ctx, "search-mcp-server", "", "Failed to search packages", func(ctx context.Context) (string, error) {
		if s.packages == nil {
			return "", mcpm.NewMCPError(mcpm.ErrorCodeConfig, "no package registry configured")
		}
		pkgs, err := s.packages.SearchPackages(ctx, query)
		if err != nil {
			return "", err
		}
		if len(pkgs) == 0 {
			return "No packages found.", nil
		}
		return jsonText(pkgs)
	}), nil
}

func (s *Server) handleInstall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params, err := stringMapArgument(request.GetArguments()["parameters"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to install package '%s': %v", id, err)), nil
	}

	return s.invoke(ctx, "install-mcp-server", id, fmt.Sprintf("Failed to install package '%s'", id), func(ctx context.Context) (string, error) {
		if _, err := s.manager.InstallFromPackage(ctx, id, params); err != nil {
			return "", err
		}
		return fmt.Sprintf("Package '%s' installed successfully", id), nil
	}), nil
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.invoke(ctx, "restart-host", "", "Failed to restart the host application", func(ctx context.Context) (string, error) {
		if s.host == nil {
			return "", mcpm.NewMCPError(mcpm.ErrorCodeConfig, "no host platform configured")
		}
		if err := s.host.Restart(ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s restarted successfully", s.host.AppName()), nil
	}), nil
}

// bootConfigArgument decodes the config argument of add-mcp-server.
func bootConfigArgument(v any) (mcpm.BootConfig, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return mcpm.BootConfig{}, errors.New("config must be an object with command and args")
	}
	command, _ := obj["command"].(string)
	if command == "" {
		return mcpm.BootConfig{}, errors.New("config.command must be a non-empty string")
	}

	rawArgs, ok := obj["args"].([]any)
	if !ok {
		return mcpm.BootConfig{}, errors.New("config.args must be an array of strings")
	}
	args := make([]string, len(rawArgs))
	for i, a := range rawArgs {
		str, ok := a.(string)
		if !ok {
			return mcpm.BootConfig{}, fmt.Errorf("config.args[%d] must be a string", i)
		}
		args[i] = str
	}
	return mcpm.BootConfig{Command: command, Args: args}, nil
}

// stringMapArgument decodes an optional object of string values.
func stringMapArgument(v any) (map[string]string, error) {
	if v == nil {
		return map[string]string{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("parameters must be an object")
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		str, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q must be a string", k)
		}
		out[k] = str
	}
	return out, nil
}
