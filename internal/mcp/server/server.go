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


// Package server implements the management MCP server: mcpm's own
// operations exposed as tools so an assistant can manage its servers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/tombee/mcpm/internal/catalog"
	"github.com/tombee/mcpm/internal/log"
	mcpm "github.com/tombee/mcpm/internal/mcp"
)

// Manager is the set of server operations the tools expose.
// *reconcile.Engine implements it.
type Manager interface {
	Add(name string, boot mcpm.BootConfig, from mcpm.Provenance) (mcpm.ServerDefinition, error)
	Remove(name string) error
	Enable(name string) error
	Disable(name string) error
	ListAllWithStatus() ([]mcpm.ServerStatus, error)
	InstallFromPackage(ctx context.Context, id string, supplied map[string]string) (mcpm.ServerDefinition, error)
}

// PackageSearcher searches the package registry.
type PackageSearcher interface {
	SearchPackages(ctx context.Context, query string) ([]catalog.PackageInfo, error)
}

// Restarter restarts the host application.
type Restarter interface {
	Restart(ctx context.Context) error
	AppName() string
}

// Server wraps the mcp-go server and the tool handlers.
type Server struct {
	mcpServer  *server.MCPServer
	name       string
	version    string
	manager    Manager
	packages   PackageSearcher
	host       Restarter
	limiter    *rate.Limiter
	middleware *log.ToolCallMiddleware
	logger     *slog.Logger
}

// ServerConfig configures the management server.
type ServerConfig struct {
	// Name is the server name (default: "mcpm")
	Name string

	// Version is the mcpm version
	Version string

	// Manager performs the server operations. Required.
	Manager Manager

	// Packages backs search-mcp-server. Optional; the tool reports an error without it.
	Packages PackageSearcher

	// Host backs restart-host. Optional.
	Host Restarter

	// CallsPerSecond limits tool calls (default: 10 per second, burst 10)
	CallsPerSecond rate.Limit

	// Logger must not write to stdout, which carries the protocol (default: slog.Default()).
	Logger *slog.Logger
}

// NewServer creates the management server and registers its tools.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Manager == nil {
		return nil, fmt.Errorf("manager is required")
	}
	if cfg.Name == "" {
		cfg.Name = "mcpm"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.CallsPerSecond == 0 {
		cfg.CallsPerSecond = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = log.WithComponent(logger, "mcp-server")

	s := &Server{
		mcpServer: server.NewMCPServer(cfg.Name, cfg.Version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		name:       cfg.Name,
		version:    cfg.Version,
		manager:    cfg.Manager,
		packages:   cfg.Packages,
		host:       cfg.Host,
		limiter:    rate.NewLimiter(cfg.CallsPerSecond, burst(cfg.CallsPerSecond)),
		middleware: log.NewToolCallMiddleware(logger),
		logger:     logger,
	}
	s.registerTools()
	return s, nil
}

// burst allows one second's worth of calls at once, and at least one.
func burst(limit rate.Limit) int {
	if limit == rate.Inf || limit < 1 {
		return 1
	}
	return int(math.Ceil(float64(limit)))
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Run serves the tools over stdio until the input closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting mcpm MCP server", slog.String("version", s.version))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// toolFunc performs one tool call and returns the text to send back.
type toolFunc func(ctx context.Context) (string, error)

// invoke runs fn under the rate limit and the logging middleware. A failure
// becomes an error result; the protocol-level error stays nil.
func (s *Server) invoke(ctx context.Context, tool, target, failure string, fn toolFunc) *mcp.CallToolResult {
	if !s.limiter.Allow() {
		return mcp.NewToolResultError("Rate limit exceeded. Please try again later.")
	}

	var text string
	call := log.ToolCall{Tool: tool, RequestID: uuid.NewString(), Server: target}
	err := s.middleware.Handle(ctx, call, func() error {
		var err error
		text, err = fn(ctx)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", failure, errorText(err)))
	}
	return textResult(text)
}

// errorText is the user message of err including suggestions when it is
// an MCPError.
func errorText(err error) string {
	var me *mcpm.MCPError
	if errors.As(err, &me) {
		msg := me.UserMessage()
		if s := me.Suggestion(); s != "" {
			msg += "\n" + s
		}
		return msg
	}
	return err.Error()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func jsonText(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}
