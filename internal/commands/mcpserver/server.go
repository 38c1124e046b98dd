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


// Package mcpserver implements the mcp-server command.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/mcp"
	"github.com/tombee/mcpm/internal/mcp/server"
)

// SelfName is the name mcpm registers itself under.
const SelfName = "mcpm"

// NewCommand creates the mcp-server command
func NewCommand() *cobra.Command {
	var register bool

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start the mcpm MCP server",
		Long: `Start mcpm's own MCP server on stdio.

The server lets an assistant manage MCP servers through these tools:
  - list-mcp-servers
  - add-mcp-server, remove-mcp-server
  - enable-mcp-server, disable-mcp-server
  - search-mcp-server, install-mcp-server
  - restart-host

With --register, mcpm first adds itself to the host configuration so the
host application starts it:
  {
    "mcpServers": {
      "mcpm": {
        "command": "/path/to/mcpm",
        "args": ["mcp-server"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return shared.WithServices(ctx, func(svc *shared.Services) error {
				if register {
					exe, err := os.Executable()
					if err != nil {
						return fmt.Errorf("failed to locate the mcpm executable: %w", err)
					}
					if err := registerSelf(svc.Engine, exe, svc.Logger); err != nil {
						return err
					}
				}
				return runMCPServer(ctx, svc)
			})
		},
	}

	cmd.Flags().BoolVar(&register, "register", false, "Add mcpm itself to the host configuration before serving")

	return cmd
}

// selfRegistrar is satisfied by the reconcile engine.
type selfRegistrar interface {
	RegisterSelf(name string, boot mcp.BootConfig) (mcp.ServerDefinition, error)
}

// registerSelf adds mcpm to the registry and host file. Being registered
// already is not an error.
func registerSelf(engine selfRegistrar, exe string, logger *slog.Logger) error {
	_, err := engine.RegisterSelf(SelfName, mcp.BootConfig{Command: exe, Args: []string{"mcp-server"}})
	switch {
	case err == nil:
		logger.Info("registered mcpm in the host configuration", slog.String("command", exe))
		return nil
	case mcp.CodeOf(err) == mcp.ErrorCodeAlreadyExists:
		logger.Debug("mcpm is already registered")
		return nil
	default:
		return err
	}
}

func runMCPServer(ctx context.Context, svc *shared.Services) error {
	versionStr, _, _ := shared.GetVersion()

	srv, err := server.NewServer(server.ServerConfig{
		Name:     SelfName,
		Version:  versionStr,
		Manager:  svc.Engine,
		Packages: svc.Packages,
		Host:     svc.Platform,
		Logger:   svc.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		svc.Logger.Info("shutting down mcpm MCP server")
		return nil
	}
}
