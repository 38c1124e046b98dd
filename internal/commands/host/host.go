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


// Package host implements the commands that deal with the host application
// and its configuration file.
package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/hostconfig"
	"github.com/tombee/mcpm/internal/mcp"
)

// NewCommand returns the host command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "host",
		Short:   "Inspect and restart the host application",
		GroupID: shared.GroupHost,
		Long: `Commands for the host application (Claude Desktop by default) and the
configuration file it reads its servers from.`,
	}

	cmd.AddCommand(
		newPathCommand(),
		newScanCommand(),
		newRestartCommand(),
		newWatchCommand(),
	)
	return cmd
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the host configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runPath(cmd.OutOrStdout(), svc.Platform, svc.Host)
			})
		},
	}
}

type pathResponse struct {
	shared.JSONResponse
	Path       string `json:"path"`
	ServersKey string `json:"serversKey"`
	Platform   string `json:"platform"`
}

func runPath(w io.Writer, platform hostconfig.Platform, host *hostconfig.Store) error {
	if shared.GetJSON() {
		return shared.EmitJSON(w, pathResponse{
			JSONResponse: shared.NewJSONResponse("host path"),
			Path:         host.Path(),
			ServersKey:   host.ServersKey(),
			Platform:     platform.Name(),
		})
	}
	fmt.Fprintln(w, host.Path())
	return nil
}

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Show the servers in the host configuration file",
		Long: `Read the host configuration file and print the servers it enables, exactly
as the host application will see them. The registry is not consulted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runScan(cmd.OutOrStdout(), svc.Host)
			})
		},
	}
}

type scanResponse struct {
	shared.JSONResponse
	Path    string                         `json:"path"`
	Servers map[string]mcp.HostConfigEntry `json:"servers"`
}

func runScan(w io.Writer, host *hostconfig.Store) error {
	servers, err := host.Servers()
	if err != nil {
		return err
	}
	if servers == nil {
		servers = map[string]mcp.HostConfigEntry{}
	}

	if shared.GetJSON() {
		return shared.EmitJSON(w, scanResponse{
			JSONResponse: shared.NewJSONResponse("host scan"),
			Path:         host.Path(),
			Servers:      servers,
		})
	}

	fmt.Fprintln(w, shared.RenderLabel(host.Path()))
	if len(servers) == 0 {
		fmt.Fprintln(w, shared.RenderWarn("No MCP servers configured"))
		return nil
	}

	keys := make([]string, 0, len(servers))
	for k := range servers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := servers[k]
		fmt.Fprintf(w, "  %s  %s", shared.Bold.Render(k), entry.Command)
		for _, a := range entry.Args {
			fmt.Fprintf(w, " %s", a)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func newRestartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the host application so it reloads its servers",
		Long: `Stop the host application and start it again.

Supported on macOS and Windows. On other platforms restart the application
by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runRestart(cmd.Context(), cmd.OutOrStdout(), svc.Platform)
			})
		},
	}
}

func runRestart(ctx context.Context, w io.Writer, platform hostconfig.Platform) error {
	if err := platform.Restart(ctx); err != nil {
		return err
	}
	if shared.GetJSON() {
		return shared.EmitJSON(w, shared.NewJSONResponse("host restart"))
	}
	shared.PrintOK(w, "%s restarted successfully", platform.AppName())
	return nil
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the host configuration file and sync the registry",
		Long: `Watch the host configuration file. When it changes, servers that appeared
in it are added to the registry and the current status is printed.

Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return shared.WithServices(ctx, func(svc *shared.Services) error {
				return runWatch(ctx, cmd.OutOrStdout(), svc)
			})
		},
	}
}

func runWatch(ctx context.Context, w io.Writer, svc *shared.Services) error {
	changed := func() {
		statuses, err := svc.Engine.ListAllWithStatus()
		if err != nil {
			svc.Logger.Error("failed to sync registry", slog.Any("error", err))
			return
		}
		enabled := 0
		for _, s := range statuses {
			if s.Enabled {
				enabled++
			}
		}
		shared.PrintOK(w, "Host configuration changed: %d servers, %d enabled", len(statuses), enabled)
	}

	watcher, err := hostconfig.NewWatcher(hostconfig.WatcherConfig{
		Path:     svc.Host.Path(),
		OnChange: changed,
		Logger:   svc.Logger,
	})
	if err != nil {
		return shared.NewFailureError("failed to watch the host configuration", err)
	}

	fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", svc.Host.Path())
	changed()
	return watcher.Run(ctx)
}
