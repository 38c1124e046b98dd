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


package servers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/mcp"
	"github.com/tombee/mcpm/internal/reconcile"
)

type listOptions struct {
	enabled  bool
	disabled bool
	match    string
	jqExpr   string
}

func newListCommand() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List MCP servers with their status",
		GroupID: shared.GroupServers,
		Long: `List every known server and whether it is enabled in the host configuration.

Servers found in the host configuration but not yet in the registry are added
to the registry as a side effect.`,
		Example: `  # All servers
  mcpm list

  # Only disabled servers whose name starts with "github"
  mcpm list --disabled --match 'github*'

  # Names of enabled servers, one per line
  mcpm list --enabled --jq '.[].definition.name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runList(cmd.Context(), cmd.OutOrStdout(), svc.Engine, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.enabled, "enabled", false, "Only enabled servers")
	cmd.Flags().BoolVar(&opts.disabled, "disabled", false, "Only disabled servers")
	cmd.Flags().StringVar(&opts.match, "match", "", "Only servers whose name matches the glob (e.g. 'github-*', '@scope/**')")
	cmd.Flags().StringVar(&opts.jqExpr, "jq", "", "Filter JSON output with a jq expression")
	cmd.MarkFlagsMutuallyExclusive("enabled", "disabled")

	return cmd
}

type listResponse struct {
	shared.JSONResponse
	Servers []mcp.ServerStatus `json:"servers"`
}

func runList(ctx context.Context, w io.Writer, engine *reconcile.Engine, opts listOptions) error {
	if opts.match != "" && !doublestar.ValidatePattern(opts.match) {
		return shared.NewValidationError(fmt.Sprintf("invalid --match pattern %q", opts.match), nil)
	}

	var statuses []mcp.ServerStatus
	var err error
	switch {
	case opts.enabled:
		statuses, err = engine.ListEnabled()
	case opts.disabled:
		statuses, err = engine.ListDisabled()
	default:
		statuses, err = engine.ListAllWithStatus()
	}
	if err != nil {
		return err
	}

	statuses, err = filterByName(statuses, opts.match)
	if err != nil {
		return err
	}
	if statuses == nil {
		statuses = []mcp.ServerStatus{}
	}

	if opts.jqExpr != "" {
		return shared.WriteJQ(ctx, w, opts.jqExpr, statuses)
	}
	if shared.GetJSON() {
		return shared.EmitJSON(w, listResponse{
			JSONResponse: shared.NewJSONResponse("list"),
			Servers:      statuses,
		})
	}

	fmt.Fprint(w, formatServers(statuses))
	return nil
}

func filterByName(statuses []mcp.ServerStatus, pattern string) ([]mcp.ServerStatus, error) {
	if pattern == "" {
		return statuses, nil
	}
	var out []mcp.ServerStatus
	for _, s := range statuses {
		ok, err := doublestar.Match(pattern, s.Definition.Name)
		if err != nil {
			return nil, shared.NewValidationError(fmt.Sprintf("invalid --match pattern %q", pattern), err)
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func formatServers(statuses []mcp.ServerStatus) string {
	if len(statuses) == 0 {
		return shared.RenderWarn("No MCP servers found") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(shared.Bold.Render("Your MCP Servers:"))
	sb.WriteString("\n\n")

	for _, s := range statuses {
		def := s.Definition
		sb.WriteString(shared.Bold.Render(def.Name))
		sb.WriteString("\n  ")
		sb.WriteString(shared.RenderEnabled(s.Enabled))
		fmt.Fprintf(&sb, "\n  %s %s\n", shared.StatusInfo.Render("Command:"), def.AppConfig.Command)
		if len(def.AppConfig.Args) > 0 {
			fmt.Fprintf(&sb, "  %s %s\n", shared.StatusInfo.Render("Args:"), strings.Join(def.AppConfig.Args, " "))
		}
		if def.HostAlias != "" {
			fmt.Fprintf(&sb, "  %s\n", shared.RenderLabel("Host key: "+def.HostAlias))
		}
		if def.From.Valid() {
			fmt.Fprintf(&sb, "  %s\n", shared.RenderLabel("Source: "+def.From.String()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
