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
	"io"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/cli/prompt"
	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/mcp"
	"github.com/tombee/mcpm/internal/reconcile"
)

// lifecycleAction describes one of remove, enable and disable.
type lifecycleAction struct {
	verb       string
	past       string
	none       string
	candidates func(*reconcile.Engine) ([]mcp.ServerStatus, error)
	apply      func(*reconcile.Engine, string) error
}

var (
	removeAction = lifecycleAction{
		verb:       "remove",
		past:       "removed",
		none:       "No MCP servers found",
		candidates: (*reconcile.Engine).ListAllWithStatus,
		apply:      (*reconcile.Engine).Remove,
	}
	enableAction = lifecycleAction{
		verb:       "enable",
		past:       "enabled",
		none:       "No disabled MCP servers found",
		candidates: (*reconcile.Engine).ListDisabled,
		apply:      (*reconcile.Engine).Enable,
	}
	disableAction = lifecycleAction{
		verb:       "disable",
		past:       "disabled",
		none:       "No enabled MCP servers found",
		candidates: (*reconcile.Engine).ListEnabled,
		apply:      (*reconcile.Engine).Disable,
	}
)

func newRemoveCommand() *cobra.Command {
	return newLifecycleCommand(removeAction,
		"Remove a MCP server from your Claude App",
		`Remove a server from the registry and from the host configuration.`)
}

func newEnableCommand() *cobra.Command {
	return newLifecycleCommand(enableAction,
		"Enable a disabled MCP server",
		`Write a disabled server back into the host configuration.

Restart the host application afterwards with 'mcpm host restart'.`)
}

func newDisableCommand() *cobra.Command {
	return newLifecycleCommand(disableAction,
		"Disable an MCP server, keeping its definition",
		`Remove a server from the host configuration while keeping it in the
registry so it can be enabled again later.`)
}

func newLifecycleCommand(action lifecycleAction, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:     action.verb + " [name]",
		Short:   short,
		Long:    long + "\n\nWithout a name you are asked to pick a server.",
		GroupID: shared.GroupServers,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runLifecycle(cmd.Context(), cmd.OutOrStdout(), svc.Engine, shared.NewPrompter(), action, name)
			})
		},
	}
}

func runLifecycle(ctx context.Context, w io.Writer, engine *reconcile.Engine, p prompt.Prompter, action lifecycleAction, name string) error {
	name, err := selectServer(ctx, w, p, name, action.verb, action.none, func() ([]mcp.ServerStatus, error) {
		return action.candidates(engine)
	})
	if err != nil || name == "" {
		return err
	}

	if err := action.apply(engine, name); err != nil {
		return err
	}
	return reportChange(w, action.verb, action.past, name)
}
