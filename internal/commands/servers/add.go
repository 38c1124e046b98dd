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
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/cli/prompt"
	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/mcp"
	"github.com/tombee/mcpm/internal/reconcile"
)

type addOptions struct {
	name      string
	command   string
	args      []string
	argsGiven bool
}

func newAddCommand() *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:     "add [name] [-- args...]",
		Short:   "Add a new MCP server to your Claude App",
		GroupID: shared.GroupServers,
		Long: `Add a server to the registry and enable it in the host configuration.

Missing values are prompted for when running interactively. Arguments can be
given with repeated --args flags or after a "--" separator.

See also: mcpm install, mcpm list`,
		Example: `  # Add a server with its arguments after --
  mcpm add files --command npx -- -y @modelcontextprotocol/server-filesystem ~/Documents

  # Add a server with repeated --args
  mcpm add memory -c npx -a -y -a @modelcontextprotocol/server-memory

  # Prompt for everything
  mcpm add`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			positional := args
			if dash >= 0 {
				positional = args[:dash]
				opts.args = append(opts.args, args[dash:]...)
			}
			if len(positional) > 1 {
				return shared.NewValidationError("add takes at most one server name; pass command arguments after --", nil)
			}
			if len(positional) == 1 {
				opts.name = positional[0]
			}
			opts.argsGiven = cmd.Flags().Changed("args") || dash >= 0

			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runAdd(cmd.Context(), cmd.OutOrStdout(), svc.Engine, shared.NewPrompter(), opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.command, "command", "c", "", "Command to run the server")
	cmd.Flags().StringArrayVarP(&opts.args, "args", "a", nil, "Argument for the command (repeatable)")

	return cmd
}

func runAdd(ctx context.Context, w io.Writer, engine *reconcile.Engine, p prompt.Prompter, opts addOptions) error {
	if opts.name == "" || opts.command == "" {
		if !p.IsInteractive() {
			return shared.NewValidationError("a server name and --command are required in non-interactive mode", nil)
		}
		if err := promptAdd(ctx, p, &opts); err != nil {
			if errors.Is(err, prompt.ErrCancelled) {
				shared.PrintWarn(w, "Operation cancelled")
				return nil
			}
			return err
		}
	}
	if opts.args == nil {
		opts.args = []string{}
	}

	def, err := engine.Add(opts.name, mcp.BootConfig{Command: opts.command, Args: opts.args}, mcp.ProvenanceLocal)
	if err != nil {
		return err
	}
	if !mcp.CommandAvailable(def.AppConfig.Command) {
		shared.PrintWarn(w, "Command %q was not found on PATH; the host will fail to start it", def.AppConfig.Command)
	}
	return reportChange(w, "add", "added", def.Name)
}

// promptAdd asks for whichever of name, command and args is missing.
func promptAdd(ctx context.Context, p prompt.Prompter, opts *addOptions) error {
	var err error
	if opts.name == "" {
		if opts.name, err = p.PromptString(ctx, "Enter a name for the MCP server:", "", true); err != nil {
			return err
		}
	}
	if opts.command == "" {
		if opts.command, err = p.PromptString(ctx, "Enter the command to run the server:", "", true); err != nil {
			return err
		}
	}
	if !opts.argsGiven {
		line, err := p.PromptString(ctx, "Enter command arguments (space separated):", "", false)
		if err != nil {
			return err
		}
		opts.args = prompt.SplitArgs(line)
	}
	return nil
}
