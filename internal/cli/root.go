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


package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for mcpm
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcpm",
		Short: "mcpm - MCP server manager for Claude Desktop",
		Long: `mcpm manages the MCP servers available to Claude Desktop.

It keeps a registry of every server you have added, enables and disables
them by editing the host configuration file, and can call a server's tools
directly from the command line.

Run 'mcpm list' to see your servers.
Run 'mcpm search' to browse the package registry.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			shared.SetCommandName(cmd.CommandPath())
		},
	}

	flags := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(flags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(flags.Quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(flags.JSON, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVarP(flags.Debug, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(flags.Config, "config", "", "Path to settings file (default: ~/.config/mcpm/settings.yaml)")

	cmd.AddGroup(
		&cobra.Group{ID: shared.GroupServers, Title: "Server Commands:"},
		&cobra.Group{ID: shared.GroupTools, Title: "Tool Commands:"},
		&cobra.Group{ID: shared.GroupHost, Title: "Host Commands:"},
	)
	cmd.SetHelpCommand(NewHelpCommand(cmd))

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
