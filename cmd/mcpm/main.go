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


package main

import (
	"github.com/tombee/mcpm/internal/cli"
	"github.com/tombee/mcpm/internal/commands/config"
	"github.com/tombee/mcpm/internal/commands/host"
	"github.com/tombee/mcpm/internal/commands/mcpserver"
	"github.com/tombee/mcpm/internal/commands/servers"
	"github.com/tombee/mcpm/internal/commands/tools"
	versioncmd "github.com/tombee/mcpm/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Server management commands
	rootCmd.AddCommand(servers.NewCommands()...)

	// Tool commands
	rootCmd.AddCommand(tools.NewCommands()...)

	// Host application commands
	rootCmd.AddCommand(host.NewCommand())

	// MCP server mode
	rootCmd.AddCommand(mcpserver.NewCommand())

	// Settings and version
	rootCmd.AddCommand(config.NewConfigCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
