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


/*
Package cli provides the root command and global flags for mcpm's CLI.

This package creates the main Cobra command tree root and handles global
concerns like version information, persistent flags and error handling.
Individual commands are implemented in the internal/commands subpackages
and registered by cmd/mcpm.

# Command Tree

	mcpm
	├── add           Add a server and enable it
	├── remove        Remove a server
	├── enable        Enable a disabled server
	├── disable       Disable a server, keeping its definition
	├── list          List servers with their status
	├── install       Install a server from the package registry
	├── search        Search the package registry
	├── params        Set a server's package parameters
	├── call          Call a tool on an enabled server
	├── tools         List a server's tools
	├── toolprompt    Describe every enabled tool as markdown
	├── host          Inspect, watch and restart the host application
	├── mcp-server    Serve mcpm's management tools over stdio
	├── config        Show or initialize settings
	├── version       Show version
	└── help          Show help

# Global Flags

	--verbose, -v   Info level logging
	--quiet, -q     Errors only
	--debug, -d     Debug logging with source locations
	--json          Machine-readable output
	--config        Settings file path

# Exit Codes

	0  Success
	1  Failure
	2  Invalid input or settings
	3  Server, package or command not found
	4  Transport or tool execution failure
*/
package cli
