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


// Package servers implements the commands that manage the server catalogue:
// add, remove, enable, disable, list, install, search and params.
package servers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/cli/prompt"
	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/mcp"
)

// NewCommands returns the server management commands.
func NewCommands() []*cobra.Command {
	return []*cobra.Command{
		newAddCommand(),
		newRemoveCommand(),
		newEnableCommand(),
		newDisableCommand(),
		newListCommand(),
		newInstallCommand(),
		newSearchCommand(),
		newParamsCommand(),
	}
}

// serverResult is the --json output of commands that change one server.
type serverResult struct {
	shared.JSONResponse
	Server string `json:"server"`
	Action string `json:"action"`
}

// reportChange prints the outcome of a change to one server.
func reportChange(w io.Writer, command, action, name string) error {
	if shared.GetJSON() {
		return shared.EmitJSON(w, serverResult{
			JSONResponse: shared.NewJSONResponse(command),
			Server:       name,
			Action:       action,
		})
	}
	shared.PrintOK(w, "MCP server '%s' %s successfully", name, action)
	return nil
}

// title renders a server as "name (command args...)".
func title(def mcp.ServerDefinition) string {
	parts := append([]string{def.AppConfig.Command}, def.AppConfig.Args...)
	return fmt.Sprintf("%s (%s)", def.Name, strings.TrimSpace(strings.Join(parts, " ")))
}

// selectServer returns name when it is set. Otherwise it asks the user to
// pick one of candidates. An empty result with a nil error means there was
// nothing to pick or the user cancelled; a message has been printed.
func selectServer(ctx context.Context, w io.Writer, p prompt.Prompter, name, verb, none string, candidates func() ([]mcp.ServerStatus, error)) (string, error) {
	if name != "" {
		return name, nil
	}
	if !p.IsInteractive() {
		return "", shared.NewValidationError(fmt.Sprintf("a server name is required to %s in non-interactive mode", verb), nil)
	}

	statuses, err := candidates()
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		shared.PrintWarn(w, "%s", none)
		return "", nil
	}

	options := make([]prompt.Option, len(statuses))
	for i, s := range statuses {
		options[i] = prompt.Option{Label: title(s.Definition), Value: s.Definition.Name}
	}

	chosen, err := prompt.Select(ctx, p, fmt.Sprintf("Select a server to %s:", verb), options)
	if errors.Is(err, prompt.ErrCancelled) {
		shared.PrintWarn(w, "Operation cancelled")
		return "", nil
	}
	return chosen, err
}

// parseParams turns k=v pairs into a map. Values may contain '='.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, shared.NewValidationError(fmt.Sprintf("invalid parameter %q", pair), errors.New("expected name=value"))
		}
		params[key] = value
	}
	return params, nil
}
