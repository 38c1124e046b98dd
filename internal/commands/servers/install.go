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
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/catalog"
	"github.com/tombee/mcpm/internal/cli/prompt"
	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/reconcile"
)

// packageSource is the part of the package registry client the commands use.
type packageSource interface {
	GetPackage(ctx context.Context, id string) (*catalog.PackageInfo, error)
	SearchPackages(ctx context.Context, query string) ([]catalog.PackageInfo, error)
}

func newInstallCommand() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:     "install <package>",
		Short:   "Install a MCP server package from the registry",
		GroupID: shared.GroupServers,
		Long: `Install a server package from the package registry and enable it.

The package id becomes the server name. Package parameters are passed with
--param; required parameters that are missing are prompted for when running
interactively.

See also: mcpm search, mcpm params`,
		Example: `  # Install with parameters
  mcpm install weather --param city=Berlin --param apiKey=abc123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			supplied, err := parseParams(params)
			if err != nil {
				return err
			}
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runInstall(cmd.Context(), cmd.OutOrStdout(), svc.Packages, svc.Engine, shared.NewPrompter(), args[0], supplied)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Package parameter as name=value (repeatable)")

	return cmd
}

func runInstall(ctx context.Context, w io.Writer, packages packageSource, engine *reconcile.Engine, p prompt.Prompter, id string, supplied map[string]string) error {
	pkg, err := packages.GetPackage(ctx, id)
	if err != nil {
		var statusErr *catalog.StatusError
		if errors.As(err, &statusErr) && statusErr.NotFound() {
			return shared.NewNotFoundError(fmt.Sprintf("package %q not found in the registry", id), err)
		}
		return shared.NewFailureError(fmt.Sprintf("failed to resolve package %q", id), err)
	}

	if p.IsInteractive() {
		if err := promptMissingParams(ctx, p, pkg, supplied); err != nil {
			if errors.Is(err, prompt.ErrCancelled) {
				shared.PrintWarn(w, "Operation cancelled")
				return nil
			}
			return err
		}
	}

	def, err := engine.Install(id, pkg, supplied)
	if err != nil {
		return err
	}
	if shared.GetJSON() {
		return reportChange(w, "install", "installed", def.Name)
	}
	shared.PrintOK(w, "Package '%s' installed successfully", def.Name)
	return nil
}

// promptMissingParams asks for every required parameter without a value.
func promptMissingParams(ctx context.Context, p prompt.Prompter, pkg *catalog.PackageInfo, supplied map[string]string) error {
	for _, name := range pkg.RequiredParameters() {
		if supplied[name] != "" {
			continue
		}
		msg := name + ":"
		if desc := strings.TrimSpace(pkg.Parameters[name].Description); desc != "" {
			msg = fmt.Sprintf("%s (%s):", name, desc)
		}
		value, err := p.PromptString(ctx, msg, "", true)
		if err != nil {
			return err
		}
		supplied[name] = value
	}
	return nil
}
