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

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/catalog"
	"github.com/tombee/mcpm/internal/commands/shared"
)

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "search [query]",
		Short:   "Search for MCP server packages in the registry",
		GroupID: shared.GroupServers,
		Long: `Search the package registry. Without a query every package is listed.

See also: mcpm install`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runSearch(cmd.Context(), cmd.OutOrStdout(), svc.Packages, query)
			})
		},
	}
}

type searchResponse struct {
	shared.JSONResponse
	Packages []catalog.PackageInfo `json:"packages"`
}

func runSearch(ctx context.Context, w io.Writer, packages packageSource, query string) error {
	pkgs, err := packages.SearchPackages(ctx, query)
	if err != nil {
		return shared.NewFailureError("failed to search packages", err)
	}
	if pkgs == nil {
		pkgs = []catalog.PackageInfo{}
	}

	if shared.GetJSON() {
		return shared.EmitJSON(w, searchResponse{
			JSONResponse: shared.NewJSONResponse("search"),
			Packages:     pkgs,
		})
	}

	fmt.Fprint(w, FormatPackages(pkgs))
	return nil
}

// FormatPackages renders search results as text blocks separated by blank lines.
func FormatPackages(pkgs []catalog.PackageInfo) string {
	if len(pkgs) == 0 {
		return "No packages found.\n"
	}
	blocks := make([]string, len(pkgs))
	for i, pkg := range pkgs {
		blocks[i] = pkg.Summary()
	}
	return strings.Join(blocks, "\n")
}
