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
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/reconcile"
)

func newParamsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "params <name> <param=value>...",
		Short:   "Set a server's package parameters",
		GroupID: shared.GroupServers,
		Long: `Set the values substituted into a server's **placeholder** arguments and
environment. An empty value removes the parameter. An enabled server's host
entry is updated when its arguments change.`,
		Example: `  mcpm params weather city=Paris units=`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runParams(cmd.OutOrStdout(), svc.Engine, args[0], params)
			})
		},
	}
}

func runParams(w io.Writer, engine *reconcile.Engine, name string, params map[string]string) error {
	def, err := engine.SetParameters(name, params)
	if err != nil {
		return err
	}
	if shared.GetJSON() {
		return reportChange(w, "params", "updated", def.Name)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	shared.PrintOK(w, "Parameters of '%s' updated: %s", def.Name, strings.Join(keys, ", "))
	return nil
}
