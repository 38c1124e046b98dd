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


package tools

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tombee/mcpm/internal/cli/format"
	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/mcp"
)

// statusLister is satisfied by the reconcile engine.
type statusLister interface {
	ListAllWithStatus() ([]mcp.ServerStatus, error)
}

func newToolPromptCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "toolprompt",
		Short:   "Print a prompt describing the tools of every enabled server",
		GroupID: shared.GroupTools,
		Long: `Start every enabled server, list its tools and print a markdown document
that tells a language model how to call them through 'mcpm call'.

Servers that fail to start get an error note; the rest are still listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WithServices(cmd.Context(), func(svc *shared.Services) error {
				return runToolPrompt(cmd.Context(), cmd.OutOrStdout(), svc.Engine, svc.Proxy)
			})
		},
	}
}

type toolPromptResponse struct {
	shared.JSONResponse
	Prompt string `json:"prompt"`
}

func runToolPrompt(ctx context.Context, w io.Writer, servers statusLister, proxy *mcp.Proxy) error {
	statuses, err := servers.ListAllWithStatus()
	if err != nil {
		return err
	}
	doc := proxy.GenerateToolPrompt(ctx, statuses)

	if shared.GetJSON() {
		return shared.EmitJSON(w, toolPromptResponse{
			JSONResponse: shared.NewJSONResponse("toolprompt"),
			Prompt:       doc,
		})
	}

	out, err := format.Markdown(doc, format.IsTTY(w))
	if err != nil {
		out = doc
	}
	fmt.Fprint(w, out)
	return nil
}
