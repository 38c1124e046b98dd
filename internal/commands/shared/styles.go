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


package shared

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// StatusInfo styles field names in server listings.
	StatusInfo = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	// Bold styles server and tool names.
	Bold = lipgloss.NewStyle().Bold(true)
)

// RenderWarn prefixes msg with a warning marker.
func RenderWarn(msg string) string {
	return warnStyle.Render("⚠") + " " + msg
}

// RenderError prefixes msg with a failure marker.
func RenderError(msg string) string {
	return errorStyle.Render("✗") + " " + msg
}

// RenderLabel dims a label in key: value output.
func RenderLabel(label string) string {
	return labelStyle.Render(label)
}

// RenderEnabled shows whether a server is in the host configuration.
func RenderEnabled(enabled bool) string {
	if enabled {
		return okStyle.Render("✓ Enabled")
	}
	return errorStyle.Render("✗ Disabled")
}

// PrintOK writes a success line unless --quiet is set.
func PrintOK(w io.Writer, format string, args ...any) {
	if GetQuiet() {
		return
	}
	fmt.Fprintln(w, okStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// PrintWarn writes a warning line unless --quiet is set.
func PrintWarn(w io.Writer, format string, args ...any) {
	if GetQuiet() {
		return
	}
	fmt.Fprintln(w, RenderWarn(fmt.Sprintf(format, args...)))
}
