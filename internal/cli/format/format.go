// Package format renders command output for the terminal: markdown for the
// tool prompt and pretty-printed JSON for tool results.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

const (
	maxMarkdownSize = 5 * 1024 * 1024  // 5MB
	maxJSONSize     = 10 * 1024 * 1024 // 10MB
)

// ansiEscapeRegex matches ANSI escape sequences for sanitization.
var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// sanitizeANSI removes ANSI escape sequences from a string.
// Tool servers are third-party programs; their text must not drive the terminal.
func sanitizeANSI(s string) string {
	return ansiEscapeRegex.ReplaceAllString(s, "")
}

// Markdown renders markdown with glamour when isTTY is set and returns it
// unchanged otherwise. A renderer failure falls back to the plain text.
func Markdown(content string, isTTY bool) (string, error) {
	if len(content) > maxMarkdownSize {
		return "", fmt.Errorf("output size (%d bytes) exceeds maximum for markdown (%d bytes)", len(content), maxMarkdownSize)
	}
	if !isTTY {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content, nil
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content, nil
	}
	return rendered, nil
}

// JSON pretty-prints content with 2-space indentation and, when isTTY is
// set, syntax highlighting. ok is false when content is not JSON.
func JSON(content string, isTTY bool) (out string, ok bool) {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) > maxJSONSize || trimmed == "" {
		return content, false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return content, false
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return content, false
	}
	formatted := buf.String()

	if !isTTY {
		return formatted, true
	}

	var highlighted bytes.Buffer
	if err := quick.Highlight(&highlighted, formatted, "json", "terminal256", "monokai"); err != nil {
		return formatted, true
	}
	return highlighted.String(), true
}

// ToolOutput prepares tool result text for display: escape sequences are
// removed and JSON objects or arrays are pretty-printed.
func ToolOutput(text string, isTTY bool) string {
	text = sanitizeANSI(text)
	if out, ok := JSON(text, isTTY); ok {
		return out
	}
	return text
}
