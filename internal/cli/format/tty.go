package format

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether w should get terminal formatting: it is a
// terminal, NO_COLOR is unset and TERM is neither empty nor "dumb".
func IsTTY(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	termEnv := os.Getenv("TERM")
	if termEnv == "dumb" || termEnv == "" {
		return false
	}

	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
