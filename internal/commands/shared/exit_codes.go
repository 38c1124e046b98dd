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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/mcpm/internal/mcp"
)

// Exit codes for mcpm commands
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitValidation = 2
	ExitNotFound   = 3
	ExitToolError  = 4 // transport or tool execution failure
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewFailureError creates an error for general command failures
func NewFailureError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitFailure, Message: msg, Cause: cause}
}

// NewValidationError creates an error for invalid flags or arguments
func NewValidationError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitValidation, Message: msg, Cause: cause}
}

// NewNotFoundError creates an error for unknown servers or packages
func NewNotFoundError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitNotFound, Message: msg, Cause: cause}
}

// UserVisibleError is implemented by errors that carry a message and an
// actionable suggestion meant for the person at the terminal.
type UserVisibleError interface {
	error
	IsUserVisible() bool
	UserMessage() string
	Suggestion() string
}

// ExitCode returns the process exit code for err. An ExitError keeps its own
// code; MCP errors map by category.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch mcp.CodeOf(err) {
	case mcp.ErrorCodeValidation:
		return ExitValidation
	case mcp.ErrorCodeNotFound:
		return ExitNotFound
	case mcp.ErrorCodeTransport, mcp.ErrorCodeToolExecution:
		return ExitToolError
	default:
		return ExitFailure
	}
}

// HandleExitError prints err and exits with the matching code
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(reportError(os.Stdout, os.Stderr, err))
}

// reportError writes err to stderr, or as a JSON envelope to stdout when
// --json is set, and returns the exit code.
func reportError(stdout, stderr io.Writer, err error) int {
	code := ExitCode(err)

	if GetJSON() {
		jsonErr := JSONError{
			Code:    errorCode(err),
			Message: err.Error(),
		}
		if userErr, ok := findUserVisible(err); ok {
			jsonErr.Suggestion = userErr.Suggestion()
		}
		var mcpErr *mcp.MCPError
		if errors.As(err, &mcpErr) {
			jsonErr.Details = mcpErr.Details
		}
		_ = EmitJSONError(stdout, currentCommand, []JSONError{jsonErr})
		return code
	}

	msg := err.Error()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		if userErr, ok := findUserVisible(err); ok {
			msg = userErr.UserMessage()
		}
	}
	if msg != "" {
		fmt.Fprintln(stderr, RenderError("Error: "+msg))
	}

	printUserVisibleSuggestion(stderr, err)
	return code
}

// findUserVisible walks the error chain to find a UserVisibleError.
func findUserVisible(err error) (UserVisibleError, bool) {
	var userErr UserVisibleError
	if errors.As(err, &userErr) && userErr.IsUserVisible() {
		return userErr, true
	}
	return nil, false
}

// printUserVisibleSuggestion prints the suggestion of the first
// UserVisibleError in err's chain, if it has one.
func printUserVisibleSuggestion(w io.Writer, err error) {
	userErr, ok := findUserVisible(err)
	if !ok {
		return
	}
	if suggestion := userErr.Suggestion(); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
}
