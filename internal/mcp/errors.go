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

package mcp

import (
	"errors"
	"fmt"
	"strings"
)

// MCPErrorCode represents a category of MCP error.
type MCPErrorCode string

const (
	// ErrorCodeNotFound indicates a server, host entry or tool was not found.
	ErrorCodeNotFound MCPErrorCode = "NOT_FOUND"
	// ErrorCodeAlreadyExists indicates a server already exists in the host file.
	ErrorCodeAlreadyExists MCPErrorCode = "ALREADY_EXISTS"
	// ErrorCodeValidation indicates malformed caller input.
	ErrorCodeValidation MCPErrorCode = "VALIDATION"
	// ErrorCodeTransport indicates the subprocess could not be spawned or the handshake failed.
	ErrorCodeTransport MCPErrorCode = "TRANSPORT"
	// ErrorCodeToolExecution indicates the remote tool failed.
	ErrorCodeToolExecution MCPErrorCode = "TOOL_EXECUTION"
	// ErrorCodeUnsupportedPlatform indicates the host application is not supported on this OS.
	ErrorCodeUnsupportedPlatform MCPErrorCode = "UNSUPPORTED_PLATFORM"
	// ErrorCodeConfig indicates a configuration error.
	ErrorCodeConfig MCPErrorCode = "CONFIG"
	// ErrorCodeInternalError indicates an internal error.
	ErrorCodeInternalError MCPErrorCode = "INTERNAL"
)

// MCPError is an error type that includes suggestions for resolution.
type MCPError struct {
	// Code is the error category.
	Code MCPErrorCode
	// Message is the primary error message.
	Message string
	// Detail provides additional context.
	Detail string
	// Suggestions are actionable steps to resolve the error.
	Suggestions []string
	// Cause is the underlying error, if any.
	Cause error
	// Details lists individual problems, such as schema violations or
	// missing parameter names.
	Details []string
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Message)

	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}

	if len(e.Details) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(e.Details, "; "))
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *MCPError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements shared.UserVisibleError in the CLI.
// MCP errors are always user-visible.
func (e *MCPError) IsUserVisible() bool {
	return true
}

// UserMessage implements shared.UserVisibleError in the CLI.
func (e *MCPError) UserMessage() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if len(e.Details) > 0 {
		msg += "\n  - " + strings.Join(e.Details, "\n  - ")
	}
	return msg
}

// Suggestion implements shared.UserVisibleError in the CLI.
// Returns the first suggestion only.
func (e *MCPError) Suggestion() string {
	if len(e.Suggestions) == 0 {
		return ""
	}
	return e.Suggestions[0]
}

// NewMCPError creates a new MCPError.
func NewMCPError(code MCPErrorCode, message string) *MCPError {
	return &MCPError{
		Code:    code,
		Message: message,
	}
}

// WithDetail adds detail to the error.
func (e *MCPError) WithDetail(detail string) *MCPError {
	e.Detail = detail
	return e
}

// WithSuggestions adds suggestions to the error.
func (e *MCPError) WithSuggestions(suggestions ...string) *MCPError {
	e.Suggestions = suggestions
	return e
}

// WithCause adds an underlying cause to the error.
func (e *MCPError) WithCause(cause error) *MCPError {
	e.Cause = cause
	return e
}

// WithDetails attaches the individual problems behind the error.
func (e *MCPError) WithDetails(details ...string) *MCPError {
	e.Details = details
	return e
}

// ErrServerNotFound creates an error for a name that is not in the registry.
func ErrServerNotFound(name string) *MCPError {
	return NewMCPError(ErrorCodeNotFound, fmt.Sprintf("server %q not found", name)).
		WithSuggestions(
			"Run 'mcpm list' to see known servers",
			fmt.Sprintf("Add it with 'mcpm add %s --command <cmd>'", name),
		)
}

// ErrServerNotEnabled is returned by the proxy for unknown and disabled servers alike.
func ErrServerNotEnabled(name string) *MCPError {
	return NewMCPError(ErrorCodeNotFound, fmt.Sprintf("server %q not available or not enabled", name)).
		WithSuggestions(
			fmt.Sprintf("Enable it with 'mcpm enable %s'", name),
			"Run 'mcpm list --enabled' to see enabled servers",
		)
}

// ErrHostEntryNotFound creates an error for a name missing from the host configuration file.
func ErrHostEntryNotFound(name string) *MCPError {
	return NewMCPError(ErrorCodeNotFound, fmt.Sprintf("server %q is not enabled in the host configuration", name)).
		WithSuggestions("Run 'mcpm list --enabled' to see enabled servers")
}

// ErrInvalidToolSchema creates an error for a tool whose declared input
// schema cannot be compiled, so its arguments cannot be checked.
func ErrInvalidToolSchema(server, tool string, cause error) *MCPError {
	return NewMCPError(ErrorCodeValidation, fmt.Sprintf("tool %s/%s declares an input schema that cannot be compiled", server, tool)).
		WithCause(cause).
		WithDetail(cause.Error()).
		WithSuggestions(fmt.Sprintf("Report the schema problem to the maintainers of server %q", server))
}

// ErrServerAlreadyExists creates an error for a name that already has a host entry.
func ErrServerAlreadyExists(name string) *MCPError {
	return NewMCPError(ErrorCodeAlreadyExists, fmt.Sprintf("server %q already exists in the host configuration", name)).
		WithSuggestions(
			"Choose a different name",
			fmt.Sprintf("Remove the existing server with 'mcpm remove %s'", name),
		)
}

// ErrInvalidArguments creates an error for tool arguments that are not a JSON object.
func ErrInvalidArguments(tool string, detail string) *MCPError {
	return NewMCPError(ErrorCodeValidation, fmt.Sprintf("invalid arguments for tool %q", tool)).
		WithDetail(detail).
		WithSuggestions("Tool arguments must be a JSON object, for example '{}'")
}

// ErrSchemaMismatch creates an error carrying the validator's error list.
func ErrSchemaMismatch(server, tool string, problems []string) *MCPError {
	return NewMCPError(ErrorCodeValidation, fmt.Sprintf("arguments for %s/%s do not match the tool's input schema", server, tool)).
		WithDetails(problems...).
		WithSuggestions(fmt.Sprintf("Run 'mcpm tools %s' to see the expected parameters", server))
}

// ErrUnknownParameters names every supplied parameter the package does not declare.
func ErrUnknownParameters(pkg string, names []string) *MCPError {
	return NewMCPError(ErrorCodeValidation, fmt.Sprintf("unknown parameters for package %q: %s", pkg, strings.Join(names, ", "))).
		WithDetails(names...)
}

// ErrMissingParameters names every required parameter that has no value.
func ErrMissingParameters(pkg string, names []string) *MCPError {
	return NewMCPError(ErrorCodeValidation, fmt.Sprintf("missing required parameters for package %q: %s", pkg, strings.Join(names, ", "))).
		WithDetails(names...).
		WithSuggestions("Pass each parameter with --param name=value")
}

// ErrTransport wraps a spawn or handshake failure.
func ErrTransport(server string, cause error) *MCPError {
	return NewMCPError(ErrorCodeTransport, fmt.Sprintf("failed to connect to server %q", server)).
		WithCause(cause).
		WithSuggestions(
			"Check that the server command is installed and on your PATH",
			"Run with --debug to see the command and environment",
		)
}

// ErrToolExecution wraps a failure reported by the remote tool.
func ErrToolExecution(server, tool string, cause error) *MCPError {
	return NewMCPError(ErrorCodeToolExecution, fmt.Sprintf("tool %q on server %q failed", tool, server)).
		WithCause(cause)
}

// ErrUnsupportedPlatform creates an error for an OS without a host integration.
func ErrUnsupportedPlatform(goos string, operation string) *MCPError {
	return NewMCPError(ErrorCodeUnsupportedPlatform, fmt.Sprintf("%s is not supported on %s", operation, goos)).
		WithSuggestions("Set host.config_path in settings.yaml to point at the host configuration file")
}

// CodeOf returns the code of the first MCPError in err's chain, or "".
func CodeOf(err error) MCPErrorCode {
	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrorCodeNotFound }

// IsAlreadyExists reports whether err is an ALREADY_EXISTS error.
func IsAlreadyExists(err error) bool { return CodeOf(err) == ErrorCodeAlreadyExists }

// IsValidation reports whether err is a VALIDATION error.
func IsValidation(err error) bool { return CodeOf(err) == ErrorCodeValidation }

// IsTransport reports whether err is a TRANSPORT error.
func IsTransport(err error) bool { return CodeOf(err) == ErrorCodeTransport }

// IsToolExecution reports whether err is a TOOL_EXECUTION error.
func IsToolExecution(err error) bool { return CodeOf(err) == ErrorCodeToolExecution }

// IsUnsupportedPlatform reports whether err is an UNSUPPORTED_PLATFORM error.
func IsUnsupportedPlatform(err error) bool { return CodeOf(err) == ErrorCodeUnsupportedPlatform }
