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
	"encoding/json"
	"io"

	"github.com/tombee/mcpm/internal/mcp"
)

// JSONSchemaVersion is the envelope version of --json output.
const JSONSchemaVersion = "1.0"

// currentCommand is the path of the running command, recorded for error envelopes.
var currentCommand string

// SetCommandName records the running command's path (called by the root command).
func SetCommandName(path string) {
	currentCommand = path
}

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// NewJSONResponse returns a successful envelope for command.
func NewJSONResponse(command string) JSONResponse {
	return JSONResponse{
		Version: JSONSchemaVersion,
		Command: command,
		Success: true,
	}
}

// JSONError represents a structured error with code, message and suggestion
type JSONError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Details    []string `json:"details,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// EmitJSON marshals a response to indented JSON on w
func EmitJSON(w io.Writer, response any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(response)
}

// EmitJSONError emits a failed envelope carrying errors
func EmitJSONError(w io.Writer, command string, errors []JSONError) error {
	type errorResponse struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}

	return EmitJSON(w, errorResponse{
		JSONResponse: JSONResponse{
			Version: JSONSchemaVersion,
			Command: command,
			Success: false,
		},
		Errors: errors,
	})
}

// errorCode returns the JSON error code for err: the MCP error category when
// there is one, otherwise a category derived from the exit code.
func errorCode(err error) string {
	if code := mcp.CodeOf(err); code != "" {
		return string(code)
	}
	switch ExitCode(err) {
	case ExitValidation:
		return string(mcp.ErrorCodeValidation)
	case ExitNotFound:
		return string(mcp.ErrorCodeNotFound)
	default:
		return string(mcp.ErrorCodeInternalError)
	}
}
