package mcp

import (
	"encoding/json"
)

// ToolDefinition represents an MCP tool definition.
// Maps to the MCP protocol's Tool schema.
type ToolDefinition struct {
	// Name is the unique identifier for this tool
	Name string `json:"name"`

	// Description explains what the tool does
	Description string `json:"description"`

	// InputSchema defines the expected input parameters using JSON Schema
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ToolCallRequest represents a request to execute an MCP tool.
type ToolCallRequest struct {
	// Name is the tool to execute
	Name string `json:"name"`

	// Arguments contains the input parameters for the tool
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolCallResponse represents the result of an MCP tool execution.
type ToolCallResponse struct {
	// Content contains the tool's output
	Content []ContentItem `json:"content"`

	// IsError indicates if the tool execution failed
	IsError bool `json:"isError,omitempty"`
}

// Text concatenates the text items of the response.
func (r *ToolCallResponse) Text() string {
	if r == nil {
		return ""
	}
	var out string
	for _, item := range r.Content {
		if item.Type != "text" || item.Text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += item.Text
	}
	return out
}

// ContentItem represents a piece of content in an MCP response.
type ContentItem struct {
	// Type is the content type (text, image, resource)
	Type string `json:"type"`

	// Text is the text content (for type="text")
	Text string `json:"text,omitempty"`

	// Data is the base64-encoded data (for type="image")
	Data string `json:"data,omitempty"`

	// MimeType is the MIME type for binary content
	MimeType string `json:"mimeType,omitempty"`
}
