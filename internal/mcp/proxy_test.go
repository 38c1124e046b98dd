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

package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tombee/mcpm/internal/mcp"
	mcptest "github.com/tombee/mcpm/internal/mcp/testing"
)

const weatherSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "city": {"type": "string"},
    "days": {"type": "integer", "minimum": 1}
  },
  "required": ["city"],
  "additionalProperties": false
}`

func newWeatherFixture(enabled bool) (mcptest.StaticResolver, *mcptest.MockDialer, *mcptest.MockTransport) {
	resolver := mcptest.StaticResolver{
		"weather": {
			Definition: mcp.ServerDefinition{
				Name:      "weather",
				AppConfig: mcp.BootConfig{Command: "weather-server", Args: []string{"--units", "**units**"}},
				Parameters: map[string]string{
					"units": "metric",
				},
				From: mcp.ProvenanceLocal,
			},
			Enabled: enabled,
		},
	}

	transport := mcptest.NewMockTransport(mcp.ToolDefinition{
		Name:        "forecast",
		Description: "Get the forecast",
		InputSchema: json.RawMessage(weatherSchema),
	})
	dialer := mcptest.NewMockDialer()
	dialer.Register("weather-server", transport)
	return resolver, dialer, transport
}

func newProxy(resolver mcp.ServerResolver, dialer *mcptest.MockDialer) *mcp.Proxy {
	return mcp.NewProxy(mcp.ProxyConfig{
		Resolver: resolver,
		Dialer:   dialer.Dial,
		Builder:  &mcp.TransportBuilder{BaseEnv: func() map[string]string { return map[string]string{} }},
	})
}

func TestProxy_CallTool_Success(t *testing.T) {
	resolver, dialer, transport := newWeatherFixture(true)
	proxy := newProxy(resolver, dialer)

	resp, err := proxy.CallTool(context.Background(), "weather", "forecast", json.RawMessage(`{"city":"Paris","days":3}`))
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "Mock response for forecast", resp.Text())

	assert.Equal(t, []string{"connect", "listTools", "callTool", "close"}, transport.Calls())

	reqs := transport.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Paris", reqs[0].Arguments["city"])

	specs := dialer.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, []string{"--units", "metric"}, specs[0].Args)
}

func TestProxy_CallTool_DisabledServerNeverDials(t *testing.T) {
	resolver, dialer, transport := newWeatherFixture(false)
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "weather", "forecast", map[string]any{})
	require.Error(t, err)
	assert.True(t, mcp.IsNotFound(err))
	assert.Contains(t, err.Error(), "not available or not enabled")

	assert.Empty(t, dialer.Specs())
	assert.Empty(t, transport.Calls())
}

func TestProxy_CallTool_UnknownServer(t *testing.T) {
	resolver, dialer, _ := newWeatherFixture(true)
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "nope", "forecast", map[string]any{})
	require.Error(t, err)
	assert.True(t, mcp.IsNotFound(err))
	assert.Empty(t, dialer.Specs())
}

func TestProxy_CallTool_NonObjectArguments(t *testing.T) {
	tests := []struct {
		name string
		args any
		kind string
	}{
		{"null literal", json.RawMessage(`null`), "null"},
		{"nil", nil, "null"},
		{"array", json.RawMessage(`[1,2]`), "array"},
		{"string", json.RawMessage(`"hello"`), "string"},
		{"number", 42, "number"},
		{"slice value", []string{"a"}, "array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, dialer, _ := newWeatherFixture(true)
			proxy := newProxy(resolver, dialer)

			_, err := proxy.CallTool(context.Background(), "weather", "forecast", tt.args)
			require.Error(t, err)
			assert.True(t, mcp.IsValidation(err), "expected validation error, got %v", err)
			assert.Contains(t, err.Error(), tt.kind)
			assert.Empty(t, dialer.Specs())
		})
	}
}

func TestProxy_CallTool_InvalidJSON(t *testing.T) {
	resolver, dialer, _ := newWeatherFixture(true)
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "weather", "forecast", `{"city":`)
	require.Error(t, err)
	assert.True(t, mcp.IsValidation(err))
}

func TestProxy_CallTool_SchemaMismatch(t *testing.T) {
	resolver, dialer, transport := newWeatherFixture(true)
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "weather", "forecast", map[string]any{"days": 0})
	require.Error(t, err)
	assert.True(t, mcp.IsValidation(err))

	var mcpErr *mcp.MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.NotEmpty(t, mcpErr.Details)

	// Validation failure closes without calling the tool.
	assert.Equal(t, []string{"connect", "listTools", "close"}, transport.Calls())
}

func TestProxy_CallTool_UncompilableSchema(t *testing.T) {
	resolver, dialer, _ := newWeatherFixture(true)
	transport := mcptest.NewMockTransport(mcp.ToolDefinition{
		Name:        "forecast",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"city":{"$ref":"#/definitions/Missing"}}}`),
	})
	dialer.Register("weather-server", transport)
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "weather", "forecast", map[string]any{"city": "Paris"})
	require.Error(t, err)
	assert.True(t, mcp.IsValidation(err))
	assert.Contains(t, err.Error(), "weather/forecast")

	assert.Equal(t, []string{"connect", "listTools", "close"}, transport.Calls(), "the tool is not called")
	assert.Empty(t, transport.Requests())
}

func TestProxy_CallTool_ConnectFailure(t *testing.T) {
	resolver, dialer, transport := newWeatherFixture(true)
	transport.SetConnectError(errors.New("exec: not found"))
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "weather", "forecast", map[string]any{"city": "Oslo"})
	require.Error(t, err)
	assert.True(t, mcp.IsTransport(err))
	assert.Equal(t, []string{"connect", "close"}, transport.Calls())
}

func TestProxy_CallTool_DialFailure(t *testing.T) {
	resolver, dialer, _ := newWeatherFixture(true)
	dialer.SetDialError(errors.New("boom"))
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "weather", "forecast", map[string]any{"city": "Oslo"})
	require.Error(t, err)
	assert.True(t, mcp.IsTransport(err))
}

func TestProxy_CallTool_ListFailure(t *testing.T) {
	resolver, dialer, transport := newWeatherFixture(true)
	transport.SetListError(errors.New("broken pipe"))
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "weather", "forecast", map[string]any{"city": "Oslo"})
	require.Error(t, err)
	assert.True(t, mcp.IsTransport(err))
	assert.Equal(t, []string{"connect", "listTools", "close"}, transport.Calls())
}

func TestProxy_CallTool_ToolErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error)
		wantMsg string
	}{
		{
			name: "protocol error",
			handler: func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error) {
				return nil, errors.New("process exited")
			},
			wantMsg: "process exited",
		},
		{
			name: "isError result",
			handler: func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error) {
				return &mcp.ToolCallResponse{
					IsError: true,
					Content: []mcp.ContentItem{{Type: "text", Text: "city not found"}},
				}, nil
			},
			wantMsg: "city not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, dialer, transport := newWeatherFixture(true)
			transport.SetCallHandler(tt.handler)
			proxy := newProxy(resolver, dialer)

			_, err := proxy.CallTool(context.Background(), "weather", "forecast", map[string]any{"city": "Atlantis"})
			require.Error(t, err)
			assert.True(t, mcp.IsToolExecution(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, 1, transport.CloseCount())
		})
	}
}

func TestProxy_CallTool_UnlistedToolSkipsValidation(t *testing.T) {
	resolver, dialer, transport := newWeatherFixture(true)
	proxy := newProxy(resolver, dialer)

	_, err := proxy.CallTool(context.Background(), "weather", "hidden", map[string]any{"anything": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"connect", "listTools", "callTool", "close"}, transport.Calls())
}

func TestProxy_CallTool_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	resolver, dialer, _ := newWeatherFixture(false)
	proxy := mcp.NewProxy(mcp.ProxyConfig{
		Resolver: resolver,
		Dialer:   dialer.Dial,
		Tracer:   provider.Tracer("test"),
	})

	_, err := proxy.CallTool(context.Background(), "weather", "forecast", map[string]any{})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "mcp.call_tool", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var gotCode string
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "mcp.error_code" {
			gotCode = attr.Value.AsString()
		}
	}
	assert.Equal(t, "NOT_FOUND", gotCode)
}

func TestProxy_ListTools(t *testing.T) {
	resolver, dialer, transport := newWeatherFixture(true)
	proxy := newProxy(resolver, dialer)

	tools, err := proxy.ListTools(context.Background(), "weather")
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "forecast", tools[0].Name)
	assert.Equal(t, 1, transport.CloseCount())
}

func TestProxy_GenerateToolPrompt(t *testing.T) {
	good := mcptest.NewMockTransport(mcp.ToolDefinition{
		Name:        "search",
		Description: "Search things",
		InputSchema: json.RawMessage(`{ "type": "object" }`),
	})
	empty := mcptest.NewMockTransport()
	broken := mcptest.NewMockTransport()
	broken.SetConnectError(errors.New("spawn failed"))

	dialer := mcptest.NewMockDialer()
	dialer.Register("good", good)
	dialer.Register("empty", empty)
	dialer.Register("broken", broken)

	status := func(name string, enabled bool) mcp.ServerStatus {
		return mcp.ServerStatus{
			Definition: mcp.ServerDefinition{Name: name, AppConfig: mcp.BootConfig{Command: name}, From: mcp.ProvenanceLocal},
			Enabled:    enabled,
		}
	}
	statuses := []mcp.ServerStatus{
		status("good", true),
		status("broken", true),
		status("disabled", false),
		status("empty", true),
	}

	proxy := newProxy(mcptest.StaticResolver{}, dialer)
	out := proxy.GenerateToolPrompt(context.Background(), statuses)

	assert.True(t, strings.HasPrefix(out, "# Available Tools"))
	assert.Contains(t, out, "mcpm call <server> <tool>")
	assert.Contains(t, out, "## tool: good\n\n### function: search\nSearch things\n**Parameters**:\n{\"type\":\"object\"}")
	assert.Contains(t, out, "## tool: broken")
	assert.Contains(t, out, "**ERROR**:")
	assert.Contains(t, out, "spawn failed")
	assert.Contains(t, out, "## tool: empty\n\n*No tools available*")
	assert.NotContains(t, out, "disabled")

	// Sections keep input order.
	assert.Less(t, strings.Index(out, "## tool: good"), strings.Index(out, "## tool: broken"))
	assert.Less(t, strings.Index(out, "## tool: broken"), strings.Index(out, "## tool: empty"))
	assert.Equal(t, 2, strings.Count(out, "\n---\n"))

	assert.Equal(t, 1, good.CloseCount())
	assert.Equal(t, 1, broken.CloseCount())
}
