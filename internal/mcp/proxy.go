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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCallTimeout bounds a whole invocation from spawn to close.
const DefaultCallTimeout = 60 * time.Second

// TracerName is the instrumentation scope of proxy spans.
const TracerName = "github.com/tombee/mcpm/internal/mcp"

// ServerResolver looks up a server and its enablement.
type ServerResolver interface {
	Resolve(name string) (ServerStatus, error)
}

// ProxyConfig configures a Proxy.
type ProxyConfig struct {
	// Resolver finds servers by name. Required.
	Resolver ServerResolver

	// Builder resolves launch descriptions (default: NewTransportBuilder()).
	Builder *TransportBuilder

	// Dialer creates transports (default: StdioDialer).
	Dialer Dialer

	// Timeout bounds each invocation (default: 60s).
	Timeout time.Duration

	// Logger for debug output (default: slog.Default()).
	Logger *slog.Logger

	// Tracer for invocation spans (default: the global tracer provider).
	Tracer trace.Tracer
}

// Proxy invokes tools on enabled servers, one subprocess per invocation.
type Proxy struct {
	resolver ServerResolver
	builder  *TransportBuilder
	dialer   Dialer
	timeout  time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewProxy creates a proxy.
func NewProxy(cfg ProxyConfig) *Proxy {
	p := &Proxy{
		resolver: cfg.Resolver,
		builder:  cfg.Builder,
		dialer:   cfg.Dialer,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		tracer:   cfg.Tracer,
	}
	if p.builder == nil {
		p.builder = NewTransportBuilder()
	}
	if p.dialer == nil {
		p.dialer = StdioDialer
	}
	if p.timeout <= 0 {
		p.timeout = DefaultCallTimeout
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(TracerName)
	}
	return p
}

// CallTool resolves server, validates args against the tool's input schema
// and invokes the tool. args may be a json.RawMessage, []byte, string of
// JSON, or any value that marshals to a JSON object.
//
// Unknown and disabled servers fail with NOT_FOUND before any subprocess is
// started. The transport is closed on every path once it has been dialed.
func (p *Proxy) CallTool(ctx context.Context, server, tool string, args any) (resp *ToolCallResponse, err error) {
	invocationID := uuid.NewString()
	logger := p.logger.With(
		slog.String("invocation_id", invocationID),
		slog.String("server", server),
		slog.String("tool", tool),
	)

	ctx, span := p.tracer.Start(ctx, "mcp.call_tool", trace.WithAttributes(
		attribute.String("mcp.invocation_id", invocationID),
		attribute.String("mcp.server", server),
		attribute.String("mcp.tool", tool),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if code := CodeOf(err); code != "" {
				span.SetAttributes(attribute.String("mcp.error_code", string(code)))
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	def, err := p.enabledDefinition(server)
	if err != nil {
		return nil, err
	}

	arguments, err := argumentsObject(tool, args)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.withTransport(ctx, def, logger, func(t Transport) error {
		tools, err := t.ListTools(ctx)
		if err != nil {
			return ErrTransport(server, err)
		}
		span.AddEvent("tools listed", trace.WithAttributes(attribute.Int("mcp.tool_count", len(tools))))

		if err := validateAgainstTool(server, tool, tools, arguments, logger); err != nil {
			return err
		}

		start := time.Now()
		result, err := t.CallTool(ctx, ToolCallRequest{Name: tool, Arguments: arguments})
		logger.Debug("tool call finished", slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		if err != nil {
			return ErrToolExecution(server, tool, err)
		}
		if result.IsError {
			msg := result.Text()
			if msg == "" {
				msg = "tool reported an error"
			}
			return ErrToolExecution(server, tool, errors.New(msg))
		}
		resp = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListTools starts an enabled server and returns its tools.
func (p *Proxy) ListTools(ctx context.Context, server string) ([]ToolDefinition, error) {
	def, err := p.enabledDefinition(server)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.listDefinitionTools(ctx, def)
}

func (p *Proxy) listDefinitionTools(ctx context.Context, def ServerDefinition) ([]ToolDefinition, error) {
	logger := p.logger.With(slog.String("server", def.Name))

	var tools []ToolDefinition
	err := p.withTransport(ctx, def, logger, func(t Transport) error {
		var err error
		tools, err = t.ListTools(ctx)
		if err != nil {
			return ErrTransport(def.Name, err)
		}
		return nil
	})
	return tools, err
}

func (p *Proxy) enabledDefinition(server string) (ServerDefinition, error) {
	if p.resolver == nil {
		return ServerDefinition{}, NewMCPError(ErrorCodeInternalError, "proxy has no server resolver")
	}
	status, err := p.resolver.Resolve(server)
	if err != nil {
		if IsNotFound(err) {
			return ServerDefinition{}, ErrServerNotEnabled(server)
		}
		return ServerDefinition{}, err
	}
	if !status.Enabled {
		return ServerDefinition{}, ErrServerNotEnabled(server)
	}
	return status.Definition, nil
}

// withTransport dials, connects, runs fn and closes.
func (p *Proxy) withTransport(ctx context.Context, def ServerDefinition, logger *slog.Logger, fn func(Transport) error) error {
	spec := p.builder.Build(def)

	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.Debug("starting server",
			slog.String("command", spec.Command),
			slog.Any("args", spec.Args),
			slog.Any("env", RedactEnv(spec.EnvList())),
		)
	}

	t, err := p.dialer(spec)
	if err != nil {
		return ErrTransport(def.Name, err)
	}
	defer func() {
		if cerr := t.Close(); cerr != nil {
			logger.Debug("failed to close transport", slog.Any("error", cerr))
		}
	}()

	if err := t.Connect(ctx); err != nil {
		return ErrTransport(def.Name, err)
	}

	return fn(t)
}

// validateAgainstTool checks arguments against the declared schema of tool.
// A tool missing from the list is left for the server to reject.
func validateAgainstTool(server, tool string, tools []ToolDefinition, arguments map[string]any, logger *slog.Logger) error {
	for _, td := range tools {
		if td.Name != tool {
			continue
		}
		if !HasSchema(td.InputSchema) {
			return nil
		}
		compiled, err := CompileSchema(td.InputSchema)
		if err != nil {
			return ErrInvalidToolSchema(server, tool, err)
		}
		if problems := compiled.Validate(arguments); len(problems) > 0 {
			return ErrSchemaMismatch(server, tool, problems)
		}
		return nil
	}
	logger.Debug("tool not listed by server")
	return nil
}

// argumentsObject normalizes args into a JSON object.
func argumentsObject(tool string, args any) (map[string]any, error) {
	var raw []byte
	switch v := args.(type) {
	case map[string]any:
		if v == nil {
			return nil, ErrInvalidArguments(tool, "got null")
		}
		return v, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		return nil, ErrInvalidArguments(tool, "got null")
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, ErrInvalidArguments(tool, err.Error())
		}
		raw = b
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, ErrInvalidArguments(tool, fmt.Sprintf("not valid JSON: %v", err))
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, ErrInvalidArguments(tool, "got "+jsonKind(decoded))
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
