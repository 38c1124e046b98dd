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

package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// ExporterConsole writes finished spans as JSON.
	ExporterConsole = "console"
	// ExporterNone records spans without exporting them.
	ExporterNone = "none"
)

// Config configures tracing.
type Config struct {
	Enabled bool

	// Exporter is ExporterConsole or ExporterNone.
	Exporter string

	// ServiceName defaults to "mcpm".
	ServiceName    string
	ServiceVersion string

	// Writer receives console output (default: os.Stderr).
	Writer io.Writer
}

// Provider owns the tracer provider installed by Setup.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup installs the global tracer provider. With tracing disabled it
// installs nothing and returns a provider whose methods are no-ops.
func Setup(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	name := cfg.ServiceName
	if name == "" {
		name = "mcpm"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(name),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	switch cfg.Exporter {
	case ExporterConsole, "":
		writer := cfg.Writer
		if writer == nil {
			writer = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(writer))
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		// CLI processes are short lived; export each span as it ends.
		opts = append(opts, sdktrace.WithSyncer(exporter))
	case ExporterNone:
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

// Tracer returns a tracer for the given instrumentation scope.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tp == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.tp != nil
}

// Shutdown flushes any pending spans and releases resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
