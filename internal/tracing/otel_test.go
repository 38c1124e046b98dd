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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(Config{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	_, span := p.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_Console(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	p, err := Setup(Config{Enabled: true, Exporter: ExporterConsole, ServiceVersion: "1.2.3", Writer: &buf})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "mcp.call_tool")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"mcp.call_tool"`)
	assert.Contains(t, out, "1.2.3")
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(Config{Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}
