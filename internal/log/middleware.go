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

package log

import (
	"context"
	"log/slog"
	"time"
)

// ToolCall describes an incoming tool request for logging purposes.
type ToolCall struct {
	// Tool is the name of the requested tool.
	Tool string

	// RequestID identifies this call in the logs.
	RequestID string

	// Server is the target server, when the tool acts on one.
	Server string
}

func (c ToolCall) attrs() []any {
	attrs := []any{ToolKey, c.Tool}
	if c.RequestID != "" {
		attrs = append(attrs, "request_id", c.RequestID)
	}
	if c.Server != "" {
		attrs = append(attrs, ServerKey, c.Server)
	}
	return attrs
}

// ToolCallMiddleware logs tool requests as they arrive and as they complete.
type ToolCallMiddleware struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewToolCallMiddleware creates a new tool call logging middleware.
func NewToolCallMiddleware(logger *slog.Logger) *ToolCallMiddleware {
	return &ToolCallMiddleware{logger: logger, now: time.Now}
}

// Handle runs handler and logs the call around it. Failures are logged at
// warn level since they are reported back to the caller as well.
func (m *ToolCallMiddleware) Handle(ctx context.Context, call ToolCall, handler func() error) error {
	start := m.now()
	m.logger.DebugContext(ctx, "tool call received", call.attrs()...)

	err := handler()

	attrs := append(call.attrs(), DurationKey, m.now().Sub(start).Milliseconds())
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		m.logger.WarnContext(ctx, "tool call failed", attrs...)
		return err
	}
	m.logger.InfoContext(ctx, "tool call completed", attrs...)
	return nil
}
