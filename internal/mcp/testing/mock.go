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

// Package testing provides test doubles for the mcp package.
package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/tombee/mcpm/internal/mcp"
)

// MockTransport implements mcp.Transport for testing.
type MockTransport struct {
	tools      []mcp.ToolDefinition
	connectErr error
	listErr    error
	callFunc   func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error)
	closeFunc  func() error

	mu        sync.RWMutex
	calls     []string
	requests  []mcp.ToolCallRequest
	connected bool
	closed    int
}

// NewMockTransport creates a mock transport exposing tools.
func NewMockTransport(tools ...mcp.ToolDefinition) *MockTransport {
	return &MockTransport{tools: tools}
}

// Connect records the call and returns the configured error.
func (m *MockTransport) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "connect")
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

// ListTools returns the configured list of tools.
func (m *MockTransport) ListTools(ctx context.Context) ([]mcp.ToolDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "listTools")
	if m.listErr != nil {
		return nil, m.listErr
	}

	toolsCopy := make([]mcp.ToolDefinition, len(m.tools))
	copy(toolsCopy, m.tools)
	return toolsCopy, nil
}

// CallTool executes a tool call using the configured handler.
func (m *MockTransport) CallTool(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, "callTool")
	m.requests = append(m.requests, req)
	callFunc := m.callFunc
	m.mu.Unlock()

	if callFunc != nil {
		return callFunc(ctx, req)
	}

	return &mcp.ToolCallResponse{
		Content: []mcp.ContentItem{
			{
				Type: "text",
				Text: fmt.Sprintf("Mock response for %s", req.Name),
			},
		},
	}, nil
}

// Close records the call and runs the configured close function.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.calls = append(m.calls, "close")
	m.closed++
	closeFunc := m.closeFunc
	m.mu.Unlock()

	if closeFunc != nil {
		return closeFunc()
	}
	return nil
}

// SetConnectError makes Connect fail.
func (m *MockTransport) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// SetListError makes ListTools fail.
func (m *MockTransport) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// SetCallHandler sets a custom call handler.
func (m *MockTransport) SetCallHandler(f func(ctx context.Context, req mcp.ToolCallRequest) (*mcp.ToolCallResponse, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callFunc = f
}

// SetCloseFunc sets a custom close function.
func (m *MockTransport) SetCloseFunc(f func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeFunc = f
}

// Calls returns the sequence of methods invoked so far.
func (m *MockTransport) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Requests returns the tool call requests received.
func (m *MockTransport) Requests() []mcp.ToolCallRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]mcp.ToolCallRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CloseCount returns how many times Close was called.
func (m *MockTransport) CloseCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// MockDialer hands out mock transports keyed by command.
type MockDialer struct {
	mu         sync.Mutex
	transports map[string]*MockTransport
	dialErr    error
	specs      []mcp.ProcessSpec
}

// NewMockDialer creates an empty dialer.
func NewMockDialer() *MockDialer {
	return &MockDialer{transports: make(map[string]*MockTransport)}
}

// Register returns t whenever a process with command is dialed.
func (d *MockDialer) Register(command string, t *MockTransport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transports[command] = t
}

// SetDialError makes every dial fail.
func (d *MockDialer) SetDialError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialErr = err
}

// Dial implements mcp.Dialer.
func (d *MockDialer) Dial(spec mcp.ProcessSpec) (mcp.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.specs = append(d.specs, spec)
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	t, ok := d.transports[spec.Command]
	if !ok {
		return nil, fmt.Errorf("no mock transport registered for command %q", spec.Command)
	}
	return t, nil
}

// Specs returns every process spec dialed so far.
func (d *MockDialer) Specs() []mcp.ProcessSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]mcp.ProcessSpec, len(d.specs))
	copy(out, d.specs)
	return out
}

// StaticResolver implements mcp.ServerResolver over a fixed set of statuses.
type StaticResolver map[string]mcp.ServerStatus

// Resolve returns the status stored under name.
func (r StaticResolver) Resolve(name string) (mcp.ServerStatus, error) {
	s, ok := r[name]
	if !ok {
		return mcp.ServerStatus{}, mcp.ErrServerNotFound(name)
	}
	return s, nil
}
