package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// ClientName and ClientVersion identify mcpm during the initialize handshake.
var (
	ClientName    = "mcpm"
	ClientVersion = "dev"
)

// Transport is a single connection to a tool server.
// Close must be safe to call whether or not Connect succeeded.
type Transport interface {
	// Connect spawns the server and performs the protocol handshake.
	Connect(ctx context.Context) error

	// ListTools returns the tools the server exposes.
	ListTools(ctx context.Context) ([]ToolDefinition, error)

	// CallTool invokes a tool.
	CallTool(ctx context.Context, req ToolCallRequest) (*ToolCallResponse, error)

	// Close terminates the connection and the subprocess.
	Close() error
}

// Dialer creates an unconnected Transport for a resolved process.
type Dialer func(spec ProcessSpec) (Transport, error)

// StdioDialer launches the server as a subprocess speaking MCP over stdio.
func StdioDialer(spec ProcessSpec) (Transport, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("command is required")
	}
	return &stdioTransport{spec: spec}, nil
}

// rpcSender sends a raw JSON-RPC request over an mcp-go transport.
type rpcSender interface {
	SendRequest(ctx context.Context, request transport.JSONRPCRequest) (*transport.JSONRPCResponse, error)
}

// stdioTransport adapts the mcp-go stdio client to Transport.
type stdioTransport struct {
	spec ProcessSpec

	mu     sync.Mutex
	client *client.Client
	rpc    rpcSender
	closed bool

	// listIDs numbers tools/list requests sent around the client.
	listIDs atomic.Int64
}

// Connect starts the subprocess and sends the initialize request.
func (t *stdioTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}
	if t.client != nil {
		return nil
	}

	stdio := transport.NewStdioWithOptions(t.spec.Command, t.spec.EnvList(), t.spec.Args,
		transport.WithCommandFunc(exactEnvCommand))
	c := client.NewClient(stdio)
	t.client = c
	t.rpc = stdio

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server process: %w", err)
	}

	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    ClientName,
				Version: ClientVersion,
			},
		},
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("initialize request failed: %w", err)
	}

	return nil
}

// exactEnvCommand launches the subprocess with only the resolved environment
// instead of appending it to mcpm's own.
func exactEnvCommand(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = env
	return cmd, nil
}

func (t *stdioTransport) connected() (*client.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil || t.closed {
		return nil, fmt.Errorf("transport is not connected")
	}
	return t.client, nil
}

// ListTools retrieves the tools the server exposes. The list is read
// from the raw tools/list result so each inputSchema reaches validation
// byte for byte; mcp-go's Tool type keeps only part of it.
func (t *stdioTransport) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	t.mu.Lock()
	rpc := t.rpc
	ready := t.client != nil && !t.closed
	t.mu.Unlock()
	if !ready || rpc == nil {
		return nil, fmt.Errorf("transport is not connected")
	}
	return listTools(ctx, rpc, &t.listIDs)
}

// listTools pages through tools/list.
func listTools(ctx context.Context, rpc rpcSender, ids *atomic.Int64) ([]ToolDefinition, error) {
	var (
		tools  []ToolDefinition
		cursor string
	)
	for {
		req := transport.JSONRPCRequest{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      mcp.NewRequestId(fmt.Sprintf("mcpm-tools-%d", ids.Add(1))),
			Method:  string(mcp.MethodToolsList),
		}
		if cursor != "" {
			req.Params = map[string]any{"cursor": cursor}
		}

		resp, err := rpc.SendRequest(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list tools: %w", err)
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("failed to list tools: %s (code %d)", resp.Error.Message, resp.Error.Code)
		}

		page, next, err := decodeToolsPage(resp.Result)
		if err != nil {
			return nil, err
		}
		tools = append(tools, page...)

		if next == "" {
			return tools, nil
		}
		if next == cursor {
			return nil, fmt.Errorf("failed to list tools: server repeated cursor %q", next)
		}
		cursor = next
	}
}

// wireTool is a tool as sent in a tools/list result.
type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// decodeToolsPage decodes one tools/list result, returning the tools and
// the cursor of the next page.
func decodeToolsPage(result json.RawMessage) ([]ToolDefinition, string, error) {
	var page struct {
		Tools      []wireTool `json:"tools"`
		NextCursor string     `json:"nextCursor"`
	}
	if err := json.Unmarshal(result, &page); err != nil {
		return nil, "", fmt.Errorf("failed to decode tools/list result: %w", err)
	}

	tools := make([]ToolDefinition, len(page.Tools))
	for i, wt := range page.Tools {
		if wt.Name == "" {
			return nil, "", fmt.Errorf("tools/list result has a tool without a name")
		}
		tools[i] = ToolDefinition{
			Name:        wt.Name,
			Description: wt.Description,
			InputSchema: wt.InputSchema,
		}
	}
	return tools, page.NextCursor, nil
}

// CallTool executes an MCP tool with the given arguments.
func (t *stdioTransport) CallTool(ctx context.Context, req ToolCallRequest) (*ToolCallResponse, error) {
	c, err := t.connected()
	if err != nil {
		return nil, err
	}

	result, err := c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      req.Name,
			Arguments: req.Arguments,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	response := &ToolCallResponse{
		IsError: result.IsError,
		Content: make([]ContentItem, len(result.Content)),
	}
	for i, content := range result.Content {
		item, err := convertContent(content)
		if err != nil {
			return nil, err
		}
		response.Content[i] = item
	}

	return response, nil
}

func convertContent(content mcp.Content) (ContentItem, error) {
	if text, ok := mcp.AsTextContent(content); ok {
		return ContentItem{Type: text.Type, Text: text.Text}, nil
	}
	if image, ok := mcp.AsImageContent(content); ok {
		return ContentItem{Type: image.Type, Data: image.Data, MimeType: image.MIMEType}, nil
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return ContentItem{}, fmt.Errorf("failed to marshal content: %w", err)
	}
	var item ContentItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return ContentItem{}, fmt.Errorf("failed to unmarshal content: %w", err)
	}
	return item, nil
}

// Close closes the client, which terminates the subprocess.
func (t *stdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}
