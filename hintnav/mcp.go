package hintnav

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the hint tools on an MCP server. Every tool answers
// with the navigator Status as JSON.
func (n *Navigator) RegisterMCP(srv *mcp.Server) {
	registerTool(srv, &mcp.Tool{
		Name:        "hint_start",
		Description: "Enter hint mode: label every visible element matching the selector, across all frames of the page.",
		InputSchema: inputSchema(map[string]any{
			"selector": map[string]any{"type": "string", "description": "Preset (clickable, link) or XPath. Default: configured selector"},
		}, nil),
	}, func(ctx context.Context, a toolArgs) error {
		return n.Start(ctx, a.Selector)
	}, n)

	registerTool(srv, &mcp.Tool{
		Name:        "hint_filter",
		Description: "Keep only hints whose text contains every space-separated part, in order. Labels are renumbered densely.",
		InputSchema: inputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Filter text; empty shows every hint again"},
		}, []string{"text"}),
	}, func(ctx context.Context, a toolArgs) error {
		return n.Filter(ctx, a.Text)
	}, n)

	registerTool(srv, &mcp.Tool{
		Name:        "hint_next",
		Description: "Activate the next visible hint, wrapping after the last one.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(ctx context.Context, _ toolArgs) error {
		return n.Next(ctx)
	}, n)

	registerTool(srv, &mcp.Tool{
		Name:        "hint_previous",
		Description: "Activate the previous visible hint, wrapping before the first one.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(ctx context.Context, _ toolArgs) error {
		return n.Previous(ctx)
	}, n)

	registerTool(srv, &mcp.Tool{
		Name:        "hint_select",
		Description: "Activate the visible hint carrying the given label.",
		InputSchema: inputSchema(map[string]any{
			"label": map[string]any{"type": "integer", "description": "Hint label (1-based)"},
		}, []string{"label"}),
	}, func(ctx context.Context, a toolArgs) error {
		if a.Label <= 0 {
			return errBadLabel
		}
		return n.Select(ctx, a.Label)
	}, n)

	registerTool(srv, &mcp.Tool{
		Name:        "hint_follow",
		Description: "Focus and click the active hinted element.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(ctx context.Context, _ toolArgs) error {
		return n.Follow(ctx)
	}, n)

	registerTool(srv, &mcp.Tool{
		Name:        "hint_clear",
		Description: "Leave hint mode and remove every label from the page.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(ctx context.Context, _ toolArgs) error {
		return n.Clear(ctx)
	}, n)

	registerTool(srv, &mcp.Tool{
		Name:        "hint_active",
		Description: "Return the active hint of the current session, if any.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(context.Context, toolArgs) error {
		return nil
	}, n)
}

type toolArgs struct {
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	Label    int    `json:"label,omitempty"`
}

// registerTool decodes the arguments, runs fn and answers with the status.
// Failures become tool errors, not protocol errors.
func registerTool(srv *mcp.Server, tool *mcp.Tool, fn func(context.Context, toolArgs) error, n *Navigator) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a toolArgs
		if raw := req.Params.Arguments; len(raw) > 0 {
			if err := json.Unmarshal(raw, &a); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}
		if err := fn(ctx, a); err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		data, err := json.Marshal(n.Status())
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
