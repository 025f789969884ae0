package hintnav

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "hintnav-test", Version: "0.1.0"}

func mcpSession(t *testing.T, nav *Navigator) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	nav.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, session *mcp.ClientSession, name string, args any) (Status, *mcp.CallToolResult) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	var st Status
	if result.IsError {
		return st, result
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	if err := json.Unmarshal([]byte(tc.Text), &st); err != nil {
		t.Fatalf("CallTool(%s): unmarshal: %v", name, err)
	}
	return st, result
}

func TestMCP_ListTools(t *testing.T) {
	session := mcpSession(t, newNavigator(t))
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		"hint_start": true, "hint_filter": true, "hint_next": true, "hint_previous": true,
		"hint_select": true, "hint_follow": true, "hint_clear": true, "hint_active": true,
	}
	for _, tool := range res.Tools {
		delete(want, tool.Name)
	}
	for name := range want {
		t.Errorf("missing tool %s", name)
	}
}

func TestMCP_SelectAndFollow(t *testing.T) {
	nav := newNavigator(t)
	session := mcpSession(t, nav)

	st, _ := mcpCall(t, session, "hint_start", map[string]any{"selector": "link"})
	if st.Active == nil || st.Active.Record.Text != "Docs" || st.Active.Record.ID != "1" {
		t.Fatalf("active after start: %+v", st.Active)
	}
	st, _ = mcpCall(t, session, "hint_select", map[string]any{"label": 4})
	if st.Active == nil || st.Active.Record.Text != "About" {
		t.Fatalf("select: %+v", st)
	}
	st, _ = mcpCall(t, session, "hint_filter", map[string]any{"text": "oth"})
	if st.Active == nil || st.Active.Record.Text != "Other" || st.Active.Record.ID != "1" {
		t.Fatalf("filter: %+v", st.Active)
	}
	mcpCall(t, session, "hint_follow", map[string]any{})
	st, _ = mcpCall(t, session, "hint_active", map[string]any{})
	if st.Active == nil || st.Active.Record.URL != "https://example.org/other" {
		t.Fatalf("active: %+v", st.Active)
	}
	st, _ = mcpCall(t, session, "hint_clear", map[string]any{})
	if st.Active != nil {
		t.Errorf("active after clear: %+v", st.Active)
	}
}

func TestMCP_NextPrevious(t *testing.T) {
	session := mcpSession(t, newNavigator(t))
	mcpCall(t, session, "hint_start", map[string]any{"selector": "link"})
	st, _ := mcpCall(t, session, "hint_previous", map[string]any{})
	if st.Active == nil || st.Active.Record.Text != "About" {
		t.Fatalf("previous: %+v", st.Active)
	}
	st, _ = mcpCall(t, session, "hint_next", map[string]any{})
	if st.Active == nil || st.Active.Record.Text != "Docs" {
		t.Fatalf("next after wrap: %+v", st.Active)
	}
}

func TestMCP_BadLabelIsToolError(t *testing.T) {
	session := mcpSession(t, newNavigator(t))
	_, res := mcpCall(t, session, "hint_select", map[string]any{"label": -1})
	if !res.IsError {
		t.Error("expected tool error for negative label")
	}
}
