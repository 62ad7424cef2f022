package testutil

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/grimoire-mcp/internal/tools"
)

// NewCallToolRequest constructs an mcp.CallToolRequest for the named tool.
func NewCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// ExtractText extracts the text string from a CallToolResult. It assumes the
// result contains at least one TextContent element and fails the test otherwise.
func ExtractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content elements")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("result content[0] is %T, want mcp.TextContent", result.Content[0])
	}
	return tc.Text
}

// AssertTextContains extracts text from the result and asserts it contains substr.
func AssertTextContains(t *testing.T, result *mcp.CallToolResult, substr string) {
	t.Helper()
	text := ExtractText(t, result)
	if !strings.Contains(text, substr) {
		t.Errorf("result text = %q, want it to contain %q", text, substr)
	}
}

// AssertTextNotContains extracts text from the result and asserts it does NOT contain substr.
func AssertTextNotContains(t *testing.T, result *mcp.CallToolResult, substr string) {
	t.Helper()
	text := ExtractText(t, result)
	if strings.Contains(text, substr) {
		t.Errorf("result text = %q, should NOT contain %q", text, substr)
	}
}

// AssertNotError asserts that the CallToolResult is not an error result.
func AssertNotError(t *testing.T, result *mcp.CallToolResult) {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	if result.IsError {
		text := ExtractText(t, result)
		t.Fatalf("expected non-error result, but got IsError=true with text: %s", text)
	}
}

// DecodeJSON unmarshals the text of result into v, failing the test on error.
func DecodeJSON(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	text := ExtractText(t, result)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("result text is not JSON: %v\n%s", err, text)
	}
}

// FindHandler returns the handler registered under name, failing the test if
// there is none.
func FindHandler(t *testing.T, regs []tools.Registration, name string) server.ToolHandlerFunc {
	t.Helper()
	for _, r := range regs {
		if r.Tool.Name == name {
			return r.Handler
		}
	}
	t.Fatalf("no registration for tool %q", name)
	return nil
}

// AssertRegistrations asserts that regs registers exactly the tools in want,
// each with a handler and a description.
func AssertRegistrations(t *testing.T, regs []tools.Registration, want []string) {
	t.Helper()

	got := make([]string, 0, len(regs))
	for _, r := range regs {
		got = append(got, r.Tool.Name)
		if r.Handler == nil {
			t.Errorf("tool %q has a nil handler", r.Tool.Name)
		}
		if r.Tool.Description == "" {
			t.Errorf("tool %q has no description", r.Tool.Name)
		}
	}

	sortedWant := append([]string(nil), want...)
	sort.Strings(got)
	sort.Strings(sortedWant)
	if strings.Join(got, ",") != strings.Join(sortedWant, ",") {
		t.Errorf("registered tools = %v, want %v", got, sortedWant)
	}
}
