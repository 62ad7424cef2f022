// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration pairs a tool definition with its handler.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// RegisterAll adds every registration to s.
func RegisterAll(s *server.MCPServer, regs []Registration) {
	for _, r := range regs {
		s.AddTool(r.Tool, r.Handler)
	}
}

// JSONResult marshals v to indented JSON and returns an mcp.CallToolResult.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult returns an mcp.CallToolResult that describes an error condition.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("error: %s", msg))
}

// DefaultLogger returns l if non-nil, otherwise slog.Default().
func DefaultLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// LogCall records one tool invocation and its outcome at info level.
func LogCall(logger *slog.Logger, toolName string, params map[string]any, result string, start time.Time) {
	DefaultLogger(logger).Info("tool call",
		"tool", toolName,
		"params", params,
		"result", result,
		"duration", time.Since(start),
	)
}
