// Package cardtools provides MCP tool handlers that expose the card resolver
// and the channel mention history to MCP clients.
package cardtools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/grimoire-mcp/internal/card"
	"github.com/jamesprial/grimoire-mcp/internal/mention"
	"github.com/jamesprial/grimoire-mcp/internal/resolve"
	"github.com/jamesprial/grimoire-mcp/internal/tools"
)

// MentionStore is the part of the mention history the tools read and write.
type MentionStore interface {
	resolve.MentionFinder
	Record(channelID string, c card.Card)
}

var _ MentionStore = (*mention.Store)(nil)

// CardTools returns all tool registrations for card lookups.
func CardTools(r resolve.CardResolver, m MentionStore, logger *slog.Logger) []tools.Registration {
	logger = tools.DefaultLogger(logger)
	return []tools.Registration{
		toolResolveCard(r, logger),
		toolRecentCard(m, logger),
		toolMentionCard(r, m, logger),
	}
}

func toolResolveCard(r resolve.CardResolver, logger *slog.Logger) tools.Registration {
	const toolName = "mtg_resolve_card"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Look up a Magic: The Gathering card by name, or return the card most recently mentioned in a channel when no name is given."),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("Discord channel ID the request is made in"),
		),
		mcp.WithString("name",
			mcp.Description("Card name to search for. Leave empty to use the channel's most recent mention."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		channel := req.GetString("channel", "")
		name := req.GetString("name", "")
		params := map[string]any{"channel": channel, "name": name}

		if strings.TrimSpace(channel) == "" {
			tools.LogCall(logger, toolName, params, "invalid", start)
			return tools.ErrorResult("channel is required"), nil
		}

		c, err := r.ObtainRecentOrSpecified(ctx, name, channel)
		if err != nil {
			return failure(logger, toolName, params, err, start), nil
		}

		tools.LogCall(logger, toolName, params, "ok", start)
		return tools.JSONResult(c), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolRecentCard(m MentionStore, logger *slog.Logger) tools.Registration {
	const toolName = "mtg_recent_card"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Return the card most recently mentioned in a Discord channel."),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("Discord channel ID"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		channel := req.GetString("channel", "")
		params := map[string]any{"channel": channel}

		if strings.TrimSpace(channel) == "" {
			tools.LogCall(logger, toolName, params, "invalid", start)
			return tools.ErrorResult("channel is required"), nil
		}

		c, ok, err := m.FindMostRecent(ctx, channel)
		if err != nil {
			return failure(logger, toolName, params, err, start), nil
		}
		if !ok {
			tools.LogCall(logger, toolName, params, "none", start)
			return mcp.NewToolResultText(fmt.Sprintf("No card has been mentioned in channel %s yet.", channel)), nil
		}

		tools.LogCall(logger, toolName, params, "ok", start)
		return tools.JSONResult(c), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolMentionCard(r resolve.CardResolver, m MentionStore, logger *slog.Logger) tools.Registration {
	const toolName = "mtg_mention_card"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Look up a card by name and record it as the channel's most recent mention, as an inline <<card>> reference would."),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("Discord channel ID"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Card name to search for"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		channel := req.GetString("channel", "")
		name := req.GetString("name", "")
		params := map[string]any{"channel": channel, "name": name}

		if strings.TrimSpace(channel) == "" || strings.TrimSpace(name) == "" {
			tools.LogCall(logger, toolName, params, "invalid", start)
			return tools.ErrorResult("channel and name are required"), nil
		}

		c, err := r.ObtainRecentOrSpecified(ctx, name, channel)
		if err != nil {
			return failure(logger, toolName, params, err, start), nil
		}
		m.Record(channel, c)

		tools.LogCall(logger, toolName, params, "ok", start)
		return tools.JSONResult(c), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// failure turns err into a tool error result. Resolution failures carry their
// user-facing message; other errors are logged and reported as returned.
func failure(logger *slog.Logger, toolName string, params map[string]any, err error, start time.Time) *mcp.CallToolResult {
	if resolve.IsResolution(err) {
		tools.LogCall(logger, toolName, params, resolve.KindOf(err).String(), start)
		return mcp.NewToolResultError(err.Error())
	}
	logger.Warn("card tool failed", "tool", toolName, "error", err)
	tools.LogCall(logger, toolName, params, "error", start)
	return tools.ErrorResult(err.Error())
}
