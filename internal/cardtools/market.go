package cardtools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/grimoire-mcp/internal/card"
	"github.com/jamesprial/grimoire-mcp/internal/resolve"
	"github.com/jamesprial/grimoire-mcp/internal/tools"
)

// PriceTools returns the card price tool.
func PriceTools(r resolve.CardResolver, prices resolve.PriceSource, logger *slog.Logger) []tools.Registration {
	logger = tools.DefaultLogger(logger)
	return []tools.Registration{toolCardPrice(r, prices, logger)}
}

// SetTools returns the set lookup tool.
func SetTools(sets resolve.SetLookup, logger *slog.Logger) []tools.Registration {
	logger = tools.DefaultLogger(logger)
	return []tools.Registration{toolFindSet(sets, logger)}
}

// priceReport is the mtg_card_price result.
type priceReport struct {
	Card   string       `json:"card"`
	Prices []card.Price `json:"prices"`
}

func toolCardPrice(r resolve.CardResolver, prices resolve.PriceSource, logger *slog.Logger) tools.Registration {
	const toolName = "mtg_card_price"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List Card Kingdom retail and buylist prices for every printing of a card. With no name, prices the card most recently mentioned in the channel."),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("Discord channel ID the request is made in"),
		),
		mcp.WithString("name",
			mcp.Description("Card name. Leave empty to use the channel's most recent mention."),
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
		listed, err := prices.Prices(ctx, c.Name)
		if err != nil {
			return failure(logger, toolName, params, err, start), nil
		}
		if listed == nil {
			listed = []card.Price{}
		}

		tools.LogCall(logger, toolName, params, "ok", start)
		return tools.JSONResult(priceReport{Card: c.Name, Prices: listed}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolFindSet(sets resolve.SetLookup, logger *slog.Logger) tools.Registration {
	const toolName = "mtg_find_set"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Look up a Magic: The Gathering set by its code (such as M11) or its name."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Set code or name"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		query := req.GetString("query", "")
		params := map[string]any{"query": query}

		if strings.TrimSpace(query) == "" {
			tools.LogCall(logger, toolName, params, "invalid", start)
			return tools.ErrorResult("query is required"), nil
		}

		s, err := resolve.ResolveSet(ctx, sets, query)
		if err != nil {
			return failure(logger, toolName, params, err, start), nil
		}

		tools.LogCall(logger, toolName, params, "ok", start)
		return tools.JSONResult(s), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
