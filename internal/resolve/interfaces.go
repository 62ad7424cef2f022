package resolve

import (
	"context"

	"github.com/jamesprial/grimoire-mcp/internal/card"
	"github.com/jamesprial/grimoire-mcp/internal/catalog"
	"github.com/jamesprial/grimoire-mcp/internal/mention"
	"github.com/jamesprial/grimoire-mcp/internal/pricing"
)

// MentionFinder returns the most recently mentioned card in a channel. The
// boolean is false when the channel has no mention on record.
type MentionFinder interface {
	FindMostRecent(ctx context.Context, channelID string) (card.Card, bool, error)
}

// CardLookup queries the card catalog. Any returned slice, including an empty
// one, is a successful lookup.
type CardLookup interface {
	Where(ctx context.Context, q card.Query) ([]card.Card, error)
}

// SetLookup finds sets by code or name.
type SetLookup interface {
	Sets(ctx context.Context, query string) ([]card.Set, error)
}

// PriceSource lists retail prices for every printing of the named card. An
// empty result means the card has no listings.
type PriceSource interface {
	Prices(ctx context.Context, name string) ([]card.Price, error)
}

// CardResolver is the interface accepted by command and tool handlers.
type CardResolver interface {
	ObtainRecentOrSpecified(ctx context.Context, name, channelID string) (card.Card, error)
}

// Compile-time assertions.
var (
	_ MentionFinder = (*mention.Store)(nil)
	_ CardLookup    = (*catalog.Client)(nil)
	_ SetLookup     = (*catalog.Client)(nil)
	_ PriceSource   = (*pricing.Client)(nil)
	_ CardResolver  = (*Resolver)(nil)
)
