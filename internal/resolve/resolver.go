// Package resolve works out which card a chat user means: the card they name,
// or the card most recently mentioned in their channel.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jamesprial/grimoire-mcp/internal/card"
)

// Resolver disambiguates card references. It holds no mutable state and is
// safe for concurrent use as long as its collaborators are.
type Resolver struct {
	mentions MentionFinder
	lookup   CardLookup
	logger   *slog.Logger
}

// New constructs a Resolver over the given mention history and card lookup.
// A nil logger defaults to slog.Default().
func New(mentions MentionFinder, lookup CardLookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		mentions: mentions,
		lookup:   lookup,
		logger:   logger,
	}
}

// ObtainRecentOrSpecified resolves name to a single card.
//
// A blank name refers to the card most recently mentioned in channelID; if
// there is none a NoImplicitReference error is returned. Otherwise the lookup
// is queried once with name verbatim: no results yield NotFound, more than one
// yields Ambiguous, and a single result is returned.
//
// Resolution failures are *ResolutionError values. Errors from the mention
// store or the lookup are wrapped and returned; they are not resolution
// failures. The resolver never records mentions itself.
func (r *Resolver) ObtainRecentOrSpecified(ctx context.Context, name, channelID string) (card.Card, error) {
	if strings.TrimSpace(name) == "" {
		return r.recent(ctx, channelID)
	}
	return r.specified(ctx, name)
}

func (r *Resolver) recent(ctx context.Context, channelID string) (card.Card, error) {
	c, ok, err := r.mentions.FindMostRecent(ctx, channelID)
	if err != nil {
		return card.Card{}, fmt.Errorf("resolve: mention lookup failed: %w", err)
	}
	if !ok {
		r.logger.Debug("no implicit reference", "channel", channelID)
		return card.Card{}, &ResolutionError{Kind: NoImplicitReference}
	}
	r.logger.Debug("resolved implicit reference", "channel", channelID, "card", c.Name)
	return c, nil
}

func (r *Resolver) specified(ctx context.Context, name string) (card.Card, error) {
	cards, err := r.lookup.Where(ctx, card.Query{Name: name})
	if err != nil {
		return card.Card{}, fmt.Errorf("resolve: card lookup failed: %w", err)
	}

	switch len(cards) {
	case 0:
		return card.Card{}, &ResolutionError{Kind: NotFound, Name: name}
	case 1:
		r.logger.Debug("resolved card by name", "name", name, "card", cards[0].Name)
		return cards[0], nil
	}
	return card.Card{}, &ResolutionError{Kind: Ambiguous, Name: name, Candidates: card.Names(cards)}
}
