package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/jamesprial/grimoire-mcp/internal/card"
)

// ResolveSet resolves query, a set code or name, to a single set. It fails
// with NotFound or Ambiguous under the same rules as card names.
func ResolveSet(ctx context.Context, l SetLookup, query string) (card.Set, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return card.Set{}, &ResolutionError{Kind: NotFound, Name: query}
	}

	sets, err := l.Sets(ctx, query)
	if err != nil {
		return card.Set{}, fmt.Errorf("resolve: set lookup failed: %w", err)
	}

	switch len(sets) {
	case 0:
		return card.Set{}, &ResolutionError{Kind: NotFound, Name: query}
	case 1:
		return sets[0], nil
	}
	return card.Set{}, &ResolutionError{Kind: Ambiguous, Name: query, Candidates: card.SetLabels(sets)}
}
