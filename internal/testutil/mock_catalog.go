package testutil

import (
	"context"
	"sync"

	"github.com/jamesprial/grimoire-mcp/internal/card"
	"github.com/jamesprial/grimoire-mcp/internal/resolve"
)

// Compile-time assertions.
var (
	_ resolve.CardLookup    = (*MockCardLookup)(nil)
	_ resolve.MentionFinder = (*MockMentionFinder)(nil)
	_ resolve.CardResolver  = (*MockCardResolver)(nil)
	_ resolve.SetLookup     = (*MockSetLookup)(nil)
	_ resolve.PriceSource   = (*MockPriceSource)(nil)
)

// MockCardLookup implements resolve.CardLookup. Every query is recorded; when
// WhereFunc is nil the lookup answers from Results keyed by exact name and
// returns an empty slice for unknown names.
type MockCardLookup struct {
	WhereFunc func(ctx context.Context, q card.Query) ([]card.Card, error)
	Results   map[string][]card.Card

	mu      sync.Mutex
	queries []card.Query
}

func (m *MockCardLookup) Where(ctx context.Context, q card.Query) ([]card.Card, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.WhereFunc != nil {
		return m.WhereFunc(ctx, q)
	}
	return m.Results[q.Name], nil
}

// Queries returns a copy of every query received, in order.
func (m *MockCardLookup) Queries() []card.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]card.Query, len(m.queries))
	copy(out, m.queries)
	return out
}

// MockMentionFinder implements resolve.MentionFinder using a function field.
// When the field is nil every channel is reported as having no mention.
type MockMentionFinder struct {
	FindMostRecentFunc func(ctx context.Context, channelID string) (card.Card, bool, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockMentionFinder) FindMostRecent(ctx context.Context, channelID string) (card.Card, bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, channelID)
	m.mu.Unlock()

	if m.FindMostRecentFunc != nil {
		return m.FindMostRecentFunc(ctx, channelID)
	}
	return card.Card{}, false, nil
}

// Calls returns the channel ids FindMostRecent was called with, in order.
func (m *MockMentionFinder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockCardResolver implements resolve.CardResolver using a function field.
// When the field is nil it resolves every request to a card named after the
// request, or "Recent Card" for a blank name.
type MockCardResolver struct {
	ObtainFunc func(ctx context.Context, name, channelID string) (card.Card, error)
}

func (m *MockCardResolver) ObtainRecentOrSpecified(ctx context.Context, name, channelID string) (card.Card, error) {
	if m.ObtainFunc != nil {
		return m.ObtainFunc(ctx, name, channelID)
	}
	if name == "" {
		return card.Card{Name: "Recent Card"}, nil
	}
	return card.Card{Name: name}, nil
}

// MockSetLookup implements resolve.SetLookup using a function field. When
// the field is nil every query matches no set.
type MockSetLookup struct {
	SetsFunc func(ctx context.Context, query string) ([]card.Set, error)
}

func (m *MockSetLookup) Sets(ctx context.Context, query string) ([]card.Set, error) {
	if m.SetsFunc != nil {
		return m.SetsFunc(ctx, query)
	}
	return nil, nil
}

// MockPriceSource implements resolve.PriceSource using a function field. The
// names asked for are recorded; when the field is nil no card has listings.
type MockPriceSource struct {
	PricesFunc func(ctx context.Context, name string) ([]card.Price, error)

	mu    sync.Mutex
	names []string
}

func (m *MockPriceSource) Prices(ctx context.Context, name string) ([]card.Price, error) {
	m.mu.Lock()
	m.names = append(m.names, name)
	m.mu.Unlock()

	if m.PricesFunc != nil {
		return m.PricesFunc(ctx, name)
	}
	return nil, nil
}

// Names returns the card names Prices was called with, in order.
func (m *MockPriceSource) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
