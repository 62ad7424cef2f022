// Package pricing serves card prices from the Card Kingdom price list.
//
// The list is a single large document covering every product Card Kingdom
// sells. It is downloaded on first use, indexed by normalised card name and
// refreshed once it is older than the refresh interval.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/jamesprial/grimoire-mcp/internal/card"
	"github.com/jamesprial/grimoire-mcp/internal/catalog"
)

// DefaultURL is the public Card Kingdom price list.
const DefaultURL = "https://api.cardkingdom.com/api/pricelist"

const (
	defaultStoreURL = "https://www.cardkingdom.com/"
	// failureBackoff is how long stale prices are served after a failed
	// refresh before the next attempt.
	failureBackoff = 5 * time.Minute
)

// priceList is the price list document.
type priceList struct {
	Meta struct {
		CreatedAt string `json:"created_at"`
		BaseURL   string `json:"base_url"`
	} `json:"meta"`
	Data []listing `json:"data"`
}

type listing struct {
	ID           int    `json:"id"`
	SKU          string `json:"sku"`
	URL          string `json:"url"`
	Name         string `json:"name"`
	Variation    string `json:"variation"`
	Edition      string `json:"edition"`
	IsFoil       string `json:"is_foil"`
	SellPrice    string `json:"price_retail"`
	SellQuantity int    `json:"qty_retail"`
	BuyPrice     string `json:"price_buy"`
	BuyQuantity  int    `json:"qty_buying"`
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithURL sets the price list location. Empty values are ignored.
func WithURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.url = u
		}
	}
}

// WithRefreshInterval sets how long a downloaded list is used before it is
// fetched again. Non-positive values are ignored.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refresh = d
		}
	}
}

// WithTimeout bounds each download attempt. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryMax sets how many times a failed download is retried. Negative
// values are ignored.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryMax = n
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client looks up card prices. It is safe for concurrent use; concurrent
// callers share a single download.
type Client struct {
	url      string
	refresh  time.Duration
	timeout  time.Duration
	retryMax int
	logger   *slog.Logger
	now      func() time.Time
	http     *retryablehttp.Client

	mu       sync.Mutex
	loadedAt time.Time
	byName   map[string][]card.Price
}

// New constructs a Client. By default it reads DefaultURL, refreshes every
// six hours, retries twice and allows each download a minute.
func New(opts ...Option) *Client {
	c := &Client{
		url:      DefaultURL,
		refresh:  6 * time.Hour,
		timeout:  time.Minute,
		retryMax: 2,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := cleanhttp.DefaultClient()
	hc.Timeout = c.timeout
	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.Logger = c.logger
	rc.RetryMax = c.retryMax
	c.http = rc

	return c
}

// Prices returns every listing for the named card, non-foil printings first
// and then by ascending retail price. Split and double-faced cards can be
// looked up by their front face. A card with no listings yields an empty
// slice.
func (c *Client) Prices(ctx context.Context, name string) ([]card.Price, error) {
	idx, err := c.index(ctx)
	if err != nil {
		return nil, err
	}
	found := idx[catalog.Normalize(name)]
	out := make([]card.Price, len(found))
	copy(out, found)
	return out, nil
}

// index returns the current name index, downloading the list when it is
// missing or stale. A failed refresh keeps serving the previous list.
func (c *Client) index(ctx context.Context) (map[string][]card.Price, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.byName != nil && c.now().Sub(c.loadedAt) < c.refresh {
		return c.byName, nil
	}

	list, err := c.download(ctx)
	if err != nil {
		if c.byName == nil {
			return nil, err
		}
		c.logger.Warn("price list refresh failed, serving stale prices", "error", err, "age", c.now().Sub(c.loadedAt))
		c.loadedAt = c.now().Add(failureBackoff - c.refresh)
		return c.byName, nil
	}

	c.byName = buildIndex(list)
	c.loadedAt = c.now()
	c.logger.Info("loaded price list", "listings", len(list.Data), "cards", len(c.byName), "created_at", list.Meta.CreatedAt)
	return c.byName, nil
}

func (c *Client) download(ctx context.Context) (*priceList, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("pricing: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricing: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("pricing: unexpected status %d", resp.StatusCode)
	}

	var list priceList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("pricing: failed to decode price list: %w", err)
	}
	return &list, nil
}

// buildIndex groups listings by normalised name. Names with faces joined by
// " // " are also indexed under their front face.
func buildIndex(list *priceList) map[string][]card.Price {
	base := list.Meta.BaseURL
	if base == "" {
		base = defaultStoreURL
	}

	idx := make(map[string][]card.Price)
	for _, l := range list.Data {
		if strings.TrimSpace(l.Name) == "" {
			continue
		}
		p := toPrice(base, l)

		key := catalog.Normalize(l.Name)
		idx[key] = append(idx[key], p)
		if front, _, ok := strings.Cut(l.Name, " // "); ok {
			if fk := catalog.Normalize(front); fk != key {
				idx[fk] = append(idx[fk], p)
			}
		}
	}

	for _, prices := range idx {
		sort.SliceStable(prices, func(i, j int) bool {
			if prices[i].Foil != prices[j].Foil {
				return !prices[i].Foil
			}
			return prices[i].Retail < prices[j].Retail
		})
	}
	return idx
}

func toPrice(base string, l listing) card.Price {
	p := card.Price{
		Name:      l.Name,
		Edition:   l.Edition,
		Variation: l.Variation,
		Foil:      l.IsFoil == "true",
		Retail:    parsePrice(l.SellPrice),
		RetailQty: l.SellQuantity,
		Buy:       parsePrice(l.BuyPrice),
		BuyQty:    l.BuyQuantity,
	}
	if l.URL != "" {
		p.URL = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(l.URL, "/")
	}
	return p
}

// parsePrice reads a decimal price such as "1.99". Malformed prices read as
// zero.
func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
