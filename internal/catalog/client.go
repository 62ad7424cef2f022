// Package catalog is a client for the magicthegathering.io card and set
// catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/jamesprial/grimoire-mcp/internal/card"
)

// DefaultBaseURL is the public catalog endpoint.
const DefaultBaseURL = "https://api.magicthegathering.io/v1"

const userAgent = "grimoire-mcp/1.0"

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL points the client at a different catalog deployment. Empty
// values are ignored.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRetryMax sets how many times a failed request is retried. Negative
// values are ignored.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryMax = n
		}
	}
}

// WithRetryWait sets the backoff bounds between retries. Non-positive values
// are ignored.
func WithRetryWait(lo, hi time.Duration) Option {
	return func(c *Client) {
		if lo > 0 {
			c.retryWaitMin = lo
		}
		if hi > 0 {
			c.retryWaitMax = hi
		}
	}
}

// WithTimeout sets the per-attempt HTTP timeout. Non-positive values are
// ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client queries the catalog for cards and sets. It is safe for concurrent
// use.
type Client struct {
	baseURL      string
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	timeout      time.Duration
	logger       *slog.Logger
	http         *http.Client
}

// New constructs a Client with the provided options applied. By default it
// talks to DefaultBaseURL, retries 3 times with a jittered 1s-10s backoff and
// gives each attempt 15 seconds.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		retryMax:     3,
		retryWaitMin: time.Second,
		retryWaitMax: 10 * time.Second,
		timeout:      15 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: cleanhttp.DefaultPooledTransport(),
		Timeout:   c.timeout,
	}
	rc.Logger = c.logger
	rc.Backoff = retryablehttp.LinearJitterBackoff
	rc.RetryMax = c.retryMax
	rc.RetryWaitMin = c.retryWaitMin
	rc.RetryWaitMax = c.retryWaitMax
	c.http = rc.StandardClient()

	return c
}

// cardsResponse is the envelope of GET /cards.
type cardsResponse struct {
	Cards []card.Card `json:"cards"`
}

// Where returns the cards matching q.Name. When any result matches the name
// exactly (ignoring case, accents and punctuation) only exact matches are
// kept; otherwise every partial match is. Printings of the same card are
// collapsed so that each name appears once. An empty result is not an error.
func (c *Client) Where(ctx context.Context, q card.Query) ([]card.Card, error) {
	cards, err := c.fetch(ctx, q.Name)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("catalog lookup", "name", q.Name, "printings", len(cards))
	return narrow(q.Name, cards), nil
}

func (c *Client) fetch(ctx context.Context, name string) ([]card.Card, error) {
	v := url.Values{}
	v.Set("name", name)

	var body cardsResponse
	if _, err := c.getJSON(ctx, "/cards?"+v.Encode(), &body); err != nil {
		return nil, err
	}
	return body.Cards, nil
}

type setResponse struct {
	Set card.Set `json:"set"`
}

type setsResponse struct {
	Sets []card.Set `json:"sets"`
}

// Sets returns the sets matching query. A query shaped like a set code is
// first tried as one; otherwise, or when no set has that code, sets are
// searched by name with exact (normalised) name matches preferred.
func (c *Client) Sets(ctx context.Context, query string) ([]card.Set, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if looksLikeSetCode(query) {
		var body setResponse
		found, err := c.getJSON(ctx, "/sets/"+url.PathEscape(strings.ToUpper(query)), &body)
		if err != nil {
			return nil, err
		}
		if found && body.Set.Code != "" {
			return []card.Set{body.Set}, nil
		}
	}

	v := url.Values{}
	v.Set("name", query)
	var body setsResponse
	if _, err := c.getJSON(ctx, "/sets?"+v.Encode(), &body); err != nil {
		return nil, err
	}
	c.logger.Debug("catalog set lookup", "query", query, "sets", len(body.Sets))

	var exact []card.Set
	for _, s := range body.Sets {
		if Equals(s.Name, query) {
			exact = append(exact, s)
		}
	}
	if len(exact) > 0 {
		return exact, nil
	}
	return body.Sets, nil
}

// looksLikeSetCode reports whether q could be a set code such as "M11" or
// "pGRU".
func looksLikeSetCode(q string) bool {
	if len(q) < 2 || len(q) > 6 {
		return false
	}
	for _, r := range q {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// getJSON decodes the response to GET path into v. It reports false without
// an error when the catalog answers 404.
func (c *Client) getJSON(ctx context.Context, path string, v any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("catalog: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("catalog: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("catalog: failed to decode response: %w", err)
	}
	return true, nil
}

// narrow applies exact-name preference and collapses printings.
func narrow(name string, cards []card.Card) []card.Card {
	var exact []card.Card
	for _, c := range cards {
		if Equals(c.Name, name) {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		cards = exact
	}
	return collapse(cards)
}

// collapse keeps one printing per card name in first-seen order. The kept
// printing is the last one carrying an image, or the first one if none does.
func collapse(cards []card.Card) []card.Card {
	index := make(map[string]int, len(cards))
	out := make([]card.Card, 0, len(cards))
	for _, c := range cards {
		key := Normalize(c.Name)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, c)
			continue
		}
		if c.ImageURL != "" {
			out[i] = c
		}
	}
	return out
}
