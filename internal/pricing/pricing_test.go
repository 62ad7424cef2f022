package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testList is a small price list in the Card Kingdom shape.
const testList = `{
  "meta": {"created_at": "2026-10-14 06:00:00", "base_url": "https://www.cardkingdom.com/"},
  "data": [
    {"id": 1, "sku": "LEA-161", "url": "mtg/alpha/lightning-bolt", "name": "Lightning Bolt", "variation": "", "edition": "Alpha", "is_foil": "false", "price_retail": "499.99", "qty_retail": 1, "price_buy": "350.00", "qty_buying": 4},
    {"id": 2, "sku": "M11-149", "url": "mtg/magic-2011/lightning-bolt", "name": "Lightning Bolt", "variation": "", "edition": "Magic 2011", "is_foil": "false", "price_retail": "1.99", "qty_retail": 20, "price_buy": "0.90", "qty_buying": 40},
    {"id": 3, "sku": "FM11-149", "url": "mtg/magic-2011-foil/lightning-bolt", "name": "Lightning Bolt", "variation": "", "edition": "Magic 2011", "is_foil": "true", "price_retail": "9.99", "qty_retail": 0, "price_buy": "5.00", "qty_buying": 8},
    {"id": 4, "sku": "APC-131", "url": "mtg/apocalypse/fire-ice", "name": "Fire // Ice", "variation": "", "edition": "Apocalypse", "is_foil": "false", "price_retail": "bogus", "qty_retail": 3, "price_buy": "0.25", "qty_buying": 10},
    {"id": 5, "sku": "ICE-1", "url": "", "name": "Lim-Dûl's Vault", "variation": "", "edition": "Alliances", "is_foil": "false", "price_retail": "0.49", "qty_retail": 7, "price_buy": "0.05", "qty_buying": 1},
    {"id": 6, "sku": "", "url": "", "name": " ", "variation": "", "edition": "Nothing", "is_foil": "false", "price_retail": "0", "qty_retail": 0, "price_buy": "0", "qty_buying": 0}
  ]
}`

// newListServer serves body as the price list and counts requests.
func newListServer(t *testing.T, status *atomic.Int32, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != nil && status.Load() != 0 {
			w.WriteHeader(int(status.Load()))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Prices
// ---------------------------------------------------------------------------

func Test_Prices_SortedNonFoilFirst(t *testing.T) {
	t.Parallel()

	srv, _ := newListServer(t, nil, testList)
	c := New(WithURL(srv.URL), WithRetryMax(0))

	got, err := c.Prices(context.Background(), "lightning bolt")
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Prices() returned %d listings, want 3", len(got))
	}

	wantEditions := []string{"Magic 2011", "Alpha", "Magic 2011"}
	for i, p := range got {
		if p.Edition != wantEditions[i] {
			t.Errorf("Prices()[%d].Edition = %q, want %q", i, p.Edition, wantEditions[i])
		}
	}
	if got[0].Retail != 1.99 || got[0].RetailQty != 20 || got[0].Buy != 0.90 {
		t.Errorf("Prices()[0] = %+v, want retail 1.99 x20, buy 0.90", got[0])
	}
	if !got[2].Foil {
		t.Error("Prices()[2] should be the foil printing")
	}
	if want := "https://www.cardkingdom.com/mtg/magic-2011/lightning-bolt"; got[0].URL != want {
		t.Errorf("Prices()[0].URL = %q, want %q", got[0].URL, want)
	}
}

func Test_Prices_NameForms(t *testing.T) {
	t.Parallel()

	srv, _ := newListServer(t, nil, testList)
	c := New(WithURL(srv.URL), WithRetryMax(0))

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "split card full name", query: "Fire // Ice", want: 1},
		{name: "split card front face", query: "fire", want: 1},
		{name: "accents and punctuation ignored", query: "lim dul's vault", want: 1},
		{name: "unknown card", query: "Black Lotus", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Prices(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Prices(%q) error = %v", tt.query, err)
			}
			if len(got) != tt.want {
				t.Errorf("Prices(%q) returned %d listings, want %d", tt.query, len(got), tt.want)
			}
		})
	}
}

func Test_Prices_MalformedPriceReadsZero(t *testing.T) {
	t.Parallel()

	srv, _ := newListServer(t, nil, testList)
	c := New(WithURL(srv.URL), WithRetryMax(0))

	got, err := c.Prices(context.Background(), "Fire // Ice")
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}
	if len(got) != 1 || got[0].Retail != 0 || got[0].Buy != 0.25 {
		t.Errorf("Prices() = %+v, want retail 0 and buy 0.25", got)
	}
}

func Test_Prices_ReturnsCopy(t *testing.T) {
	t.Parallel()

	srv, _ := newListServer(t, nil, testList)
	c := New(WithURL(srv.URL), WithRetryMax(0))

	first, _ := c.Prices(context.Background(), "Lightning Bolt")
	first[0].Edition = "mutated"
	second, _ := c.Prices(context.Background(), "Lightning Bolt")
	if second[0].Edition == "mutated" {
		t.Error("Prices() exposed the cached slice to callers")
	}
}

// ---------------------------------------------------------------------------
// Caching and refresh
// ---------------------------------------------------------------------------

func Test_Prices_CachesUntilRefresh(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	srv, hits := newListServer(t, nil, testList)
	c := New(WithURL(srv.URL), WithRetryMax(0), WithRefreshInterval(time.Hour), WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		if _, err := c.Prices(context.Background(), "Lightning Bolt"); err != nil {
			t.Fatalf("Prices() error = %v", err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("price list fetched %d times before expiry, want 1", n)
	}

	clock.Advance(time.Hour)
	if _, err := c.Prices(context.Background(), "Lightning Bolt"); err != nil {
		t.Fatalf("Prices() error = %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("price list fetched %d times after expiry, want 2", n)
	}
}

func Test_Prices_StaleListServedOnRefreshFailure(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	var status atomic.Int32
	srv, hits := newListServer(t, &status, testList)
	c := New(WithURL(srv.URL), WithRetryMax(0), WithRefreshInterval(time.Hour), WithClock(clock.Now))

	if _, err := c.Prices(context.Background(), "Lightning Bolt"); err != nil {
		t.Fatalf("Prices() error = %v", err)
	}

	status.Store(http.StatusBadGateway)
	clock.Advance(2 * time.Hour)
	got, err := c.Prices(context.Background(), "Lightning Bolt")
	if err != nil {
		t.Fatalf("Prices() after failed refresh error = %v, want stale prices", err)
	}
	if len(got) != 3 {
		t.Errorf("Prices() after failed refresh returned %d listings, want 3", len(got))
	}

	// The failed refresh is not retried until the backoff passes.
	before := hits.Load()
	_, _ = c.Prices(context.Background(), "Lightning Bolt")
	if hits.Load() != before {
		t.Error("failed refresh was retried before the backoff elapsed")
	}
	clock.Advance(failureBackoff)
	_, _ = c.Prices(context.Background(), "Lightning Bolt")
	if hits.Load() == before {
		t.Error("failed refresh was not retried after the backoff elapsed")
	}
}

func Test_Prices_FirstLoadFailure(t *testing.T) {
	t.Parallel()

	var status atomic.Int32
	status.Store(http.StatusNotFound)
	srv, _ := newListServer(t, &status, testList)
	c := New(WithURL(srv.URL), WithRetryMax(0))

	if _, err := c.Prices(context.Background(), "Lightning Bolt"); err == nil {
		t.Fatal("Prices() with no list available should return error")
	}
}

func Test_Prices_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv, _ := newListServer(t, nil, `{"data": [`)
	c := New(WithURL(srv.URL), WithRetryMax(0))

	if _, err := c.Prices(context.Background(), "Lightning Bolt"); err == nil {
		t.Fatal("Prices() with a truncated list should return error")
	}
}

func Test_Prices_ConcurrentCallersShareDownload(t *testing.T) {
	t.Parallel()

	srv, hits := newListServer(t, nil, testList)
	c := New(WithURL(srv.URL), WithRetryMax(0))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Prices(context.Background(), "Lightning Bolt"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Prices() error = %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("price list fetched %d times, want 1", n)
	}
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

func Test_BuildIndex_SkipsBlankNames(t *testing.T) {
	t.Parallel()

	var list priceList
	if err := json.Unmarshal([]byte(testList), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	idx := buildIndex(&list)
	if _, ok := idx[""]; ok {
		t.Error("buildIndex() indexed a listing with a blank name")
	}
	if got := idx["lim duls vault"]; len(got) != 1 || got[0].URL != "" {
		t.Errorf("idx[lim duls vault] = %+v, want one listing without a URL", got)
	}
}
