package resolve_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jamesprial/grimoire-mcp/internal/card"
	"github.com/jamesprial/grimoire-mcp/internal/mention"
	"github.com/jamesprial/grimoire-mcp/internal/resolve"
	"github.com/jamesprial/grimoire-mcp/internal/testutil"
)

const (
	noReferenceMsg  = "Please either specify a card name, or make sure to mention a card using an inline reference beforehand."
	ambiguousPrefix = "There were too many results for **'card name'**. Did you perhaps mean to pick any of the following?"
)

// ---------------------------------------------------------------------------
// Implicit references
// ---------------------------------------------------------------------------

func Test_ObtainRecentOrSpecified_RecentCard(t *testing.T) {
	t.Parallel()

	store := mention.New()
	store.Record("channel id", card.Card{Name: "Bolt"})
	lookup := &testutil.MockCardLookup{}
	r := resolve.New(store, lookup, nil)

	got, err := r.ObtainRecentOrSpecified(context.Background(), "", "channel id")
	if err != nil {
		t.Fatalf("ObtainRecentOrSpecified() error = %v", err)
	}
	if got.Name != "Bolt" {
		t.Errorf("ObtainRecentOrSpecified().Name = %q, want %q", got.Name, "Bolt")
	}
	if n := len(lookup.Queries()); n != 0 {
		t.Errorf("lookup received %d queries for an implicit reference, want 0", n)
	}
}

func Test_ObtainRecentOrSpecified_MostRecentOfSeveral(t *testing.T) {
	t.Parallel()

	store := mention.New()
	store.Record("c1", card.Card{Name: "Shock"})
	store.Record("c2", card.Card{Name: "Counterspell"})
	store.Record("c1", card.Card{Name: "Bolt"})
	r := resolve.New(store, &testutil.MockCardLookup{}, nil)

	got, err := r.ObtainRecentOrSpecified(context.Background(), "", "c1")
	if err != nil {
		t.Fatalf("ObtainRecentOrSpecified() error = %v", err)
	}
	if got.Name != "Bolt" {
		t.Errorf("ObtainRecentOrSpecified().Name = %q, want %q", got.Name, "Bolt")
	}
}

func Test_ObtainRecentOrSpecified_BlankNameIsImplicit(t *testing.T) {
	t.Parallel()

	store := mention.New()
	store.Record("c1", card.Card{Name: "Bolt"})
	lookup := &testutil.MockCardLookup{}
	r := resolve.New(store, lookup, nil)

	got, err := r.ObtainRecentOrSpecified(context.Background(), "   ", "c1")
	if err != nil {
		t.Fatalf("ObtainRecentOrSpecified() error = %v", err)
	}
	if got.Name != "Bolt" {
		t.Errorf("ObtainRecentOrSpecified().Name = %q, want %q", got.Name, "Bolt")
	}
	if n := len(lookup.Queries()); n != 0 {
		t.Errorf("lookup received %d queries for a blank name, want 0", n)
	}
}

func Test_ObtainRecentOrSpecified_NoRecentCard(t *testing.T) {
	t.Parallel()

	store := mention.New()
	store.Record("channel id", card.Card{Name: "Bolt"})
	r := resolve.New(store, &testutil.MockCardLookup{}, nil)

	_, err := r.ObtainRecentOrSpecified(context.Background(), "", "channel id2")
	if err == nil {
		t.Fatal("ObtainRecentOrSpecified() expected error, got nil")
	}
	if err.Error() != noReferenceMsg {
		t.Errorf("error = %q, want %q", err.Error(), noReferenceMsg)
	}
	if resolve.KindOf(err) != resolve.NoImplicitReference {
		t.Errorf("KindOf(err) = %v, want %v", resolve.KindOf(err), resolve.NoImplicitReference)
	}
}

func Test_ObtainRecentOrSpecified_MentionStoreError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store offline")
	mentions := &testutil.MockMentionFinder{
		FindMostRecentFunc: func(ctx context.Context, channelID string) (card.Card, bool, error) {
			return card.Card{}, false, storeErr
		},
	}
	r := resolve.New(mentions, &testutil.MockCardLookup{}, nil)

	_, err := r.ObtainRecentOrSpecified(context.Background(), "", "c1")
	if !errors.Is(err, storeErr) {
		t.Fatalf("error = %v, want wrapped %v", err, storeErr)
	}
	if resolve.IsResolution(err) {
		t.Error("store errors must not be reported as resolution errors")
	}
}

// ---------------------------------------------------------------------------
// Named lookups
// ---------------------------------------------------------------------------

func Test_ObtainRecentOrSpecified_QueriesLookupVerbatim(t *testing.T) {
	t.Parallel()

	lookup := &testutil.MockCardLookup{Results: map[string][]card.Card{
		"card name": {{Name: "card name"}},
	}}
	mentions := &testutil.MockMentionFinder{}
	r := resolve.New(mentions, lookup, nil)

	got, err := r.ObtainRecentOrSpecified(context.Background(), "card name", "channel id")
	if err != nil {
		t.Fatalf("ObtainRecentOrSpecified() error = %v", err)
	}
	if got.Name != "card name" {
		t.Errorf("ObtainRecentOrSpecified().Name = %q, want %q", got.Name, "card name")
	}

	queries := lookup.Queries()
	if len(queries) != 1 {
		t.Fatalf("lookup received %d queries, want exactly 1", len(queries))
	}
	if queries[0] != (card.Query{Name: "card name"}) {
		t.Errorf("query = %+v, want %+v", queries[0], card.Query{Name: "card name"})
	}
	if n := len(mentions.Calls()); n != 0 {
		t.Errorf("mention store consulted %d times for a named lookup, want 0", n)
	}
}

func Test_ObtainRecentOrSpecified_NameNotTrimmed(t *testing.T) {
	t.Parallel()

	lookup := &testutil.MockCardLookup{}
	r := resolve.New(&testutil.MockMentionFinder{}, lookup, nil)

	_, _ = r.ObtainRecentOrSpecified(context.Background(), " Bolt ", "c1")

	queries := lookup.Queries()
	if len(queries) != 1 || queries[0].Name != " Bolt " {
		t.Errorf("queries = %+v, want one query with name %q", queries, " Bolt ")
	}
}

func Test_ObtainRecentOrSpecified_NoResults(t *testing.T) {
	t.Parallel()

	lookup := &testutil.MockCardLookup{Results: map[string][]card.Card{"card name": {}}}
	r := resolve.New(&testutil.MockMentionFinder{}, lookup, nil)

	_, err := r.ObtainRecentOrSpecified(context.Background(), "card name", "channel id")
	if err == nil {
		t.Fatal("ObtainRecentOrSpecified() expected error, got nil")
	}
	want := "I could not find any results for **'card name'**!"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
	if resolve.KindOf(err) != resolve.NotFound {
		t.Errorf("KindOf(err) = %v, want %v", resolve.KindOf(err), resolve.NotFound)
	}
}

func Test_ObtainRecentOrSpecified_MultipleResults(t *testing.T) {
	t.Parallel()

	lookup := &testutil.MockCardLookup{Results: map[string][]card.Card{
		"card name": {{Name: "card 1"}, {Name: "card 2"}},
	}}
	r := resolve.New(&testutil.MockMentionFinder{}, lookup, nil)

	_, err := r.ObtainRecentOrSpecified(context.Background(), "card name", "channel id")
	if err == nil {
		t.Fatal("ObtainRecentOrSpecified() expected error, got nil")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, ambiguousPrefix) {
		t.Errorf("error = %q, want prefix %q", msg, ambiguousPrefix)
	}
	for _, name := range []string{"card 1", "card 2"} {
		if !strings.Contains(msg, name) {
			t.Errorf("error = %q, want it to list %q", msg, name)
		}
	}

	var re *resolve.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("error %T is not a *ResolutionError", err)
	}
	if re.Kind != resolve.Ambiguous || len(re.Candidates) != 2 {
		t.Errorf("ResolutionError = %+v, want Ambiguous with 2 candidates", re)
	}
}

func Test_ObtainRecentOrSpecified_LookupError(t *testing.T) {
	t.Parallel()

	lookupErr := errors.New("catalog unavailable")
	lookup := &testutil.MockCardLookup{
		WhereFunc: func(ctx context.Context, q card.Query) ([]card.Card, error) {
			return nil, lookupErr
		},
	}
	r := resolve.New(&testutil.MockMentionFinder{}, lookup, nil)

	_, err := r.ObtainRecentOrSpecified(context.Background(), "Bolt", "c1")
	if !errors.Is(err, lookupErr) {
		t.Fatalf("error = %v, want wrapped %v", err, lookupErr)
	}
	if resolve.IsResolution(err) {
		t.Error("lookup errors must not be reported as resolution errors")
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func Test_ObtainRecentOrSpecified_ConcurrentCallers(t *testing.T) {
	t.Parallel()

	const workers = 8
	const rounds = 50

	store := mention.New(mention.WithMaxSize(workers * rounds))
	lookup := &testutil.MockCardLookup{Results: map[string][]card.Card{
		"Opt": {{Name: "Opt"}},
	}}
	r := resolve.New(store, lookup, nil)
	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds*2)

	for w := 0; w < workers; w++ {
		channelID := fmt.Sprintf("c%d", w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				store.Record(channelID, card.Card{Name: channelID})

				got, err := r.ObtainRecentOrSpecified(context.Background(), "", channelID)
				if err != nil {
					errs <- err
				} else if got.Name != channelID {
					errs <- fmt.Errorf("channel %s resolved to %q", channelID, got.Name)
				}

				if got, err := r.ObtainRecentOrSpecified(context.Background(), "Opt", channelID); err != nil || got.Name != "Opt" {
					errs <- fmt.Errorf("named lookup = %q, %v", got.Name, err)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if n := len(lookup.Queries()); n != workers*rounds {
		t.Errorf("lookup received %d queries, want %d", n, workers*rounds)
	}
}

// ---------------------------------------------------------------------------
// ResolutionError
// ---------------------------------------------------------------------------

func Test_ResolutionError_AmbiguousCapsCandidates(t *testing.T) {
	t.Parallel()

	var names []string
	for i := 0; i < 14; i++ {
		names = append(names, fmt.Sprintf("card %d", i))
	}
	err := &resolve.ResolutionError{Kind: resolve.Ambiguous, Name: "card", Candidates: names}
	msg := err.Error()

	if !strings.Contains(msg, " - card 9") {
		t.Errorf("message should list the tenth candidate: %q", msg)
	}
	if strings.Contains(msg, " - card 10") {
		t.Errorf("message should not list the eleventh candidate: %q", msg)
	}
	if !strings.HasSuffix(msg, "...and 4 more") {
		t.Errorf("message should end with the remainder count: %q", msg)
	}
}

func Test_KindOf_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want resolve.Kind
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain error", err: errors.New("x"), want: 0},
		{name: "direct", err: &resolve.ResolutionError{Kind: resolve.NotFound}, want: resolve.NotFound},
		{name: "wrapped", err: fmt.Errorf("outer: %w", &resolve.ResolutionError{Kind: resolve.Ambiguous}), want: resolve.Ambiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := resolve.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_Kind_String(t *testing.T) {
	t.Parallel()

	if got := resolve.Ambiguous.String(); got != "ambiguous" {
		t.Errorf("Ambiguous.String() = %q, want %q", got, "ambiguous")
	}
	if got := resolve.Kind(42).String(); got != "kind(42)" {
		t.Errorf("Kind(42).String() = %q, want %q", got, "kind(42)")
	}
}
