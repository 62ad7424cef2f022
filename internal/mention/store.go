// Package mention keeps a bounded, thread-safe history of the cards mentioned
// in each Discord channel.
package mention

import (
	"context"
	"sync"
	"time"

	"github.com/jamesprial/grimoire-mcp/internal/card"
)

// Record associates a channel with a card mentioned in it.
type Record struct {
	ChannelID   string    `yaml:"channel_id"`
	Card        card.Card `yaml:"card"`
	MentionedAt time.Time `yaml:"mentioned_at"`
}

// Option is a functional option for configuring a Store.
type Option func(*Store)

// WithMaxSize sets the maximum number of records the store retains.
// Values of zero or less are ignored; the default of 1000 is used instead.
func WithMaxSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithClock overrides the time source used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a ring buffer of mention records. Several records for the same
// channel may coexist; lookups always return the newest one. When the buffer
// is full the oldest record is dropped to make room.
type Store struct {
	mu      sync.RWMutex
	buf     []Record
	head    int
	count   int
	maxSize int
	now     func() time.Time
}

// New constructs a Store with the provided options applied. The default
// maximum size is 1000 records.
func New(opts ...Option) *Store {
	s := &Store{
		maxSize: 1000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buf = make([]Record, s.maxSize)
	return s
}

// Record appends a mention of c in channelID.
func (s *Store) Record(channelID string, c card.Card) {
	s.append(Record{ChannelID: channelID, Card: c, MentionedAt: s.now()})
}

// append adds rec at the tail, dropping the oldest record when full.
func (s *Store) append(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == s.maxSize {
		s.head = (s.head + 1) % s.maxSize
		s.count--
	}
	tail := (s.head + s.count) % s.maxSize
	s.buf[tail] = rec
	s.count++
}

// FindMostRecent returns the card of the newest record for channelID. The
// boolean is false when the channel has no recorded mention. The in-memory
// store never fails; the error return lets it stand in for persistent stores.
func (s *Store) FindMostRecent(ctx context.Context, channelID string) (card.Card, bool, error) {
	if err := ctx.Err(); err != nil {
		return card.Card{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := s.count - 1; i >= 0; i-- {
		rec := s.buf[(s.head+i)%s.maxSize]
		if rec.ChannelID == channelID {
			return rec.Card, true, nil
		}
	}
	return card.Card{}, false, nil
}

// Records returns a copy of all retained records, oldest first.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%s.maxSize]
	}
	return out
}

// Len returns the number of retained records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
