package eventlog

import (
	"context"
	"time"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

const (
	DefaultQueryLimit = 1000
	MaxQueryLimit     = 10000
)

// Sink persists or forwards a batch of events.
type Sink interface {
	Name() string
	Write(ctx context.Context, events []models.Event) error
}

// Querier reads events back, newest first.
type Querier interface {
	Query(ctx context.Context, f Filter) ([]models.Event, error)
}

// Filter selects events for Query. Zero values mean no constraint; Start and
// End are inclusive.
type Filter struct {
	Start *time.Time
	End   *time.Time
	Kinds []models.LogKind
	Limit int
}

// limit returns the effective row limit.
func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultQueryLimit
	case f.Limit > MaxQueryLimit:
		return MaxQueryLimit
	default:
		return f.Limit
	}
}

func (f Filter) matches(e models.Event) bool {
	if f.Start != nil && e.OccurredAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.OccurredAt.After(*f.End) {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if e.Kind == k {
			return true
		}
	}
	return false
}

type Config struct {
	BufferSize   int
	BatchSize    int
	MaxRetries   int
	RetryDelay   time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize:   1024,
		BatchSize:    64,
		MaxRetries:   3,
		RetryDelay:   500 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
}
