package cache

import (
	"log/slog"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// Policy sets the freshness thresholds for one resource kind.
type Policy struct {
	// MaxAge is how long an entry may be served. Zero means entries never go
	// stale and are only replaced by a forced refresh or invalidation.
	MaxAge time.Duration

	// RefreshAfter is the age past which serving an entry also starts a
	// background refresh. Zero disables background refresh.
	RefreshAfter time.Duration
}

// IsStale reports whether an entry of the given age must be refetched.
func (p Policy) IsStale(age time.Duration) bool {
	return p.MaxAge > 0 && age >= p.MaxAge
}

// WantsRefresh reports whether serving an entry of the given age should also refresh it.
func (p Policy) WantsRefresh(age time.Duration) bool {
	return p.RefreshAfter > 0 && age >= p.RefreshAfter
}

type options struct {
	logger       *slog.Logger
	observer     domain.Observer
	clock        func() time.Time
	fetchTimeout time.Duration
}

// Option configures a Loader.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithObserver(observer domain.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithFetchTimeout bounds each network fetch. Zero disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) { o.fetchTimeout = d }
}
