package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 30 * time.Second

// FetchFunc performs the network fetch for one resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is a loaded value and where it came from.
type Result[T any] struct {
	Value     T
	FromCache bool
	FetchedAt time.Time // Write timestamp of the cache entry or time of the fetch
}

// Age returns how old the value is at now.
func (r Result[T]) Age(now time.Time) time.Duration {
	return now.Sub(r.FetchedAt)
}

type flightResult[T any] struct {
	value     T
	fetchedAt time.Time
	written   bool // false when the result did not reach the cache
}

// Loader implements the cache-first policy for one resource kind.
//
// Cached entries are served while younger than Policy.MaxAge; past
// Policy.RefreshAfter they are still served but a background fetch replaces
// them. All fetches for a key share one in-flight call until the key is
// invalidated; later loads start a new call.
type Loader[T any] struct {
	kind         domain.ResourceKind
	store        domain.KeyValueStore
	policy       Policy
	logger       *slog.Logger
	observer     domain.Observer
	now          func() time.Time
	fetchTimeout time.Duration

	group singleflight.Group

	// Lifetime of background work; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool

	mu         sync.Mutex
	states     map[string]domain.LoadState
	epochs     map[string]uint64
	generation uint64
	refreshing map[string]bool
}

// New creates a loader for kind backed by store.
func New[T any](kind domain.ResourceKind, store domain.KeyValueStore, policy Policy, opts ...Option) *Loader[T] {
	o := options{
		logger:       slog.Default(),
		observer:     domain.NoOpObserver{},
		clock:        time.Now,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Loader[T]{
		kind:         kind,
		store:        store,
		policy:       policy,
		logger:       o.logger.With("kind", string(kind)),
		observer:     o.observer,
		now:          o.clock,
		fetchTimeout: o.fetchTimeout,
		ctx:          ctx,
		cancel:       cancel,
		states:       make(map[string]domain.LoadState),
		epochs:       make(map[string]uint64),
		refreshing:   make(map[string]bool),
	}
}

// Kind returns the resource kind this loader serves.
func (l *Loader[T]) Kind() domain.ResourceKind { return l.kind }

// Load returns the value for key, from cache when fresh and from fetch otherwise.
// force bypasses the cache and always rewrites it on success.
// A failed fetch never touches the cached entry.
func (l *Loader[T]) Load(ctx context.Context, key string, force bool, fetch FetchFunc[T]) (Result[T], error) {
	if l.isClosed() {
		return Result[T]{}, domain.ErrLoaderClosed
	}
	if err := domain.ValidateKey(key); err != nil {
		return Result[T]{}, err
	}

	if !force {
		if cached, ok := l.read(key); ok {
			age := cached.Age(l.now())
			if !l.policy.IsStale(age) {
				l.logger.Debug("cache hit", "key", key, "age", age)
				l.setState(key, domain.StateLoaded, true, nil)
				if l.policy.WantsRefresh(age) {
					l.refreshInBackground(key, fetch)
				}
				return cached, nil
			}
			l.logger.Debug("cache stale", "key", key, "age", age, "maxAge", l.policy.MaxAge)
		}
	}

	l.setState(key, domain.StateLoading, false, nil)

	fr, err := l.fetch(ctx, key, fetch)
	if err != nil {
		l.logger.Error("load failed", "error", err, "key", key, "force", force)
		l.setState(key, domain.StateError, false, err)
		return Result[T]{}, err
	}

	l.setState(key, domain.StateLoaded, false, nil)
	return Result[T]{Value: fr.value, FetchedAt: fr.fetchedAt}, nil
}

// Peek returns the cached entry for key regardless of age. Never touches the network.
func (l *Loader[T]) Peek(key string) (Result[T], bool) {
	return l.read(key)
}

// State returns the current load state for key.
func (l *Loader[T]) State(key string) domain.LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[key]
}

// Invalidate removes the cached entry for key. The next load for key is a miss,
// and a fetch already in flight for key will not write its result.
func (l *Loader[T]) Invalidate(key string) error {
	if err := domain.ValidateKey(key); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.epochs[key]++
	delete(l.states, key)

	if err := l.store.Remove(l.kind.DataKey(key)); err != nil {
		return fmt.Errorf("failed to remove %s cache for %s: %w", l.kind, key, err)
	}
	if err := l.store.Remove(l.kind.TimestampKey(key)); err != nil {
		return fmt.Errorf("failed to remove %s timestamp for %s: %w", l.kind, key, err)
	}
	l.logger.Debug("invalidated", "key", key)
	return nil
}

// InvalidateAll removes every cached entry of this kind. Fetches in flight
// keep their callers but no longer write or accept new joiners.
func (l *Loader[T]) InvalidateAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.generation++
	l.states = make(map[string]domain.LoadState)

	if err := l.store.RemovePrefix(l.kind.TimestampPrefix()); err != nil {
		return fmt.Errorf("failed to clear %s timestamps: %w", l.kind, err)
	}
	if err := l.store.RemovePrefix(l.kind.CachePrefix()); err != nil {
		return fmt.Errorf("failed to clear %s cache: %w", l.kind, err)
	}
	l.logger.Debug("invalidated all")
	return nil
}

// Close cancels background refreshes and waits for them to finish.
// Observers are not notified after Close returns.
func (l *Loader[T]) Close() {
	l.closeMu.Lock()
	if l.closed {
		l.closeMu.Unlock()
		return
	}
	l.closed = true
	l.closeMu.Unlock()

	l.cancel()
	l.wg.Wait()
}

// fetch runs fetch through the flight for key's current epoch. The shared call
// runs under the loader's lifetime; ctx only bounds how long this caller waits.
func (l *Loader[T]) fetch(ctx context.Context, key string, fetch FetchFunc[T]) (flightResult[T], error) {
	epoch := l.epoch(key)
	flight := key + "#" + strconv.FormatUint(epoch, 10)

	ch := l.group.DoChan(flight, func() (any, error) {
		return l.runFetch(key, epoch, fetch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return flightResult[T]{}, res.Err
		}
		if res.Shared {
			l.logger.Debug("joined in-flight fetch", "key", key)
		}
		return res.Val.(flightResult[T]), nil
	case <-ctx.Done():
		return flightResult[T]{}, ctx.Err()
	}
}

func (l *Loader[T]) runFetch(key string, epoch uint64, fetch FetchFunc[T]) (any, error) {
	if !l.track() {
		return nil, domain.ErrLoaderClosed
	}
	defer l.wg.Done()

	ctx, cancel := l.fetchContext()
	defer cancel()

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	fetchedAt := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.epochLocked(key) != epoch {
		l.logger.Debug("discarding fetch result invalidated in flight", "key", key)
		return flightResult[T]{value: value, fetchedAt: fetchedAt}, nil
	}
	if err := l.write(key, value, fetchedAt); err != nil {
		// The fetched value is still good for the caller
		l.logger.Error("failed to write cache", "error", err, "key", key)
		return flightResult[T]{value: value, fetchedAt: fetchedAt}, nil
	}
	return flightResult[T]{value: value, fetchedAt: fetchedAt, written: true}, nil
}

func (l *Loader[T]) fetchContext() (context.Context, context.CancelFunc) {
	if l.fetchTimeout > 0 {
		return context.WithTimeout(l.ctx, l.fetchTimeout)
	}
	return context.WithCancel(l.ctx)
}

// refreshInBackground starts at most one background refresh per key.
func (l *Loader[T]) refreshInBackground(key string, fetch FetchFunc[T]) {
	l.mu.Lock()
	if l.refreshing[key] {
		l.mu.Unlock()
		return
	}
	l.refreshing[key] = true
	l.mu.Unlock()

	if !l.track() {
		l.clearRefreshing(key)
		return
	}

	l.logger.Debug("background refresh", "key", key)

	go func() {
		defer l.wg.Done()
		defer l.clearRefreshing(key)

		fr, err := l.fetch(l.ctx, key, fetch)
		if l.ctx.Err() != nil {
			return
		}
		if err != nil {
			l.logger.Warn("background refresh failed", "error", err, "key", key)
			l.notify(domain.ResourceEvent{Key: key, State: l.State(key), Background: true, Err: err})
			return
		}
		if !fr.written {
			l.logger.Debug("background refresh not cached", "key", key)
			return
		}
		l.setState(key, domain.StateLoaded, false, nil)
		l.notify(domain.ResourceEvent{Key: key, State: domain.StateLoaded, Background: true})
	}()
}

func (l *Loader[T]) clearRefreshing(key string) {
	l.mu.Lock()
	delete(l.refreshing, key)
	l.mu.Unlock()
}

// track registers one unit of background work unless the loader is closed.
func (l *Loader[T]) track() bool {
	l.closeMu.RLock()
	defer l.closeMu.RUnlock()
	if l.closed {
		return false
	}
	l.wg.Add(1)
	return true
}

func (l *Loader[T]) isClosed() bool {
	l.closeMu.RLock()
	defer l.closeMu.RUnlock()
	return l.closed
}

func (l *Loader[T]) epoch(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epochLocked(key)
}

// epochLocked changes whenever key or the whole kind is invalidated.
// Both counters only grow, so an epoch value is never reused for a key.
func (l *Loader[T]) epochLocked(key string) uint64 {
	return l.generation + l.epochs[key]
}

// setState records a transition and notifies the observer.
func (l *Loader[T]) setState(key string, state domain.LoadState, fromCache bool, err error) {
	l.mu.Lock()
	l.states[key] = state
	l.mu.Unlock()

	l.notify(domain.ResourceEvent{Key: key, State: state, FromCache: fromCache, Err: err})
}

func (l *Loader[T]) notify(event domain.ResourceEvent) {
	l.closeMu.RLock()
	defer l.closeMu.RUnlock()
	if l.closed {
		return
	}
	event.Kind = l.kind
	l.observer.OnResourceEvent(event)
}

func (l *Loader[T]) read(key string) (Result[T], bool) {
	rawTS, ok := l.store.Get(l.kind.TimestampKey(key))
	if !ok {
		return Result[T]{}, false
	}
	ms, err := strconv.ParseInt(string(rawTS), 10, 64)
	if err != nil {
		l.logger.Warn("corrupt cache timestamp", "key", key, "error", err)
		return Result[T]{}, false
	}

	data, ok := l.store.Get(l.kind.DataKey(key))
	if !ok {
		return Result[T]{}, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		l.logger.Warn("corrupt cache entry", "key", key, "error", err)
		return Result[T]{}, false
	}

	return Result[T]{Value: value, FromCache: true, FetchedAt: time.UnixMilli(ms)}, true
}

// write stores the blob before its timestamp so a torn write reads as a miss
// or as the previous timestamp, never as a timestamp without data.
func (l *Loader[T]) write(key string, value T, fetchedAt time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", l.kind, err)
	}
	if err := l.store.Set(l.kind.DataKey(key), data); err != nil {
		return err
	}
	ts := strconv.FormatInt(fetchedAt.UnixMilli(), 10)
	return l.store.Set(l.kind.TimestampKey(key), []byte(ts))
}
