package domain

import (
	"fmt"
	"strings"
)

// OwnProfileKey is the resource key for the signed-in user's own profile.
const OwnProfileKey = "own_profile"

// KeyFor derives the resource key for a profile screen.
// An empty viewedUserID means the signed-in user's own profile.
func KeyFor(viewedUserID string) string {
	if viewedUserID == "" {
		return OwnProfileKey
	}
	return viewedUserID
}

// "profile_cache_" + "timestamp_<key>" is the profile timestamp of <key>
const reservedKeyPrefix = "timestamp_"

// ValidateKey rejects resource keys that are empty or could collide with a
// timestamp entry of another key.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, reservedKeyPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// ResourceKind identifies one of the cached resources behind a profile screen
type ResourceKind string

const (
	KindProfile   ResourceKind = "profile"
	KindVideos    ResourceKind = "videos"
	KindFollowers ResourceKind = "followers"
)

// Kinds lists every cached resource kind
func Kinds() []ResourceKind {
	return []ResourceKind{KindProfile, KindVideos, KindFollowers}
}

// CachePrefix returns the KV namespace holding this kind's data blobs.
func (k ResourceKind) CachePrefix() string {
	switch k {
	case KindProfile:
		return "profile_cache_"
	case KindVideos:
		return "profile_videos_cache_"
	case KindFollowers:
		return "profile_followers_cache_"
	default:
		return string(k) + "_cache_"
	}
}

// TimestampPrefix returns the KV namespace holding this kind's write timestamps.
func (k ResourceKind) TimestampPrefix() string {
	switch k {
	case KindProfile:
		return "profile_cache_timestamp_"
	case KindVideos:
		return "profile_videos_cache_timestamp_"
	case KindFollowers:
		return "profile_followers_cache_timestamp_"
	default:
		return string(k) + "_cache_timestamp_"
	}
}

// DataKey returns the KV key of the cached blob for a resource key
func (k ResourceKind) DataKey(key string) string { return k.CachePrefix() + key }

// TimestampKey returns the KV key of the write timestamp for a resource key
func (k ResourceKind) TimestampKey(key string) string { return k.TimestampPrefix() + key }

// LoadState is the observable load status of one resource
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateError
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ResourceEvent reports a load state change for one (kind, key) pair.
// Observers re-read values through the cache-only queries.
type ResourceEvent struct {
	Kind       ResourceKind
	Key        string
	State      LoadState
	FromCache  bool  // Value was served from the local cache
	Background bool  // Event comes from a background refresh
	Err        error // Set when State is StateError or a background refresh failed
}

// Observer receives resource events from loaders.
// Implementations must not block; loaders call them on their own goroutines.
type Observer interface {
	OnResourceEvent(event ResourceEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ResourceEvent)

func (f ObserverFunc) OnResourceEvent(event ResourceEvent) { f(event) }

// NoOpObserver discards events (for CLI/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnResourceEvent(ResourceEvent) {}
