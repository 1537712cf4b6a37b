package domain

// KeyValueStore is the process-wide persisted key-value store.
// Cached resource blobs, their timestamps, credentials and feature flags all live here.
type KeyValueStore interface {
	// Get returns a copy of the stored value and whether the key exists.
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Remove(key string) error
	// RemovePrefix deletes every key starting with prefix.
	RemovePrefix(prefix string) error

	Close() error
}
