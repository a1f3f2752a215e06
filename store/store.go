// Package store contains the cache entry storage backends.
package store

import "time"

// Entry is a single cached response: the body bytes plus the metadata
// needed to replay it later.
type Entry struct {
	Body        []byte    `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
	ContentType string    `json:"content_type"`
	Binary      bool      `json:"binary"`
}

// Age returns how long ago the entry was created.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// Store persists and retrieves cache entries by key.
//
// Implementations must be thread-safe! Multiple in-flight requests
// will call Get and Put concurrently, and last-writer-wins semantics
// on concurrent Put to the same key are acceptable.
type Store interface {
	// Get returns the entry stored under the given key, if any.
	// Expired entries are still returned; freshness is the caller's
	// concern, not the store's.
	Get(key string) (Entry, bool, error)
	// Put stores the entry under the given key, replacing any
	// previous entry as a whole.
	Put(key string, entry Entry) error
	// Delete removes the entry for the given key.
	// Deleting a key that does not exist is not an error.
	Delete(key string) error
	// Clear removes all entries.
	Clear() error
	// Evict removes all entries created before the given instant and
	// returns the number of entries removed. Failure to remove one
	// entry does not abort the sweep.
	Evict(olderThan time.Time) (int, error)
}
