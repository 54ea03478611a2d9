// Package session keeps the per-playback state needed to fetch HLS segments:
// the SID store and the segment interceptor that feeds it.
package session

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LinkKey identifies a resolved link in the store
func LinkKey(linkURL string) uint64 {
	return xxhash.Sum64String(linkURL)
}

// Store maps link keys to session ids. It is safe for concurrent use,
// holds at most size entries and forgets entries older than ttl.
type Store struct {
	entries *expirable.LRU[uint64, string]
}

// NewStore creates a bounded store. A ttl of zero disables expiry.
func NewStore(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 1
	}
	return &Store{
		entries: expirable.NewLRU[uint64, string](size, nil, ttl),
	}
}

// Get returns the session id stored for key
func (s *Store) Get(key uint64) (string, bool) {
	return s.entries.Get(key)
}

// Set stores sid for key, replacing any previous value
func (s *Store) Set(key uint64, sid string) {
	s.entries.Add(key, sid)
}

// Len returns the number of live entries
func (s *Store) Len() int {
	return s.entries.Len()
}

// Purge drops every entry
func (s *Store) Purge() {
	s.entries.Purge()
}
