package session

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultMaxEntries = 1024

// Store keeps per-user API credentials in memory. Entries expire after the
// configured TTL and the least recently used entry is evicted when the store
// is full.
type Store struct {
	mu      sync.Mutex
	entries *lru.Cache[int64, entry]
	ttl     time.Duration
}

type entry struct {
	apiKey    string
	expiresAt time.Time
}

func NewStore(maxEntries int, ttl time.Duration) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	// Only fails for a non-positive size.
	entries, _ := lru.New[int64, entry](maxEntries)

	return &Store{
		entries: entries,
		ttl:     ttl,
	}
}

func (s *Store) Get(userID int64, now time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(userID)
	if !ok {
		return "", false
	}

	if now.After(e.expiresAt) {
		s.entries.Remove(userID)

		return "", false
	}

	return e.apiKey, true
}

// Set stores apiKey for the user. A blank key removes the entry.
func (s *Store) Set(userID int64, apiKey string, now time.Time) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		s.Delete(userID)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked(now)
	s.entries.Add(userID, entry{
		apiKey:    apiKey,
		expiresAt: now.Add(s.ttl),
	})
}

func (s *Store) Delete(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries.Remove(userID)
}

// EvictExpired drops expired entries and returns how many were dropped.
func (s *Store) EvictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.evictExpiredLocked(now)
}

func (s *Store) Len() int {
	return s.entries.Len()
}

func (s *Store) evictExpiredLocked(now time.Time) int {
	evicted := 0

	for _, userID := range s.entries.Keys() {
		if e, ok := s.entries.Peek(userID); ok && now.After(e.expiresAt) {
			s.entries.Remove(userID)
			evicted++
		}
	}

	return evicted
}
