package memory

import (
	"context"
	"sync"
	"time"

	"memecoin-lab/internal/storage"
)

// SessionStateStore is an in-memory implementation of
// storage.SessionStateStore. Expired entries are dropped lazily on read.
type SessionStateStore struct {
	mu   sync.RWMutex
	data map[string]sessionEntry
	now  func() time.Time
}

type sessionEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewSessionStateStore creates a new in-memory session state store.
func NewSessionStateStore() *SessionStateStore {
	return &SessionStateStore{
		data: make(map[string]sessionEntry),
		now:  time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *SessionStateStore) WithClock(now func() time.Time) *SessionStateStore {
	s.now = now
	return s
}

// Set stores a value under key. A zero ttl keeps the value until deleted.
func (s *SessionStateStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := sessionEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = entry
	return nil
}

// Get retrieves the value for key. Returns ErrNotFound when the key is
// absent or expired.
func (s *SessionStateStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.data, key)
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), entry.value...), nil
}

// Delete removes the value for key.
func (s *SessionStateStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

var _ storage.SessionStateStore = (*SessionStateStore)(nil)
