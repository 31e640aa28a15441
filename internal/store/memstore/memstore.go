package memstore

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	sessionID string
	expires   time.Time
}

// Store is the in-process binding store used when no Redis address is
// configured. Bindings are lost on restart.
type Store struct {
	mu  sync.Mutex
	m   map[string]entry
	ttl time.Duration
	now func() time.Time
}

func New(ttl time.Duration) *Store {
	return &Store{m: make(map[string]entry), ttl: ttl, now: time.Now}
}

// Lookup returns the session bound to key. A hit refreshes the TTL;
// expired entries are dropped on access.
func (s *Store) Lookup(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok {
		return "", false, nil
	}
	now := s.now()
	if s.ttl > 0 && now.After(e.expires) {
		delete(s.m, key)
		return "", false, nil
	}
	e.expires = now.Add(s.ttl)
	s.m[key] = e
	return e.sessionID, true, nil
}

func (s *Store) Bind(_ context.Context, key, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = entry{sessionID: sessionID, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *Store) Unbind(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
