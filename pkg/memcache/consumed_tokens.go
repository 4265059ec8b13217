package mem

import (
	"sync"
	"time"
)

// ConsumedTokenStore remembers refresh-credential ids that have already been
// rotated, until the credential itself would have expired.
type ConsumedTokenStore interface {
	// Consume marks id as used until expiresAt. It returns false if id was
	// already consumed and has not yet expired.
	Consume(id string, expiresAt time.Time) bool

	// Seen reports whether id is currently marked as consumed.
	Seen(id string) bool
}

type ConsumedTokens struct {
	mu   sync.Mutex
	data map[string]time.Time
	now  func() time.Time
}

func NewConsumedTokens() *ConsumedTokens {
	return &ConsumedTokens{
		data: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (s *ConsumedTokens) Consume(id string, expiresAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.data[id]; ok && now.Before(exp) {
		return false
	}
	s.data[id] = expiresAt
	return true
}

func (s *ConsumedTokens) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.data[id]
	if !ok {
		return false
	}
	if !s.now().Before(exp) {
		delete(s.data, id) // cleanup expired
		return false
	}
	return true
}

// Purge drops every entry whose credential has expired and returns how many
// were removed.
func (s *ConsumedTokens) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, exp := range s.data {
		if !now.Before(exp) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}
