package contact

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TokenStore hands out single-use session tokens for the contact form.
// Tokens live in process memory only: one per page load, consumed by the
// submit, expired after the TTL. Nothing survives a restart.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenStore(ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenStore{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a new token. Expired entries are pruned on the way so the
// map never grows past the live window.
func (s *TokenStore) Issue() string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	for t, issued := range s.tokens {
		if issued.Before(cutoff) {
			delete(s.tokens, t)
		}
	}
	s.tokens[token] = s.now()
	return token
}

// Consume validates and burns a token. A token is good exactly once and
// only within its TTL.
func (s *TokenStore) Consume(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.tokens[token]
	if !ok {
		return false
	}
	delete(s.tokens, token)
	return s.now().Sub(issued) <= s.ttl
}
