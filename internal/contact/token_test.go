package contact

import (
	"testing"
	"time"
)

func TestTokenSingleUse(t *testing.T) {
	s := NewTokenStore(time.Minute)
	token := s.Issue()

	if !s.Consume(token) {
		t.Fatal("fresh token should be accepted")
	}
	if s.Consume(token) {
		t.Fatal("token must be single-use")
	}
}

func TestUnknownTokenRejected(t *testing.T) {
	s := NewTokenStore(time.Minute)
	if s.Consume("never-issued") {
		t.Fatal("unknown token accepted")
	}
	if s.Consume("") {
		t.Fatal("empty token accepted")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	s := NewTokenStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	token := s.Issue()
	now = now.Add(2 * time.Minute)

	if s.Consume(token) {
		t.Fatal("expired token accepted")
	}
}

func TestIssuePrunesExpired(t *testing.T) {
	s := NewTokenStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	stale := s.Issue()
	now = now.Add(2 * time.Minute)
	s.Issue()

	if _, ok := s.tokens[stale]; ok {
		t.Fatal("stale token not pruned")
	}
}
