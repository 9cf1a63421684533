// Package codestore keeps email verification codes in process memory.
// Entries are single-use and expire after a fixed TTL. The clock is
// injectable so expiry is deterministic under test.
package codestore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// DefaultTTL matches the 10-minute window promised in the verification email.
const DefaultTTL = 10 * time.Minute

var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code mismatch")
)

type entry struct {
	code      string
	name      string
	expiresAt time.Time
}

// Store is a TTL map keyed by email. Codes survive neither a restart nor
// a second instance; a user whose code is lost simply requests a new one.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTTL overrides the code lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New builds an empty Store with the default TTL and wall clock.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates a six-digit code for the email, replacing any previous one,
// and remembers the display name supplied at request time.
func (s *Store) Issue(email, name string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = entry{
		code:      code,
		name:      name,
		expiresAt: s.now().Add(s.ttl),
	}
	return code, nil
}

// Consume validates the code for the email. On success the entry is removed
// (a code is accepted at most once) and the stored name is returned.
// Expired entries are removed as well; a mismatched code stays so the user
// may retype it.
func (s *Store) Consume(email, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return "", ErrCodeNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, email)
		return "", ErrCodeExpired
	}
	if e.code != code {
		return "", ErrCodeMismatch
	}

	delete(s.entries, email)
	return e.name, nil
}

// generateCode draws a uniform 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
