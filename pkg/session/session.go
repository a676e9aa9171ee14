/*
 * Xtream-Gateway converts an Xtream-codes IPTV service into anonymized,
 * tokenized stream URLs that never expose provider credentials.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package session maps opaque gateway tokens to upstream credential
// bundles. Sessions live in process memory only: a token minted on one
// instance will not resolve on another, and all sessions are lost on
// restart. That is an accepted deployment constraint, not a bug.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrInvalidToken is returned for tokens that are unknown or expired.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidToken = errors.New("invalid or expired session token")

// Credentials is the upstream credential bundle a token resolves to.
type Credentials struct {
	// ServerURL is the provider base URL, normalized without trailing
	// slashes.
	ServerURL string
	Username  string
	Password  string
}

type entry struct {
	creds     Credentials
	expiresAt time.Time
}

// Store is a concurrency-safe in-memory token store. Sessions are
// immutable once created: there is no update or delete-by-token
// operation, only expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStore creates an empty store whose sessions expire ttl after
// creation.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]entry),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// Create mints a new token for creds and returns it with its absolute
// expiry time. The token carries 128 bits from crypto/rand, so an
// accidental collision with a live entry is not a realistic concern;
// the loop guards against it anyway.
func (s *Store) Create(creds Credentials) (string, time.Time) {
	creds.ServerURL = strings.TrimRight(creds.ServerURL, "/")
	expiresAt := time.Now().Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	token := newToken()
	for {
		if _, exists := s.sessions[token]; !exists {
			break
		}
		token = newToken()
	}

	s.sessions[token] = entry{creds: creds, expiresAt: expiresAt}
	return token, expiresAt
}

// Resolve returns the credentials bound to token, or ErrInvalidToken.
// Expiry is checked here, at lookup time, so an expired entry that the
// sweeper has not reached yet is still rejected.
func (s *Store) Resolve(token string) (Credentials, error) {
	s.mu.RLock()
	e, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || !time.Now().Before(e.expiresAt) {
		return Credentials{}, ErrInvalidToken
	}
	return e.creds, nil
}

// SweepExpired removes entries whose expiry has passed and reports how
// many were removed. It never removes a not-yet-expired entry and is
// safe to call at any time, including concurrently with reads.
func (s *Store) SweepExpired() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; a broken
		// entropy source is not something we can recover from.
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
