// Package session holds the credentials of the logged-in operator.
package session

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the credential pair for one logged-in user-agent session.
type Session struct {
	Access    string
	Refresh   string
	UserID    string
	ExpiresAt time.Time // zero when the access token carries no exp claim
}

// New builds a Session, deriving UserID and ExpiresAt from the access token
// claims when userID is empty.
func New(access, refresh, userID string) Session {
	s := Session{Access: access, Refresh: refresh, UserID: strings.TrimSpace(userID)}
	claims := peekClaims(access)
	if s.UserID == "" {
		s.UserID = claims.userID()
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

// Valid reports whether the session carries an access credential.
func (s Session) Valid() bool {
	return s.Access != ""
}

// Rotate returns a copy with a new access credential and, when refresh is
// non-empty, a new refresh credential. The owning user is kept.
func (s Session) Rotate(access, refresh string) Session {
	if refresh == "" {
		refresh = s.Refresh
	}
	next := New(access, refresh, "")
	if s.UserID != "" {
		next.UserID = s.UserID
	}
	return next
}

// Store guards the active Session. The pair is always replaced as a whole.
type Store struct {
	mu      sync.RWMutex
	current Session
}

// Get returns the current session.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace installs next as the active session.
func (s *Store) Replace(next Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
}

// CompareAndReplace installs next only when the stored access credential still
// equals access. It reports whether the swap happened.
func (s *Store) CompareAndReplace(access string, next Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Access != access {
		return false
	}
	s.current = next
	return true
}

// Clear drops the session (logout).
func (s *Store) Clear() {
	s.Replace(Session{})
}

type tokenClaims struct {
	UserID any    `json:"user_id"`
	UID    string `json:"uid"`
	jwt.RegisteredClaims
}

func (c tokenClaims) userID() string {
	switch v := c.UserID.(type) {
	case json.Number:
		return v.String()
	case string:
		if v != "" {
			return v
		}
	}
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// peekClaims reads the claims without verifying the signature. Verification is
// the API's job; the dashboard only wants the owner and the expiry hint.
func peekClaims(raw string) tokenClaims {
	var claims tokenClaims
	if strings.Count(raw, ".") != 2 {
		return claims
	}
	parser := jwt.NewParser(jwt.WithJSONNumber())
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return tokenClaims{}
	}
	return claims
}
