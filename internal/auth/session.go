// Package auth resolves the caller's identity from bearer tokens or login
// session cookies and drives the identity provider login flow.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SessionCookie = "session"
	StateCookie   = "auth_state"

	SourceBearer = "bearer"
	SourceCookie = "cookie"
)

// Identity is the caller as asserted by the identity provider.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Session is a verified identity plus where it came from.
type Session struct {
	ID        string    `json:"id,omitempty"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expiresAt"`
	Source    string    `json:"source"`
}

// SessionStore persists login sessions created by the callback handler.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	// Get returns nil, nil for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// NewSession starts a cookie session for identity that lasts ttl.
func NewSession(identity Identity, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Identity:  identity,
		ExpiresAt: time.Now().Add(ttl),
		Source:    SourceCookie,
	}
}

// Resolver extracts the session from a request. A bearer token wins over
// the session cookie.
type Resolver struct {
	tokens   *TokenVerifier
	sessions SessionStore
}

// NewResolver builds a Resolver. sessions may be nil, in which case only
// bearer tokens are accepted.
func NewResolver(tokens *TokenVerifier, sessions SessionStore) *Resolver {
	return &Resolver{tokens: tokens, sessions: sessions}
}

// Resolve returns (nil, nil) when the request carries no usable credential.
// A non-nil error means the session backend could not be reached.
func (r *Resolver) Resolve(req *http.Request) (*Session, error) {
	if raw := BearerToken(req); raw != "" && r.tokens != nil {
		identity, expiresAt, err := r.tokens.Verify(raw)
		if err == nil {
			return &Session{Identity: *identity, ExpiresAt: expiresAt, Source: SourceBearer}, nil
		}
	}

	if r.sessions == nil {
		return nil, nil
	}
	cookie, err := req.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	session, err := r.sessions.Get(req.Context(), cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	return session, nil
}

// BearerToken returns the token from "Authorization: Bearer <token>", or "".
func BearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
