package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	err      error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]*Session{}}
}

func (s *memorySessionStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.sessions[id], nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func newTestResolver(t *testing.T) (*Resolver, *memorySessionStore) {
	t.Helper()
	v, err := NewTokenVerifier(testSecret, "", "")
	require.NoError(t, err)
	store := newMemorySessionStore()
	return NewResolver(v, store), store
}

func TestResolver_BearerWinsOverCookie(t *testing.T) {
	r, store := newTestResolver(t)
	cookieSession := NewSession(Identity{Subject: "cookie-user"}, time.Hour)
	require.NoError(t, store.Save(context.Background(), cookieSession))

	raw, err := SignHS256(testSecret, Identity{Subject: "bearer-user"}, "", "", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookieSession.ID})

	session, err := r.Resolve(req)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "bearer-user", session.Identity.Subject)
	assert.Equal(t, SourceBearer, session.Source)
}

func TestResolver_InvalidBearerFallsBackToCookie(t *testing.T) {
	r, store := newTestResolver(t)
	cookieSession := NewSession(Identity{Subject: "cookie-user"}, time.Hour)
	require.NoError(t, store.Save(context.Background(), cookieSession))

	req := httptest.NewRequest(http.MethodGet, "/v1/auth", nil)
	req.Header.Set("Authorization", "Bearer expired-or-forged")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookieSession.ID})

	session, err := r.Resolve(req)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "cookie-user", session.Identity.Subject)
	assert.Equal(t, SourceCookie, session.Source)
}

func TestResolver_NoCredentials(t *testing.T) {
	r, _ := newTestResolver(t)

	session, err := r.Resolve(httptest.NewRequest(http.MethodGet, "/v1/auth", nil))
	assert.NoError(t, err)
	assert.Nil(t, session)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "unknown"})
	session, err = r.Resolve(req)
	assert.NoError(t, err)
	assert.Nil(t, session)
}

func TestResolver_StoreFailure(t *testing.T) {
	r, store := newTestResolver(t)
	store.err = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/v1/auth", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "some-session"})

	_, err := r.Resolve(req)
	assert.ErrorContains(t, err, "connection refused")
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(req), "header %q", header)
	}
}
