package service

import (
	"context"
	"time"

	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
)

// IdentityProvider is the external login flow.
type IdentityProvider interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
	LogoutURL() string
}

// ============================================
// Auth Service
// ============================================

type AuthService interface {
	LoginURL(state string) (string, error)
	// CompleteLogin exchanges code, provisions the user and opens a session.
	CompleteLogin(ctx context.Context, code string) (*auth.Session, *repository.User, error)
	// Logout ends sessionID (if any) and returns the provider logout URL,
	// which is empty when no provider is configured.
	Logout(ctx context.Context, sessionID string) (string, error)
}

type authService struct {
	provider IdentityProvider
	sessions auth.SessionStore
	users    UserService
	ttl      time.Duration
}

func NewAuthService(provider IdentityProvider, sessions auth.SessionStore, userRepo repository.UserRepository, ttl time.Duration) AuthService {
	return &authService{
		provider: provider,
		sessions: sessions,
		users:    &userService{userRepo: userRepo},
		ttl:      ttl,
	}
}

func (s *authService) loginAvailable() error {
	if s.provider == nil || s.sessions == nil {
		return &Error{Kind: KindUpstream, Message: "login is not configured"}
	}
	return nil
}

func (s *authService) LoginURL(state string) (string, error) {
	if err := s.loginAvailable(); err != nil {
		return "", err
	}
	return s.provider.LoginURL(state), nil
}

func (s *authService) CompleteLogin(ctx context.Context, code string) (*auth.Session, *repository.User, error) {
	if err := s.loginAvailable(); err != nil {
		return nil, nil, err
	}
	if code == "" {
		return nil, nil, BadRequest("code is required")
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		logs.Logger.Warnf("[Auth] Code exchange failed: %v", err)
		return nil, nil, &Error{Kind: KindUnauthenticated, Message: "login failed", Err: err}
	}

	user, err := s.users.ResolveUser(ctx, *identity, true)
	if err != nil {
		return nil, nil, err
	}

	session := auth.NewSession(*identity, s.ttl)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, Upstream("save session", err)
	}
	logs.Logger.Infof("[Auth] User %s logged in", user.ID)
	return session, user, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) (string, error) {
	if sessionID != "" && s.sessions != nil {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return "", Upstream("delete session", err)
		}
	}
	if s.provider == nil {
		return "", nil
	}
	return s.provider.LogoutURL(), nil
}
