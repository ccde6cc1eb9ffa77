package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

const (
	sessionKey    = "session"
	userKey       = "user"
	membershipKey = "membership"
)

// SessionResolver finds the caller's session. (nil, nil) means anonymous.
type SessionResolver interface {
	Resolve(r *http.Request) (*auth.Session, error)
}

// UserResolver maps a verified identity to an internal user.
type UserResolver interface {
	ResolveUser(ctx context.Context, identity auth.Identity, provision bool) (*repository.User, error)
}

// RequireAuth attaches the caller's session or answers 401. A failing
// session backend is reported as an upstream failure, not as 401.
func RequireAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := resolver.Resolve(c.Request)
		if err != nil {
			Abort(c, service.Upstream("resolve session", err))
			return
		}
		if session == nil {
			Abort(c, service.Unauthenticated("authentication required"))
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireUser attaches the internal user for the session. Only routes about
// the caller themselves should pass provision=true.
func RequireUser(users UserResolver, provision bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil {
			Abort(c, service.Unauthenticated("authentication required"))
			return
		}
		user, err := users.ResolveUser(c.Request.Context(), session.Identity, provision)
		if err != nil {
			Abort(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireOrgRole admits the caller only if they hold one of roles in the
// organization found by locate.
func RequireOrgRole(authority service.MembershipAuthority, locate OrgLocator, roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Abort(c, service.Unauthenticated("authentication required"))
			return
		}
		orgID, err := locate(c)
		if err != nil {
			Abort(c, err)
			return
		}
		member, err := authority.Authorize(c.Request.Context(), user.ID, orgID, roles...)
		if err != nil {
			Abort(c, err)
			return
		}
		c.Set(membershipKey, member)
		c.Next()
	}
}

// CurrentSession returns the session attached by RequireAuth, or nil.
func CurrentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*auth.Session)
	return session
}

// CurrentUser returns the user attached by RequireUser, or nil.
func CurrentUser(c *gin.Context) *repository.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*repository.User)
	return user
}

// CurrentMembership returns the membership attached by RequireOrgRole, or nil.
func CurrentMembership(c *gin.Context) *repository.OrganizationMember {
	v, ok := c.Get(membershipKey)
	if !ok {
		return nil
	}
	member, _ := v.(*repository.OrganizationMember)
	return member
}
