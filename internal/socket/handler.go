// internal/socket/handler.go
package socket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// SessionResolver finds the caller's session; (nil, nil) means anonymous.
type SessionResolver interface {
	Resolve(r *http.Request) (*auth.Session, error)
}

// UserResolver maps an identity to an existing user.
type UserResolver interface {
	ResolveUser(ctx context.Context, identity auth.Identity, provision bool) (*repository.User, error)
}

// OrganizationLister lists the organizations a user belongs to.
type OrganizationLister interface {
	List(ctx context.Context, userID string) ([]*repository.Organization, error)
}

// Authorizer checks organization membership.
type Authorizer interface {
	Authorize(ctx context.Context, userID, organizationID string, allowed ...types.Role) (*repository.OrganizationMember, error)
}

// Handler upgrades authenticated requests to websocket connections.
type Handler struct {
	hub       *Hub
	sessions  SessionResolver
	users     UserResolver
	orgs      OrganizationLister
	authority Authorizer
	upgrader  websocket.Upgrader
}

// NewHandler builds the /ws handler. Origins are checked against
// allowedOrigins; "*" admits any origin.
func NewHandler(hub *Hub, sessions SessionResolver, users UserResolver, orgs OrganizationLister, authority Authorizer, allowedOrigins []string) *Handler {
	return &Handler{
		hub:       hub,
		sessions:  sessions,
		users:     users,
		orgs:      orgs,
		authority: authority,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket authenticates like any other route. Browsers cannot set
// headers on websocket requests, so a ?token= query parameter is accepted
// as a bearer token.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	if token := c.Query("token"); token != "" && c.GetHeader("Authorization") == "" {
		c.Request.Header.Set("Authorization", "Bearer "+token)
	}

	session, err := h.sessions.Resolve(c.Request)
	if err != nil {
		logs.Logger.Errorf("[WebSocket] Session lookup failed: %v", err)
		c.JSON(http.StatusBadGateway, models.NewErrorResponse("session backend unavailable", ""))
		return
	}
	if session == nil {
		c.JSON(http.StatusUnauthorized, models.NewErrorResponse("authentication required", ""))
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.ResolveUser(ctx, session.Identity, false)
	if err != nil {
		c.JSON(http.StatusNotFound, models.NewErrorResponse("user not found", ""))
		return
	}

	orgs, err := h.orgs.List(ctx, user.ID)
	if err != nil {
		logs.Logger.Errorf("[WebSocket] Listing organizations for %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("internal error", ""))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logs.Logger.Warnf("[WebSocket] Upgrade error: %v", err)
		return
	}

	client := NewClient(h.hub, user.ID, conn, h.roomGuard(user.ID))
	client.Rooms[UserRoom(user.ID)] = true
	for _, org := range orgs {
		client.Rooms[OrganizationRoom(org.ID)] = true
	}
	h.hub.register <- client

	logs.Logger.Infof("[WebSocket] Client connected: user=%s rooms=%d", user.ID, len(client.Rooms))

	go client.WritePump()
	go client.ReadPump()
}

// roomGuard lets a client join organization rooms it is a member of.
func (h *Handler) roomGuard(userID string) func(room string) bool {
	return func(room string) bool {
		orgID, ok := strings.CutPrefix(room, "organization:")
		if !ok {
			return false
		}
		_, err := h.authority.Authorize(context.Background(), userID, orgID, types.AnyRole...)
		return err == nil
	}
}
