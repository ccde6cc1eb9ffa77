package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// ============================================
// Auth Handler
// ============================================

const stateCookieTTL = 10 * time.Minute

type AuthHandler struct {
	authService service.AuthService
	opts        AuthOptions
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSession returns the caller's identity and their (provisioned) user.
func (h *AuthHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, toSessionResponse(middleware.CurrentSession(c), middleware.CurrentUser(c)))
}

// Login redirects to the identity provider.
func (h *AuthHandler) Login(c *gin.Context) {
	state := uuid.New().String()
	url, err := h.authService.LoginURL(state)
	if err != nil {
		fail(c, err)
		return
	}
	h.setCookie(c, auth.StateCookie, state, stateCookieTTL)
	c.Redirect(http.StatusFound, url)
}

// Callback completes the login and sets the session cookie.
func (h *AuthHandler) Callback(c *gin.Context) {
	state, err := c.Cookie(auth.StateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		fail(c, service.BadRequest("invalid login state"))
		return
	}
	h.clearCookie(c, auth.StateCookie)

	session, user, err := h.authService.CompleteLogin(c.Request.Context(), c.Query("code"))
	if err != nil {
		fail(c, err)
		return
	}
	h.setCookie(c, auth.SessionCookie, session.ID, time.Until(session.ExpiresAt))

	if h.opts.FrontendURL != "" {
		c.Redirect(http.StatusFound, h.opts.FrontendURL)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session, user))
}

// Logout ends the cookie session and returns the provider logout URL.
func (h *AuthHandler) Logout(c *gin.Context) {
	var sessionID string
	if session := middleware.CurrentSession(c); session != nil && session.Source == auth.SourceCookie {
		sessionID = session.ID
	}
	logoutURL, err := h.authService.Logout(c.Request.Context(), sessionID)
	if err != nil {
		fail(c, err)
		return
	}
	h.clearCookie(c, auth.SessionCookie)
	c.JSON(http.StatusOK, models.LogoutResponse{LogoutURL: logoutURL})
}
