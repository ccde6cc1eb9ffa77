// Package api assembles the HTTP surface: middleware, guards and routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/handlers"
	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// HealthCheck reports the status of one backing service.
type HealthCheck func(ctx context.Context) error

// RouterDeps contains everything NewRouter wires together.
type RouterDeps struct {
	Services       *service.Services
	Handlers       *handlers.Handlers
	Resolver       middleware.SessionResolver
	WebSocket      gin.HandlerFunc
	Health         map[string]HealthCheck
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route and its guard chain.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(deps.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.AllowedOrigins
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", healthHandler(deps.Health))
	if deps.WebSocket != nil {
		r.GET("/ws", deps.WebSocket)
	}

	h := deps.Handlers
	svc := deps.Services

	session := middleware.RequireAuth(deps.Resolver)
	self := middleware.RequireUser(svc.User, true)
	known := middleware.RequireUser(svc.User, false)

	orgParam := middleware.OrgID(middleware.Param("orgId"))
	courseOrg := middleware.OrgOfCourse(svc.Course, middleware.Param("courseId"))
	bodyOrg := middleware.OrgID(middleware.BodyField("organizationId"))
	bodyCourseOrg := middleware.OrgOfCourse(svc.Course, middleware.BodyField("courseId"))

	role := func(locate middleware.OrgLocator, roles []types.Role) gin.HandlerFunc {
		return middleware.RequireOrgRole(svc.Authority, locate, roles...)
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.ErrorBoundary())
	{
		// ============================================
		// Login session
		// ============================================
		auth := v1.Group("/auth")
		{
			auth.GET("/login", h.Auth.Login)
			auth.GET("/callback", h.Auth.Callback)
			auth.GET("", session, self, h.Auth.GetSession)
			auth.DELETE("", session, h.Auth.Logout)
		}

		// ============================================
		// Users
		// ============================================
		users := v1.Group("/users", session)
		{
			users.GET("/me", self, h.User.GetCurrentUser)
			users.PATCH("/me", self, h.User.UpdateCurrentUser)
			users.DELETE("/me", self, h.User.DeleteCurrentUser)
			users.GET("/me/courses", self, h.User.ListCourses)
			users.GET("/me/stats", self, h.User.GetStats)

			users.GET("/:userId", known, h.User.GetUser)
			users.GET("/:userId/courses", known, h.User.ListCourses)
			users.GET("/:userId/stats", known, h.User.GetStats)
		}

		// ============================================
		// Organizations
		// ============================================
		orgs := v1.Group("/organizations", session, known)
		{
			orgs.GET("", h.Organization.List)
			orgs.POST("", h.Organization.Create)
			orgs.GET("/:orgId", role(orgParam, types.AnyRole), h.Organization.Get)
			orgs.PATCH("/:orgId", role(orgParam, types.ManagerRoles), h.Organization.Update)
			orgs.DELETE("/:orgId", role(orgParam, types.OwnerOnly), h.Organization.Delete)

			orgs.GET("/:orgId/members", role(orgParam, types.AnyRole), h.Member.List)
			orgs.POST("/:orgId/members", role(orgParam, types.ManagerRoles), h.Member.Add)
			orgs.PATCH("/:orgId/members/:memberId", role(orgParam, types.ManagerRoles), h.Member.UpdateRole)
			orgs.DELETE("/:orgId/members/:memberId", role(orgParam, types.ManagerRoles), h.Member.Remove)

			orgs.GET("/:orgId/invitations", role(orgParam, types.ManagerRoles), h.Invitation.List)
			orgs.POST("/:orgId/invitations", role(orgParam, types.ManagerRoles), h.Invitation.Create)
			orgs.DELETE("/:orgId/invitations/:invitationId", role(orgParam, types.ManagerRoles), h.Invitation.Cancel)

			orgs.GET("/:orgId/tags", role(orgParam, types.AnyRole), h.Tag.List)
			orgs.POST("/:orgId/tags", role(orgParam, types.ManagerRoles), h.Tag.Create)
			orgs.DELETE("/:orgId/tags/:tagId", role(orgParam, types.ManagerRoles), h.Tag.Delete)
		}
		// The invitee is not a member yet, and may not have a user row either.
		v1.POST("/organizations/:orgId/invitations/:invitationId/accept", session, self, h.Invitation.Accept)

		// ============================================
		// Courses
		// ============================================
		courses := v1.Group("/courses", session, known)
		{
			courses.GET("", h.Course.List)
			courses.POST("", role(bodyOrg, types.ManagerRoles), h.Course.Create)
			courses.GET("/:courseId", role(courseOrg, types.AnyRole), h.Course.Get)
			courses.PATCH("/:courseId", role(courseOrg, types.ManagerRoles), h.Course.Update)
			courses.DELETE("/:courseId", role(courseOrg, types.ManagerRoles), h.Course.Delete)

			courses.POST("/:courseId/enroll", role(courseOrg, types.AnyRole), h.Enrollment.Enroll)
			courses.DELETE("/:courseId/enroll", role(courseOrg, types.AnyRole), h.Enrollment.Unenroll)
			courses.GET("/:courseId/progress", role(courseOrg, types.AnyRole), h.Enrollment.GetProgress)
			courses.PATCH("/:courseId/progress", role(courseOrg, types.AnyRole), h.Enrollment.UpdateProgress)

			courses.GET("/:courseId/scenarios/:scenarioId", role(courseOrg, types.AnyRole), h.Course.GetScenario)
			courses.POST("/:courseId/scenarios/:scenarioId", role(courseOrg, types.AnyRole), h.Enrollment.RecordQuizResponse)
		}

		// ============================================
		// Training sessions
		// ============================================
		sessions := v1.Group("/sessions", session, known)
		{
			sessions.POST("", role(bodyCourseOrg, types.AnyRole), h.Session.Start)
			sessions.PATCH("", h.Session.Update)
		}

		// ============================================
		// Storage (container access is checked by the service)
		// ============================================
		store := v1.Group("/storage", session, known)
		{
			store.GET("/builds", h.Storage.ListBuilds)
			store.GET("/containers/:name", h.Storage.ListBlobs)
			store.POST("/containers/:name", h.Storage.CreateContainer)
			store.GET("/containers/:name/blobs/*path", h.Storage.ReadURL)
			store.DELETE("/containers/:name/blobs/*path", h.Storage.DeleteBlob)
		}
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "connected"
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{
			"status":     overall,
			"timestamp":  time.Now(),
			"components": components,
		})
	}
}
