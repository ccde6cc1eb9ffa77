package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// SessionHandler serves training sessions, not login sessions.
type SessionHandler struct {
	sessionService service.TrainingSessionService
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req models.StartSessionRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), middleware.CurrentUser(c).ID, req.CourseID, req.ScenarioID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionDTO(session))
}

func (h *SessionHandler) Update(c *gin.Context) {
	var req models.UpdateSessionRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	session, err := h.sessionService.Update(c.Request.Context(), middleware.CurrentUser(c).ID, req.SessionID, service.SessionUpdate{
		Status:          req.Status,
		Score:           req.Score,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionDTO(session))
}
