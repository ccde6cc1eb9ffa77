package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// ============================================
// User Handler
// ============================================

type UserHandler struct {
	userService service.UserService
}

// targetUserID resolves the :userId parameter, where "me" is the caller.
func targetUserID(c *gin.Context) string {
	id := c.Param("userId")
	if id == "" || id == "me" {
		return middleware.CurrentUser(c).ID
	}
	return id
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(middleware.CurrentUser(c)))
}

func (h *UserHandler) UpdateCurrentUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c).ID, req.Name, req.Picture)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) DeleteCurrentUser(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), middleware.CurrentUser(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middleware.CurrentUser(c).ID, targetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) ListCourses(c *gin.Context) {
	enrollments, err := h.userService.Courses(c.Request.Context(), middleware.CurrentUser(c).ID, targetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]models.UserCourseResponse, len(enrollments))
	for i, e := range enrollments {
		response[i] = toUserCourseResponse(e)
	}
	c.JSON(http.StatusOK, response)
}

func (h *UserHandler) GetStats(c *gin.Context) {
	stats, err := h.userService.Stats(c.Request.Context(), middleware.CurrentUser(c).ID, targetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatsResponse(stats))
}
