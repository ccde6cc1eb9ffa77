package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// ============================================
// Enrollment Handler
// ============================================

type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	enrollment, created, err := h.enrollmentService.Enroll(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("courseId"))
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toEnrollmentResponse(enrollment))
}

func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	if err := h.enrollmentService.Unenroll(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("courseId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unenrolled"})
}

func (h *EnrollmentHandler) GetProgress(c *gin.Context) {
	enrollment, err := h.enrollmentService.Progress(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("courseId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toEnrollmentResponse(enrollment))
}

func (h *EnrollmentHandler) UpdateProgress(c *gin.Context) {
	var req models.UpdateProgressRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	enrollment, err := h.enrollmentService.SetModuleCompleted(
		c.Request.Context(),
		middleware.CurrentUser(c).ID,
		c.Param("courseId"),
		req.ModuleID,
		*req.Completed,
	)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toEnrollmentResponse(enrollment))
}

// RecordQuizResponse stores an answer given inside a scenario. The caller
// must be enrolled in the course.
func (h *EnrollmentHandler) RecordQuizResponse(c *gin.Context) {
	var req models.QuizResponseRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	response, err := h.enrollmentService.RecordQuizResponse(
		c.Request.Context(),
		middleware.CurrentUser(c).ID,
		c.Param("courseId"),
		c.Param("scenarioId"),
		service.QuizResponseInput{QuestionID: req.QuestionID, Answer: req.Answer, Correct: req.Correct},
	)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toQuizResponse(response))
}
