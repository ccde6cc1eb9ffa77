package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// ============================================
// Course Handler
// ============================================

type CourseHandler struct {
	courseService service.CourseService
}

func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courseService.List(c.Request.Context(), middleware.CurrentUser(c).ID, c.Query("organizationId"))
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]models.CourseResponse, len(courses))
	for i, course := range courses {
		response[i] = toCourseResponse(course)
	}
	c.JSON(http.StatusOK, response)
}

func (h *CourseHandler) Create(c *gin.Context) {
	var req models.CreateCourseRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	input := service.CourseInput{
		Title:       req.Title,
		Description: req.Description,
		BuildName:   req.BuildName,
		TagIDs:      req.TagIDs,
	}
	for _, m := range req.Modules {
		module := service.ModuleInput{Title: m.Title}
		for _, s := range m.Scenarios {
			module.Scenarios = append(module.Scenarios, service.ScenarioInput{Name: s.Name, BuildPath: s.BuildPath})
		}
		input.Modules = append(input.Modules, module)
	}

	course, err := h.courseService.Create(c.Request.Context(), req.OrganizationID, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCourseResponse(course))
}

func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courseService.Get(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourseResponse(course))
}

func (h *CourseHandler) Update(c *gin.Context) {
	var req models.UpdateCourseRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), c.Param("courseId"), service.CourseUpdate{
		Title:       req.Title,
		Description: req.Description,
		BuildName:   req.BuildName,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCourseResponse(course))
}

func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courseService.Delete(c.Request.Context(), c.Param("courseId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

// GetScenario returns the scenario with a temporary URL for its build.
func (h *CourseHandler) GetScenario(c *gin.Context) {
	access, err := h.courseService.Scenario(c.Request.Context(), c.Param("courseId"), c.Param("scenarioId"))
	if err != nil {
		fail(c, err)
		return
	}
	resp := toScenarioResponse(access.Scenario)
	resp.URL = access.URL
	resp.ExpiresAt = &access.ExpiresAt
	c.JSON(http.StatusOK, resp)
}
