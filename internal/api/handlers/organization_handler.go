package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// ============================================
// Organization Handler
// ============================================

type OrganizationHandler struct {
	orgService service.OrganizationService
}

func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.orgService.List(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]models.OrganizationResponse, len(orgs))
	for i, o := range orgs {
		response[i] = toOrganizationResponse(o)
	}
	c.JSON(http.StatusOK, response)
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	var req models.CreateOrganizationRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	org, owner, err := h.orgService.Create(c.Request.Context(), middleware.CurrentUser(c).ID, req.Name, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	resp := toOrganizationResponse(org)
	resp.Role = string(owner.Role)
	c.JSON(http.StatusCreated, resp)
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	org, err := h.orgService.Get(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		fail(c, err)
		return
	}
	resp := toOrganizationResponse(org)
	resp.Role = string(middleware.CurrentMembership(c).Role)
	c.JSON(http.StatusOK, resp)
}

func (h *OrganizationHandler) Update(c *gin.Context) {
	var req models.UpdateOrganizationRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), c.Param("orgId"), req.Name, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrganizationResponse(org))
}

func (h *OrganizationHandler) Delete(c *gin.Context) {
	if err := h.orgService.Delete(c.Request.Context(), c.Param("orgId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Organization deleted"})
}
