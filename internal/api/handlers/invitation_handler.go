package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// ============================================
// Invitation Handler
// ============================================

type InvitationHandler struct {
	invitationService service.InvitationService
}

func (h *InvitationHandler) List(c *gin.Context) {
	invitations, err := h.invitationService.List(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		response[i] = toInvitationResponse(inv, false)
	}
	c.JSON(http.StatusOK, response)
}

// Create returns the token once so it can be delivered to the invitee.
func (h *InvitationHandler) Create(c *gin.Context) {
	var req models.CreateInvitationRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		fail(c, err)
		return
	}

	invitation, err := h.invitationService.Create(c.Request.Context(), middleware.CurrentMembership(c), req.Email, role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInvitationResponse(invitation, true))
}

func (h *InvitationHandler) Cancel(c *gin.Context) {
	if err := h.invitationService.Cancel(c.Request.Context(), c.Param("orgId"), c.Param("invitationId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation cancelled"})
}

func (h *InvitationHandler) Accept(c *gin.Context) {
	var req models.AcceptInvitationRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	member, err := h.invitationService.Accept(
		c.Request.Context(),
		middleware.CurrentUser(c),
		c.Param("orgId"),
		c.Param("invitationId"),
		req.Token,
	)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMemberResponse(member))
}
