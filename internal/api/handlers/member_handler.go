package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// ============================================
// Member Handler
// ============================================

type MemberHandler struct {
	memberService service.MemberService
}

// parseRole accepts an empty role as "not given".
func parseRole(s string) (types.Role, error) {
	if s == "" {
		return "", nil
	}
	role, ok := types.ParseRole(s)
	if !ok {
		return "", service.BadRequest("role must be one of MEMBER, ADMIN, OWNER")
	}
	return role, nil
}

func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.memberService.List(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]models.MemberResponse, len(members))
	for i, m := range members {
		response[i] = toMemberResponse(m)
	}
	c.JSON(http.StatusOK, response)
}

func (h *MemberHandler) Add(c *gin.Context) {
	var req models.AddMemberRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	if req.UserID == "" && req.Email == "" {
		fail(c, service.BadRequest("userId is required"))
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		fail(c, err)
		return
	}

	member, err := h.memberService.Add(c.Request.Context(), middleware.CurrentMembership(c), service.AddMemberInput{
		UserID: req.UserID,
		Email:  req.Email,
		Role:   role,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMemberResponse(member))
}

func (h *MemberHandler) UpdateRole(c *gin.Context) {
	var req models.UpdateMemberRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		fail(c, err)
		return
	}

	member, err := h.memberService.UpdateRole(c.Request.Context(), middleware.CurrentMembership(c), c.Param("memberId"), role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMemberResponse(member))
}

func (h *MemberHandler) Remove(c *gin.Context) {
	if err := h.memberService.Remove(c.Request.Context(), middleware.CurrentMembership(c), c.Param("memberId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
