package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

type TagHandler struct {
	tagService service.TagService
}

func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tagService.List(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]models.TagResponse, len(tags))
	for i, t := range tags {
		response[i] = toTagResponse(t)
	}
	c.JSON(http.StatusOK, response)
}

func (h *TagHandler) Create(c *gin.Context) {
	var req models.CreateTagRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	tag, err := h.tagService.Create(c.Request.Context(), c.Param("orgId"), req.Name, req.Color)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTagResponse(tag))
}

func (h *TagHandler) Delete(c *gin.Context) {
	if err := h.tagService.Delete(c.Request.Context(), c.Param("orgId"), c.Param("tagId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted"})
}
