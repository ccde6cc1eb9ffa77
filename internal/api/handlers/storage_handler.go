package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-training-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// ============================================
// Storage Handler
// ============================================

type StorageHandler struct {
	storageService service.StorageService
}

// blobPath strips the leading slash gin keeps on wildcard params.
func blobPath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

func (h *StorageHandler) ListBlobs(c *gin.Context) {
	blobs, err := h.storageService.ListBlobs(c.Request.Context(), middleware.CurrentUser(c), c.Param("name"), c.Query("prefix"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, blobs)
}

func (h *StorageHandler) CreateContainer(c *gin.Context) {
	var req models.CreateContainerRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	name := c.Param("name")
	copied, err := h.storageService.CreateContainer(c.Request.Context(), middleware.CurrentUser(c), name, req.Build)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.CreateContainerResponse{Container: name, Copied: copied})
}

func (h *StorageHandler) ReadURL(c *gin.Context) {
	url, err := h.storageService.ReadURL(c.Request.Context(), middleware.CurrentUser(c), c.Param("name"), blobPath(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, url)
}

func (h *StorageHandler) DeleteBlob(c *gin.Context) {
	if err := h.storageService.DeleteBlob(c.Request.Context(), middleware.CurrentUser(c), c.Param("name"), blobPath(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blob deleted"})
}

func (h *StorageHandler) ListBuilds(c *gin.Context) {
	builds, err := h.storageService.ListBuilds(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, builds)
}
