package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/excing/credits-starter-kit/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// allowedImageTypes maps accepted MIME types to their stored extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadHandler stores user-uploaded images.
type UploadHandler struct {
	cfg config.UploadConfig
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(cfg config.UploadConfig) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

// Image accepts a multipart image upload, validates type and size, and saves
// it under a generated name.
func (h *UploadHandler) Image(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, errForm := c.FormFile("image")
	if errForm != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	maxSize := h.cfg.MaxSizeMB * 1024 * 1024
	if maxSize > 0 && file.Size > maxSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file exceeds %d MB limit", h.cfg.MaxSizeMB),
		})
		return
	}

	contentType := file.Header.Get("Content-Type")
	ext, allowed := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}

	if errDir := os.MkdirAll(h.cfg.Dir, 0o755); errDir != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	name := uuid.NewString() + ext
	dest := filepath.Join(h.cfg.Dir, name)
	if errSave := c.SaveUploadedFile(file, dest); errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename": name,
		"url":      "/uploads/" + name,
		"size":     file.Size,
	})
}
