package handlers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/storage"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type UploadHandler struct {
	objects *storage.ObjectStore
}

func NewUploadHandler(objects *storage.ObjectStore) *UploadHandler {
	return &UploadHandler{objects: objects}
}

// Upload stores a multipart image and returns its public URL plus the
// object key, which the caller puts on whatever record references it.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "A file field is required")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		return badRequest(c, "Unsupported image type")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "Could not read uploaded file")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	path := fmt.Sprintf("uploads/%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.NewString(), ext)

	url, err := h.objects.Put(c.Context(), path, file, fileHeader.Size, contentType)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Upload to object storage failed",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{URL: url, StoragePath: path})
}
