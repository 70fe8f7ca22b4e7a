package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/storage"
	"github.com/samatvayoga/backend/internal/store"
)

// GalleryHandler extends the generic resource handler so deleting a gallery
// item also deletes its object from storage. The store never cascades into
// object storage; this handler is the caller that owns that cleanup.
type GalleryHandler struct {
	*ResourceHandler[*models.GalleryItem]
	gallery *store.Store[*models.GalleryItem]
	objects *storage.ObjectStore
}

func NewGalleryHandler(gallery *store.Store[*models.GalleryItem], objects *storage.ObjectStore, validate *validator.Validate) *GalleryHandler {
	return &GalleryHandler{
		ResourceHandler: NewResourceHandler(gallery, func() *models.GalleryItem { return &models.GalleryItem{} }, validate),
		gallery:         gallery,
		objects:         objects,
	}
}

func (h *GalleryHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid id")
	}

	item, found, err := h.gallery.Get(c.Context(), id)
	if err != nil {
		return storeError(c, err)
	}

	if err := h.gallery.Delete(c.Context(), id); err != nil {
		return storeError(c, err)
	}

	// Record first, object second: an orphaned object is recoverable, a
	// dangling URL on the public site is not.
	if found && h.objects != nil && item.StoragePath != "" {
		if err := h.objects.Delete(c.Context(), item.StoragePath); err != nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"deleted": true, "warning": "stored object could not be removed",
			})
		}
	}
	return c.JSON(fiber.Map{"deleted": true})
}
