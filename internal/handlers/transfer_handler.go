package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/transfer"
)

// exportableCollections whitelists the collection names the transfer
// endpoints accept, so URL parameters never reach SQL as table names.
var exportableCollections = map[string]bool{
	"instructors":   true,
	"blog_posts":    true,
	"products":      true,
	"categories":    true,
	"orders":        true,
	"gallery_items": true,
	"reviews":       true,
}

type TransferHandler struct {
	db *gorm.DB
}

func NewTransferHandler(db *gorm.DB) *TransferHandler {
	return &TransferHandler{db: db}
}

// Export streams a whole collection as a JSON attachment, ids included.
func (h *TransferHandler) Export(c *fiber.Ctx) error {
	collection := c.Params("collection")
	if !exportableCollections[collection] {
		return badRequest(c, "Unknown collection")
	}

	records, err := transfer.Export(c.Context(), h.db, collection, nil)
	if err != nil {
		return storeError(c, err)
	}

	filename := fmt.Sprintf("%s-%s.json", collection, time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return transfer.Download(c.Response().BodyWriter(), records)
}

// Import upserts the supplied records into a collection in one atomic
// batch. Colliding ids overwrite existing records: the admin UI warns the
// operator before calling this.
func (h *TransferHandler) Import(c *fiber.Ctx) error {
	collection := c.Params("collection")
	if !exportableCollections[collection] {
		return badRequest(c, "Unknown collection")
	}

	var req dto.ImportRequest
	if err := c.BodyParser(&req); err != nil || len(req.Records) == 0 {
		return badRequest(c, "A non-empty records array is required")
	}

	records := make([]transfer.Record, len(req.Records))
	for i, r := range req.Records {
		records[i] = transfer.Record(r)
	}

	if err := transfer.Import(c.Context(), h.db, collection, records); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"imported": len(records)})
}
