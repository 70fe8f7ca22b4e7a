package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samatvayoga/backend/internal/store"
)

// ResourceHandler is the generic admin CRUD surface over one collection.
// Every domain type gets the same create/read/list/update/delete endpoints
// without bespoke code; types that need extra rules (blog slugs, gallery
// object cleanup) wrap or replace individual methods.
type ResourceHandler[T store.Entity] struct {
	store      *store.Store[T]
	newRecord  func() T
	validate   *validator.Validate
	filterable map[string]bool
}

// NewResourceHandler builds a handler for one collection. filterable lists
// the query-string fields exposed as equality filters on List.
func NewResourceHandler[T store.Entity](s *store.Store[T], newRecord func() T, validate *validator.Validate, filterable ...string) *ResourceHandler[T] {
	allowed := make(map[string]bool, len(filterable))
	for _, f := range filterable {
		allowed[f] = true
	}
	return &ResourceHandler[T]{store: s, newRecord: newRecord, validate: validate, filterable: allowed}
}

// filterValue types a raw query value for a whitelisted filter field.
// Boolean literals become real bools so the driver compares them against
// boolean columns; everything else passes through as text.
func filterValue(v string) any {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

func (h *ResourceHandler[T]) List(c *fiber.Ctx) error {
	filters := map[string]any{}
	for field := range h.filterable {
		if v := c.Query(field); v != "" {
			filters[field] = filterValue(v)
		}
	}

	records, err := h.store.List(c.Context(), filters, store.OrderDesc("created_at"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"data": records})
}

func (h *ResourceHandler[T]) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid id")
	}

	record, found, err := h.store.Get(c.Context(), id)
	if err != nil {
		return storeError(c, err)
	}
	if !found {
		return notFound(c)
	}
	return c.JSON(record)
}

func (h *ResourceHandler[T]) Create(c *fiber.Ctx) error {
	record := h.newRecord()
	if err := c.BodyParser(record); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if h.validate != nil {
		if err := h.validate.Struct(record); err != nil {
			return badRequest(c, "Validation failed: "+err.Error())
		}
	}

	id, err := h.store.Create(c.Context(), record)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *ResourceHandler[T]) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid id")
	}

	var fields map[string]any
	if err := c.BodyParser(&fields); err != nil || len(fields) == 0 {
		return badRequest(c, "Invalid request body")
	}

	if err := h.store.Update(c.Context(), id, fields); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}

func (h *ResourceHandler[T]) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid id")
	}

	if err := h.store.Delete(c.Context(), id); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
