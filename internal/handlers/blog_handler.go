package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/services"
	"github.com/samatvayoga/backend/internal/store"
)

// BlogHandler is the admin blog surface. It reuses the generic resource
// handler for reads and deletes but routes writes through the blog service
// so slugs stay unique.
type BlogHandler struct {
	*ResourceHandler[*models.BlogPost]
	service *services.BlogService
}

func NewBlogHandler(posts *store.Store[*models.BlogPost], service *services.BlogService, validate *validator.Validate) *BlogHandler {
	return &BlogHandler{
		ResourceHandler: NewResourceHandler(posts, func() *models.BlogPost { return &models.BlogPost{} }, validate, "published"),
		service:         service,
	}
}

func (h *BlogHandler) Create(c *fiber.Ctx) error {
	post := &models.BlogPost{}
	if err := c.BodyParser(post); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if h.validate != nil {
		if err := h.validate.Struct(post); err != nil {
			return badRequest(c, "A title of at most 200 characters is required")
		}
	}

	id, err := h.service.Create(c.Context(), post)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id, "slug": post.Slug})
}

func (h *BlogHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid id")
	}

	var fields map[string]any
	if err := c.BodyParser(&fields); err != nil || len(fields) == 0 {
		return badRequest(c, "Invalid request body")
	}

	if err := h.service.Update(c.Context(), id, fields); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}
