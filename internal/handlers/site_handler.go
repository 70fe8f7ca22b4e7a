package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/services"
	"github.com/samatvayoga/backend/internal/store"
)

// SiteHandler serves the public, read-mostly pages: instructors, blog,
// shop, gallery, reviews. Read failures degrade to an error payload rather
// than crashing the view.
type SiteHandler struct {
	instructors *store.Store[*models.Instructor]
	blog        *services.BlogService
	posts       *store.Store[*models.BlogPost]
	products    *store.Store[*models.Product]
	categories  *store.Store[*models.Category]
	gallery     *store.Store[*models.GalleryItem]
	reviews     *store.Store[*models.Review]
	validate    *validator.Validate
}

func NewSiteHandler(
	instructors *store.Store[*models.Instructor],
	blog *services.BlogService,
	posts *store.Store[*models.BlogPost],
	products *store.Store[*models.Product],
	categories *store.Store[*models.Category],
	gallery *store.Store[*models.GalleryItem],
	reviews *store.Store[*models.Review],
	validate *validator.Validate,
) *SiteHandler {
	return &SiteHandler{
		instructors: instructors,
		blog:        blog,
		posts:       posts,
		products:    products,
		categories:  categories,
		gallery:     gallery,
		reviews:     reviews,
		validate:    validate,
	}
}

func (h *SiteHandler) Instructors(c *fiber.Ctx) error {
	records, err := h.instructors.List(c.Context(), map[string]any{"active": true})
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"data": records})
}

func (h *SiteHandler) BlogPosts(c *fiber.Ctx) error {
	opts := []store.ListOption{store.OrderDesc("published_at")}
	if limit := c.QueryInt("limit", 0); limit > 0 {
		opts = append(opts, store.Limit(limit))
	}
	records, err := h.posts.List(c.Context(), map[string]any{"published": true}, opts...)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"data": records})
}

func (h *SiteHandler) BlogPostBySlug(c *fiber.Ctx) error {
	post, found, err := h.blog.BySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return storeError(c, err)
	}
	if !found {
		return notFound(c)
	}
	return c.JSON(post)
}

func (h *SiteHandler) Products(c *fiber.Ctx) error {
	filters := map[string]any{"active": true}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filters["category_id"] = categoryID
	}
	records, err := h.products.List(c.Context(), filters, store.OrderDesc("created_at"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"data": records})
}

func (h *SiteHandler) Categories(c *fiber.Ctx) error {
	records, err := h.categories.List(c.Context(), nil)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"data": records})
}

func (h *SiteHandler) Gallery(c *fiber.Ctx) error {
	records, err := h.gallery.List(c.Context(), nil, store.OrderDesc("created_at"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"data": records})
}

// Reviews lists approved reviews only.
func (h *SiteHandler) Reviews(c *fiber.Ctx) error {
	records, err := h.reviews.List(c.Context(), map[string]any{"approved": true}, store.OrderDesc("created_at"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"data": records})
}

// SubmitReview accepts a visitor review; it stays hidden until a moderator
// approves it.
func (h *SiteHandler) SubmitReview(c *fiber.Ctx) error {
	var req dto.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "Author name and a rating between 1 and 5 are required")
	}

	review := &models.Review{
		AuthorName: req.AuthorName,
		Rating:     req.Rating,
		Body:       req.Body,
		Approved:   false,
	}
	id, err := h.reviews.Create(c.Context(), review)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}
