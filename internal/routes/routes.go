package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/samatvayoga/backend/internal/config"
	"github.com/samatvayoga/backend/internal/handlers"
	"github.com/samatvayoga/backend/internal/middleware"
	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/rbac"
)

// Handlers bundles everything Setup mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Health   *handlers.HealthHandler
	Site     *handlers.SiteHandler
	Users    *handlers.UsersHandler
	Transfer *handlers.TransferHandler
	Upload   *handlers.UploadHandler

	Instructors *handlers.ResourceHandler[*models.Instructor]
	Blog        *handlers.BlogHandler
	Products    *handlers.ResourceHandler[*models.Product]
	Categories  *handlers.ResourceHandler[*models.Category]
	Orders      *handlers.ResourceHandler[*models.Order]
	Gallery     *handlers.GalleryHandler
	Reviews     *handlers.ResourceHandler[*models.Review]
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Public site
	api.Get("/instructors", h.Site.Instructors)
	api.Get("/blog", h.Site.BlogPosts)
	api.Get("/blog/:slug", h.Site.BlogPostBySlug)
	api.Get("/products", h.Site.Products)
	api.Get("/categories", h.Site.Categories)
	api.Get("/gallery", h.Site.Gallery)
	api.Get("/reviews", h.Site.Reviews)
	api.Post("/reviews", h.Site.SubmitReview)

	// Auth routes get a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), h.Auth.Logout)
	api.Get("/auth/me", middleware.JWTProtected(cfg), h.Auth.Me)

	// Admin: JWT plus per-capability checks; deletes additionally need
	// the delete-content capability.
	admin := api.Group("/admin", middleware.JWTProtected(cfg))

	perm := func(cap rbac.Capability) fiber.Handler {
		return middleware.RequirePermission(db, cfg, cap)
	}
	canDelete := perm(rbac.DeleteContent)

	instructors := admin.Group("/instructors", perm(rbac.ManageInstructors))
	instructors.Get("/", h.Instructors.List)
	instructors.Post("/", h.Instructors.Create)
	instructors.Get("/:id", h.Instructors.Get)
	instructors.Patch("/:id", h.Instructors.Update)
	instructors.Delete("/:id", canDelete, h.Instructors.Delete)

	blog := admin.Group("/blog", perm(rbac.ManageBlog))
	blog.Get("/", h.Blog.List)
	blog.Post("/", h.Blog.Create)
	blog.Get("/:id", h.Blog.Get)
	blog.Patch("/:id", h.Blog.Update)
	blog.Delete("/:id", canDelete, h.Blog.Delete)

	products := admin.Group("/products", perm(rbac.ManageMerchandise))
	products.Get("/", h.Products.List)
	products.Post("/", h.Products.Create)
	products.Get("/:id", h.Products.Get)
	products.Patch("/:id", h.Products.Update)
	products.Delete("/:id", canDelete, h.Products.Delete)

	categories := admin.Group("/categories", perm(rbac.ManageMerchandise))
	categories.Get("/", h.Categories.List)
	categories.Post("/", h.Categories.Create)
	categories.Get("/:id", h.Categories.Get)
	categories.Patch("/:id", h.Categories.Update)
	categories.Delete("/:id", canDelete, h.Categories.Delete)

	orders := admin.Group("/orders", perm(rbac.ManageMerchandise))
	orders.Get("/", h.Orders.List)
	orders.Post("/", h.Orders.Create)
	orders.Get("/:id", h.Orders.Get)
	orders.Patch("/:id", h.Orders.Update)
	orders.Delete("/:id", canDelete, h.Orders.Delete)

	gallery := admin.Group("/gallery", perm(rbac.UploadImages))
	gallery.Get("/", h.Gallery.List)
	gallery.Post("/", h.Gallery.Create)
	gallery.Get("/:id", h.Gallery.Get)
	gallery.Patch("/:id", h.Gallery.Update)
	gallery.Delete("/:id", canDelete, h.Gallery.Delete)

	// Review moderation: approval is an editorial action, removal needs
	// delete-content.
	reviews := admin.Group("/reviews", perm(rbac.ManageBlog))
	reviews.Get("/", h.Reviews.List)
	reviews.Patch("/:id", h.Reviews.Update)
	reviews.Delete("/:id", canDelete, h.Reviews.Delete)

	users := admin.Group("/users", perm(rbac.ManageUsers))
	users.Get("/", h.Users.List)
	users.Post("/", h.Users.Create)
	users.Patch("/:id", h.Users.Update)

	admin.Get("/export/:collection", perm(rbac.ExportData), h.Transfer.Export)
	admin.Post("/import/:collection", perm(rbac.ExportData), h.Transfer.Import)

	admin.Post("/uploads", perm(rbac.UploadImages), h.Upload.Upload)
}
