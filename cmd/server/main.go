package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/samatvayoga/backend/internal/config"
	"github.com/samatvayoga/backend/internal/database"
	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/handlers"
	"github.com/samatvayoga/backend/internal/logging"
	"github.com/samatvayoga/backend/internal/middleware"
	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/realtime"
	"github.com/samatvayoga/backend/internal/routes"
	"github.com/samatvayoga/backend/internal/services"
	"github.com/samatvayoga/backend/internal/session"
	"github.com/samatvayoga/backend/internal/storage"
	"github.com/samatvayoga/backend/internal/store"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Realtime change bus, fanned out over Redis when configured
	bus := realtime.NewBus()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		bus.AttachRedis(context.Background(), rdb, "samatva:changes")
		slog.Info("realtime fan-out attached", "addr", cfg.RedisAddr)
	}

	// Object storage
	objects, err := storage.NewObjectStore(cfg)
	if err != nil {
		slog.Error("object storage init failed", "error", err)
		os.Exit(1)
	}
	if err := objects.EnsureBucket(context.Background()); err != nil {
		slog.Error("object storage bucket check failed", "error", err)
	}

	// Entity stores, one per collection
	users := store.New[*models.User](database.DB, "users", bus)
	instructors := store.New[*models.Instructor](database.DB, "instructors", bus)
	posts := store.New[*models.BlogPost](database.DB, "blog_posts", bus)
	products := store.New[*models.Product](database.DB, "products", bus)
	categories := store.New[*models.Category](database.DB, "categories", bus)
	orders := store.New[*models.Order](database.DB, "orders", bus)
	gallery := store.New[*models.GalleryItem](database.DB, "gallery_items", bus)
	reviews := store.New[*models.Review](database.DB, "reviews", bus)

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	blogService := services.NewBlogService(posts)

	// Session provider: bridges the auth-state stream into the current
	// user, creating viewer profiles on first sign-in.
	provider := session.NewProvider(authService, session.NewProfiles(users))
	provider.Initialize(context.Background())
	defer provider.Close()

	validate := validator.New()

	// Handlers
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, database.DB, validate),
		Health:   handlers.NewHealthHandler(rdb),
		Site:     handlers.NewSiteHandler(instructors, blogService, posts, products, categories, gallery, reviews, validate),
		Users:    handlers.NewUsersHandler(users, authService, validate),
		Transfer: handlers.NewTransferHandler(database.DB),
		Upload:   handlers.NewUploadHandler(objects),

		Instructors: handlers.NewResourceHandler(instructors, func() *models.Instructor { return &models.Instructor{} }, validate, "active"),
		Blog:        handlers.NewBlogHandler(posts, blogService, validate),
		Products:    handlers.NewResourceHandler(products, func() *models.Product { return &models.Product{} }, validate, "active", "category_id"),
		Categories:  handlers.NewResourceHandler(categories, func() *models.Category { return &models.Category{} }, validate),
		Orders:      handlers.NewResourceHandler(orders, func() *models.Order { return &models.Order{} }, validate, "status"),
		Gallery:     handlers.NewGalleryHandler(gallery, objects, validate),
		Reviews:     handlers.NewResourceHandler(reviews, func() *models.Review { return &models.Review{} }, validate, "approved"),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, database.DB, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
