package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/middleware"
	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/services"
)

type AuthHandler struct {
	service  *services.AuthService
	db       *gorm.DB
	validate *validator.Validate
}

func NewAuthHandler(service *services.AuthService, db *gorm.DB, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{service: service, db: db, validate: validate}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "Email and password are required")
	}

	resp, err := h.service.Login(c.Context(), &req)
	if err != nil {
		status := fiber.StatusUnauthorized
		if errors.Is(err, services.ErrAccountDisabled) {
			status = fiber.StatusForbidden
		}
		return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	resp, err := h.service.Refresh(c.Context(), &req)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	if err := h.service.Logout(c.Context(), &req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Logout failed"})
	}
	return c.JSON(fiber.Map{"logged_out": true})
}

// Me returns the signed-in user's own profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return notFound(c)
	}
	return c.JSON(user)
}
