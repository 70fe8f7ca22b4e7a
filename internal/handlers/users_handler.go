package handlers

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/rbac"
	"github.com/samatvayoga/backend/internal/services"
	"github.com/samatvayoga/backend/internal/store"
)

// UsersHandler manages admin-area profiles. Profiles are never hard
// deleted; deactivation flips the active flag. Role changes refresh the
// denormalized permission set from the role table.
type UsersHandler struct {
	users    *store.Store[*models.User]
	service  *services.AuthService
	validate *validator.Validate
}

func NewUsersHandler(users *store.Store[*models.User], service *services.AuthService, validate *validator.Validate) *UsersHandler {
	return &UsersHandler{users: users, service: service, validate: validate}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	records, err := h.users.List(c.Context(), nil, store.OrderDesc("created_at"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"data": records})
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "Email, a password of at least 8 characters, and a valid role are required")
	}

	user, err := h.service.CreateUser(c.Context(), req.Email, req.Password, req.DisplayName, rbac.Role(req.Role))
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid id")
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "Role must be one of admin, moderator, editor, viewer")
	}

	fields := map[string]any{}
	if req.Role != nil {
		role := rbac.Role(*req.Role)
		perms, err := json.Marshal(rbac.PermissionsFor(role))
		if err != nil {
			return badRequest(c, "Invalid role")
		}
		fields["role"] = role
		fields["permissions"] = datatypes.JSON(perms)
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}
	if len(fields) == 0 {
		return badRequest(c, "Nothing to update")
	}

	if err := h.users.Update(c.Context(), id, fields); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}
