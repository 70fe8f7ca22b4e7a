package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/store"
)

// storeError maps a store failure onto an HTTP response with enough detail
// for the operator to pick a remediation: request access, check
// connectivity, or fix the input.
func storeError(c *fiber.Ctx, err error) error {
	var se *store.Error
	if !errors.As(err, &se) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	status := fiber.StatusInternalServerError
	switch se.Code {
	case store.CodePermissionDenied:
		status = fiber.StatusForbidden
	case store.CodeUnavailable:
		status = fiber.StatusServiceUnavailable
	case store.CodeInvalidArgument:
		status = fiber.StatusBadRequest
	case store.CodeNotFound:
		status = fiber.StatusNotFound
	case store.CodeBatchFailed:
		status = fiber.StatusUnprocessableEntity
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error: true, Message: string(se.Code) + ": " + se.Op + " " + se.Collection,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Not found"})
}
