package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// respondError returns the API's structured error shape.
func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

func respondBadRequest(c *fiber.Ctx, message string) error {
	return respondError(c, fiber.StatusBadRequest, message)
}

func respondNotFound(c *fiber.Ctx, message string) error {
	return respondError(c, fiber.StatusNotFound, message)
}

func respondInternalError(c *fiber.Ctx, message string) error {
	return respondError(c, fiber.StatusInternalServerError, message)
}
