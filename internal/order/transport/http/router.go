package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// NewUserMiddleware reads the user id the gateway injects after
// authentication. Credential handling itself lives outside this service.
func NewUserMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := strconv.ParseInt(c.Get("X-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing user identity",
			})
		}

		c.Locals("userId", userID)

		return c.Next()
	}
}

func RegisterRoutes(app *fiber.App, h *OrderHandler) {
	api := app.Group("/api", NewUserMiddleware())

	orders := api.Group("/orders")
	orders.Post("", h.Create)
	orders.Get("", h.List)
	orders.Get("/:id", h.GetByID)
	orders.Post("/:id/cancel", h.Cancel)
	orders.Patch("/:id/address", h.UpdateAddress)
}
