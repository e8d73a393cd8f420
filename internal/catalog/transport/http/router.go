package http

import "github.com/gofiber/fiber/v2"

// The /internal group is the service-to-service surface the order service
// calls. It is not exposed through the public gateway.
func RegisterRoutes(app *fiber.App, h *CatalogHandler) {
	api := app.Group("/api")

	products := api.Group("/products")
	products.Post("", h.CreateProduct)
	products.Get("", h.ListProducts)
	products.Get("/:id", h.GetProduct)
	products.Patch("/:id", h.UpdateProduct)
	products.Delete("/:id", h.DeleteProduct)

	internal := app.Group("/internal")
	internal.Post("/quotes", h.Quote)
	internal.Post("/reservations", h.Reserve)
	internal.Post("/reservations/:id/release", h.ReleaseReservation)
	internal.Post("/reservations/:id/commit", h.CommitReservation)
}
