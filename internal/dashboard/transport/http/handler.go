package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	service *service.DashboardService
	logger  *zap.Logger
}

func NewDashboardHandler(service *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
	}
}

func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.GetSummary(c.UserContext())
	if err != nil {
		h.logger.Error("summary error", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(summary)
}

func (h *DashboardHandler) ListOrders(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)

	if page < 1 {
		page = 1
	}

	orders, total, err := h.service.ListOrders(c.UserContext(), limit, (page-1)*limit)
	if err != nil {
		h.logger.Error("list orders error", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"meta": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

func RegisterRoutes(app *fiber.App, h *DashboardHandler) {
	api := app.Group("/api/dashboard")
	api.Get("/summary", h.Summary)
	api.Get("/orders", h.ListOrders)
}
