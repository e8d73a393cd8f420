package http

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rahul-codes-hash/microservices/internal/order/domain"
	"github.com/rahul-codes-hash/microservices/internal/order/repository"
	"github.com/rahul-codes-hash/microservices/internal/order/service"
	"github.com/rahul-codes-hash/microservices/pkg/utils"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service  service.OrderService
	logger   *zap.Logger
	validate *validator.Validate
}

func NewOrderHandler(service service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

type placeOrderInput struct {
	ShippingAddress domain.Address `json:"shipping_address" validate:"required"`
	IdempotencyKey  *string        `json:"idempotency_key"`
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	input := new(placeOrderInput)

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn("failed to parse body in create", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	userID, ok := c.Locals("userId").(int64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	order, err := h.service.PlaceOrder(c.UserContext(), &domain.OrderRequest{
		UserID:          userID,
		ShippingAddress: input.ShippingAddress,
		IdempotencyKey:  input.IdempotencyKey,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(int64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)

	orders, total, err := h.service.ListOrders(c.UserContext(), userID, page, limit)
	if err != nil {
		return h.mapError(c, err)
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

func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(int64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	orderID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	order, err := h.service.GetOrder(c.UserContext(), orderID, userID)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(order)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(int64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	orderID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	order, err := h.service.CancelOrder(c.UserContext(), orderID, userID)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{"order": order})
}

type updateAddressInput struct {
	ShippingAddress domain.Address `json:"shipping_address" validate:"required"`
}

func (h *OrderHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(int64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	orderID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	input := new(updateAddressInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	order, err := h.service.UpdateShippingAddress(c.UserContext(), orderID, userID, input.ShippingAddress)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{"order": order})
}

// mapError names the violated business rule for the client. Infrastructure
// failures stay generic.
func (h *OrderHandler) mapError(c *fiber.Ctx, err error) error {
	var insufficientStock *domain.InsufficientStockError
	var productUnavailable *domain.ProductUnavailableError

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "EmptyCart",
		})
	case errors.Is(err, domain.ErrMixedCurrency):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "MixedCurrency",
		})
	case errors.As(err, &insufficientStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "InsufficientStock",
			"product_id": insufficientStock.ProductID,
		})
	case errors.As(err, &productUnavailable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      "ProductUnavailable",
			"product_id": productUnavailable.ProductID,
		})
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "InvalidStateTransition",
		})
	case errors.Is(err, domain.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden",
		})
	case errors.Is(err, repository.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "OrderNotFound",
		})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "service temporarily unavailable",
		})
	default:
		h.logger.Error("unhandled order error", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
