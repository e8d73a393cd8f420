package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
	"github.com/rahul-codes-hash/microservices/internal/catalog/repository"
	"github.com/rahul-codes-hash/microservices/internal/catalog/service"
	"github.com/rahul-codes-hash/microservices/pkg/utils"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service  service.CatalogService
	logger   *zap.Logger
	validate *validator.Validate
}

func NewCatalogHandler(service service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	input := new(domain.CreateProductInput)

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn("failed to parse body in create product", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	id, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(product)
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	search := c.Query("search", "")

	if page < 1 {
		page = 1
	}

	products, total, err := h.service.ListProducts(c.UserContext(), limit, (page-1)*limit, search)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{
		"products": products,
		"meta": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	input := new(domain.UpdateProductInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.service.UpdateProduct(c.UserContext(), id, input); err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{"status": "updated"})
}

func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

type quoteInput struct {
	ProductIDs []int64 `json:"product_ids" validate:"required,min=1"`
}

// Quote serves the price snapshot order placement starts from.
func (h *CatalogHandler) Quote(c *fiber.Ctx) error {
	input := new(quoteInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	quotes, err := h.service.Quote(c.UserContext(), input.ProductIDs)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{"quotes": quotes})
}

func (h *CatalogHandler) Reserve(c *fiber.Ctx) error {
	input := new(domain.ReserveInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	id, err := h.service.Reserve(c.UserContext(), input)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reservation_id": id})
}

func (h *CatalogHandler) ReleaseReservation(c *fiber.Ctx) error {
	return h.closeReservation(c, h.service.Release)
}

func (h *CatalogHandler) CommitReservation(c *fiber.Ctx) error {
	return h.closeReservation(c, h.service.Commit)
}

func (h *CatalogHandler) closeReservation(c *fiber.Ctx, close func(ctx context.Context, id int64) error) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reservation id"})
	}

	if err := close(c.UserContext(), id); err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *CatalogHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "ProductNotFound",
		})
	case errors.Is(err, repository.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "InsufficientStock",
		})
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "ReservationNotFound",
		})
	case errors.Is(err, repository.ErrReservationClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "ReservationClosed",
		})
	default:
		h.logger.Error("unhandled catalog error", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
