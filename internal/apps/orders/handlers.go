package orders

import (
	"errors"

	"github.com/Thierryn8n/MetalFly/internal/apps/calculator"
	"github.com/Thierryn8n/MetalFly/internal/dto"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OrderHandler struct {
	svc *OrderService
}

func NewOrderHandler(svc *OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	order, err := h.svc.Create(userID, req)
	if err != nil {
		if isUserError(err) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to create order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid order id")
	}

	order, err := h.svc.Get(userID, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to load order")
	}
	return c.JSON(order)
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	list, total, err := h.svc.List(userID, Status(c.Query("status")), limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to list orders")
	}
	return c.JSON(OrdersListResponse{Orders: list, Total: total})
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid order id")
	}

	var req OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	order, err := h.svc.Update(userID, orderID, req)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		if isUserError(err) || errors.Is(err, ErrInvalidTransition) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update order")
	}
	return c.JSON(order)
}

func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid order id")
	}

	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	order, err := h.svc.Transition(userID, orderID, req.Status)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		if errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrInvalidTransition) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update order status")
	}
	return c.JSON(order)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid order id")
	}

	if err := h.svc.Delete(userID, orderID); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to delete order")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func isUserError(err error) bool {
	return errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, calculator.ErrInvalidGateType) ||
		errors.Is(err, calculator.ErrInvalidDimensions)
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: msg})
}
