package calculator

import (
	"errors"

	"github.com/Thierryn8n/MetalFly/internal/dto"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CalculatorHandler struct {
	svc *CalculatorService
}

func NewCalculatorHandler(svc *CalculatorService) *CalculatorHandler {
	return &CalculatorHandler{svc: svc}
}

func (h *CalculatorHandler) Quote(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	quote, err := h.svc.Quote(userID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidGateType) || errors.Is(err, ErrInvalidDimensions) {
			return badRequest(c, err.Error())
		}
		return internalError(c, "Failed to compute quote")
	}
	return c.JSON(quote)
}

func (h *CalculatorHandler) GetPricingConfig(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	cfg, err := h.svc.PricingConfig(userID)
	if err != nil {
		return internalError(c, "Failed to load pricing config")
	}
	return c.JSON(cfg)
}

func (h *CalculatorHandler) UpdatePricingConfig(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req PricingConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cfg, err := h.svc.UpdatePricingConfig(userID, req)
	if err != nil {
		return internalError(c, "Failed to update pricing config")
	}
	return c.JSON(cfg)
}

func (h *CalculatorHandler) SaveBudget(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req SaveBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	budget, err := h.svc.SaveBudget(userID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidGateType) || errors.Is(err, ErrInvalidDimensions) {
			return badRequest(c, err.Error())
		}
		return internalError(c, "Failed to save budget")
	}
	return c.Status(fiber.StatusCreated).JSON(budget)
}

func (h *CalculatorHandler) ListBudgets(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	budgets, total, err := h.svc.ListBudgets(userID, limit, offset)
	if err != nil {
		return internalError(c, "Failed to list budgets")
	}
	return c.JSON(fiber.Map{"budgets": budgets, "total": total})
}

func (h *CalculatorHandler) DeleteBudget(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	budgetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid budget id")
	}

	if err := h.svc.DeleteBudget(userID, budgetID); err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			return notFound(c, err.Error())
		}
		return internalError(c, "Failed to delete budget")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CalculatorHandler) ListMotors(c *fiber.Ctx) error {
	motors, err := h.svc.ListMotors()
	if err != nil {
		return internalError(c, "Failed to list motor models")
	}
	return c.JSON(motors)
}

// Admin handlers.

func (h *CalculatorHandler) CreateMotor(c *fiber.Ctx) error {
	var req MotorModelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	motor, err := h.svc.CreateMotor(req)
	if err != nil {
		if errors.Is(err, ErrInvalidWeightBand) {
			return badRequest(c, err.Error())
		}
		return internalError(c, "Failed to create motor model")
	}
	return c.Status(fiber.StatusCreated).JSON(motor)
}

func (h *CalculatorHandler) UpdateMotor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid motor id")
	}

	var req MotorModelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	motor, err := h.svc.UpdateMotor(id, req)
	if err != nil {
		if errors.Is(err, ErrInvalidWeightBand) {
			return badRequest(c, err.Error())
		}
		if errors.Is(err, ErrMotorNotFound) {
			return notFound(c, err.Error())
		}
		return internalError(c, "Failed to update motor model")
	}
	return c.JSON(motor)
}

func (h *CalculatorHandler) DeleteMotor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid motor id")
	}

	if err := h.svc.DeleteMotor(id); err != nil {
		if errors.Is(err, ErrMotorNotFound) {
			return notFound(c, err.Error())
		}
		return internalError(c, "Failed to delete motor model")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: msg})
}
