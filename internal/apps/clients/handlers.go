package clients

import (
	"errors"

	"github.com/Thierryn8n/MetalFly/internal/dto"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ClientHandler struct {
	svc *ClientService
}

func NewClientHandler(svc *ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

func (h *ClientHandler) Create(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req ClientRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	client, err := h.svc.Create(userID, req)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to create client")
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

func (h *ClientHandler) Get(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	clientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid client id")
	}

	client, err := h.svc.Get(userID, clientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to load client")
	}
	return c.JSON(client)
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
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

	list, total, err := h.svc.List(userID, c.Query("search"), limit, offset)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to list clients")
	}
	return c.JSON(ClientsListResponse{Clients: list, Total: total})
}

func (h *ClientHandler) Update(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	clientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid client id")
	}

	var req ClientRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	client, err := h.svc.Update(userID, clientID, req)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		if errors.Is(err, ErrClientNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update client")
	}
	return c.JSON(client)
}

func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	clientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid client id")
	}

	if err := h.svc.Delete(userID, clientID); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to delete client")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: msg})
}
