package store

import (
	"errors"

	"github.com/Thierryn8n/MetalFly/internal/dto"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StoreHandler struct {
	svc *StoreService
}

func NewStoreHandler(svc *StoreService) *StoreHandler {
	return &StoreHandler{svc: svc}
}

// --- Catalog ---

func (h *StoreHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.svc.ListCategories()
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to list categories")
	}
	return c.JSON(categories)
}

func (h *StoreHandler) ListProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	list, err := h.svc.ListProducts(c.Query("category"), c.Query("search"), limit, offset)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to list products")
	}
	return c.JSON(list)
}

func (h *StoreHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.svc.GetProductBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to load product")
	}
	return c.JSON(product)
}

// --- Cart ---

func (h *StoreHandler) ListCart(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	items, err := h.svc.ListCart(userID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to load cart")
	}
	return c.JSON(fiber.Map{
		"items": items,
		"total": CartTotal(items),
	})
}

func (h *StoreHandler) AddToCart(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req CartAddRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	item, err := h.svc.AddToCart(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInsufficientStock):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProductNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to add to cart")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *StoreHandler) UpdateCartItem(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid cart item id")
	}

	var req CartUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	item, err := h.svc.UpdateCartItem(userID, itemID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInsufficientStock):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrCartItemNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update cart item")
	}
	return c.JSON(item)
}

func (h *StoreHandler) RemoveCartItem(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid cart item id")
	}

	if err := h.svc.RemoveCartItem(userID, itemID); err != nil {
		if errors.Is(err, ErrCartItemNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to remove cart item")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Orders ---

func (h *StoreHandler) Checkout(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	order, err := h.svc.Checkout(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInsufficientStock):
			return fail(c, fiber.StatusConflict, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to place order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *StoreHandler) ListOrders(c *fiber.Ctx) error {
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

	orders, err := h.svc.ListOrders(userID, limit, offset)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to list orders")
	}
	return c.JSON(orders)
}

func (h *StoreHandler) GetOrder(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid order id")
	}

	order, err := h.svc.GetOrder(userID, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to load order")
	}
	return c.JSON(order)
}

func (h *StoreHandler) CancelOrder(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid order id")
	}

	order, err := h.svc.CancelOrder(userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, ErrOrderNotCancellable):
			return fail(c, fiber.StatusConflict, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to cancel order")
	}
	return c.JSON(order)
}

// --- Admin catalog management ---

func (h *StoreHandler) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	category, err := h.svc.CreateCategory(&req)
	if err != nil {
		if errors.Is(err, ErrNameRequired) || errors.Is(err, ErrSlugRequired) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *StoreHandler) UpdateCategory(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid category id")
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	category, err := h.svc.UpdateCategory(categoryID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrSlugRequired):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrCategoryNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update category")
	}
	return c.JSON(category)
}

func (h *StoreHandler) DeleteCategory(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid category id")
	}

	if err := h.svc.DeleteCategory(categoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to delete category")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *StoreHandler) CreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	product, err := h.svc.CreateProduct(&req)
	if err != nil {
		if errors.Is(err, ErrNameRequired) || errors.Is(err, ErrSlugRequired) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *StoreHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid product id")
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	product, err := h.svc.UpdateProduct(productID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrSlugRequired):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProductNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update product")
	}
	return c.JSON(product)
}

func (h *StoreHandler) DeleteProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid product id")
	}

	if err := h.svc.DeleteProduct(productID); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: msg})
}
