package store

import (
	"github.com/Thierryn8n/MetalFly/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StorePlugin struct{}

func New() *StorePlugin {
	return &StorePlugin{}
}

func (p *StorePlugin) ID() string { return "store" }

func (p *StorePlugin) Models() []interface{} {
	return []interface{}{
		&ProductCategory{},
		&Product{},
		&CartItem{},
		&StoreOrder{},
		&StoreOrderItem{},
	}
}

func (p *StorePlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewStoreService(db)
	handler := NewStoreHandler(svc)

	router.Get("/store/categories", handler.ListCategories)
	router.Get("/store/products", handler.ListProducts)
	router.Get("/store/products/:slug", handler.GetProduct)

	router.Get("/store/cart", handler.ListCart)
	router.Post("/store/cart", handler.AddToCart)
	router.Put("/store/cart/:id", handler.UpdateCartItem)
	router.Delete("/store/cart/:id", handler.RemoveCartItem)

	router.Post("/store/checkout", handler.Checkout)
	router.Get("/store/orders", handler.ListOrders)
	router.Get("/store/orders/:id", handler.GetOrder)
	router.Post("/store/orders/:id/cancel", handler.CancelOrder)
}

func (p *StorePlugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewStoreService(db)
	handler := NewStoreHandler(svc)

	router.Post("/store/categories", handler.CreateCategory)
	router.Put("/store/categories/:id", handler.UpdateCategory)
	router.Delete("/store/categories/:id", handler.DeleteCategory)

	router.Post("/store/products", handler.CreateProduct)
	router.Put("/store/products/:id", handler.UpdateProduct)
	router.Delete("/store/products/:id", handler.DeleteProduct)
}
