package orders

import (
	"github.com/Thierryn8n/MetalFly/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OrdersPlugin struct{}

func New() *OrdersPlugin {
	return &OrdersPlugin{}
}

func (p *OrdersPlugin) ID() string { return "orders" }

func (p *OrdersPlugin) Models() []interface{} {
	return []interface{}{
		&Order{},
	}
}

func (p *OrdersPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewOrderService(db)
	handler := NewOrderHandler(svc)

	router.Post("/orders", handler.Create)
	router.Get("/orders", handler.List)
	router.Get("/orders/:id", handler.Get)
	router.Put("/orders/:id", handler.Update)
	router.Patch("/orders/:id/status", handler.Transition)
	router.Delete("/orders/:id", handler.Delete)
}
