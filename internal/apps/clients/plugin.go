package clients

import (
	"github.com/Thierryn8n/MetalFly/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClientsPlugin struct{}

func New() *ClientsPlugin {
	return &ClientsPlugin{}
}

func (p *ClientsPlugin) ID() string { return "clients" }

func (p *ClientsPlugin) Models() []interface{} {
	return []interface{}{
		&Client{},
	}
}

func (p *ClientsPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewClientService(db)
	handler := NewClientHandler(svc)

	router.Post("/clients", handler.Create)
	router.Get("/clients", handler.List)
	router.Get("/clients/:id", handler.Get)
	router.Put("/clients/:id", handler.Update)
	router.Delete("/clients/:id", handler.Delete)
}
