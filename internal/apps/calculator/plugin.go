package calculator

import (
	"github.com/Thierryn8n/MetalFly/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CalculatorPlugin struct{}

func New() *CalculatorPlugin {
	return &CalculatorPlugin{}
}

func (p *CalculatorPlugin) ID() string { return "calculator" }

func (p *CalculatorPlugin) Models() []interface{} {
	return []interface{}{
		&MotorModel{},
		&Budget{},
	}
}

func (p *CalculatorPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewCalculatorService(db)
	handler := NewCalculatorHandler(svc)

	router.Post("/calculator/quote", handler.Quote)
	router.Get("/calculator/pricing-config", handler.GetPricingConfig)
	router.Put("/calculator/pricing-config", handler.UpdatePricingConfig)
	router.Get("/calculator/motors", handler.ListMotors)

	router.Post("/budgets", handler.SaveBudget)
	router.Get("/budgets", handler.ListBudgets)
	router.Delete("/budgets/:id", handler.DeleteBudget)
}

func (p *CalculatorPlugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewCalculatorService(db)
	handler := NewCalculatorHandler(svc)

	router.Post("/motors", handler.CreateMotor)
	router.Put("/motors/:id", handler.UpdateMotor)
	router.Delete("/motors/:id", handler.DeleteMotor)
}
