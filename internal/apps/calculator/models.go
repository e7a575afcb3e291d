package calculator

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MotorModel is a row of the automation-motor selection table. The
// weight bands must not overlap; selection picks the first band that
// contains the computed gate weight.
type MotorModel struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Brand       string    `gorm:"size:80" json:"brand"`
	WeightMinKg float64   `gorm:"not null;index" json:"weight_min_kg"`
	WeightMaxKg float64   `gorm:"not null" json:"weight_max_kg"`
	Price       float64   `gorm:"not null" json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Budget is a saved calculation, breakdown preserved as written so a
// later pricing-config change cannot rewrite history.
type Budget struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ClientName string         `gorm:"size:255" json:"client_name"`
	GateType   string         `gorm:"size:20;not null" json:"gate_type"`
	WidthM     float64        `gorm:"not null" json:"width_m"`
	HeightM    float64        `gorm:"not null" json:"height_m"`
	Total      float64        `gorm:"not null" json:"total"`
	Breakdown  datatypes.JSON `gorm:"type:jsonb" json:"breakdown"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

var GateTypes = []string{"sliding", "swing", "sectional", "rolling"}

// --- DTOs ---

type QuoteRequest struct {
	GateType        string  `json:"gate_type"`
	WidthM          float64 `json:"width_m"`
	HeightM         float64 `json:"height_m"`
	AdditionalCosts float64 `json:"additional_costs"`
}

type QuoteResponse struct {
	AreaM2          float64     `json:"area_m2"`
	WeightKg        float64     `json:"weight_kg"`
	Motor           *MotorModel `json:"motor"`
	BladeCost       float64     `json:"blade_cost"`
	PaintingCost    float64     `json:"painting_cost"`
	MotorCost       float64     `json:"motor_cost"`
	LaborCost       float64     `json:"labor_cost"`
	AdditionalCosts float64     `json:"additional_costs"`
	Subtotal        float64     `json:"subtotal"`
	ProfitMargin    float64     `json:"profit_margin"`
	Total           float64     `json:"total"`
}

type SaveBudgetRequest struct {
	ClientName string       `json:"client_name"`
	Quote      QuoteRequest `json:"quote"`
}

type PricingConfigRequest struct {
	BladePricePerM2    float64 `json:"blade_price_per_m2"`
	PaintingPricePerM2 float64 `json:"painting_price_per_m2"`
	LaborHourlyRate    float64 `json:"labor_hourly_rate"`
	ProfitMargin       float64 `json:"profit_margin"`
	AdditionalCosts    float64 `json:"additional_costs"`
}

type MotorModelRequest struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	WeightMinKg float64 `json:"weight_min_kg"`
	WeightMaxKg float64 `json:"weight_max_kg"`
	Price       float64 `json:"price"`
}
