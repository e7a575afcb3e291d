package models

import (
	"time"

	"github.com/google/uuid"
)

// PricingConfig holds the per-user calculator defaults. One row per
// user; a default row is created as a side effect of profile
// auto-repair and can be edited from the calculator settings.
type PricingConfig struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	BladePricePerM2    float64   `gorm:"default:180" json:"blade_price_per_m2"`
	PaintingPricePerM2 float64   `gorm:"default:65" json:"painting_price_per_m2"`
	LaborHourlyRate    float64   `gorm:"default:80" json:"labor_hourly_rate"`
	ProfitMargin       float64   `gorm:"default:10" json:"profit_margin"`
	AdditionalCosts    float64   `gorm:"default:340" json:"additional_costs"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultPricingConfig returns the seed configuration written during
// profile auto-repair.
func DefaultPricingConfig(userID uuid.UUID) *PricingConfig {
	return &PricingConfig{
		UserID:             userID,
		BladePricePerM2:    180,
		PaintingPricePerM2: 65,
		LaborHourlyRate:    80,
		ProfitMargin:       10,
		AdditionalCosts:    340,
	}
}
