package calculator

import (
	"testing"

	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *models.PricingConfig {
	return models.DefaultPricingConfig(uuid.New())
}

func bandedMotors() []MotorModel {
	return []MotorModel{
		{Name: "Light 300", WeightMinKg: 0, WeightMaxKg: 300, Price: 650},
		{Name: "Rio 500", WeightMinKg: 300, WeightMaxKg: 500, Price: 890},
		{Name: "Hub 1000", WeightMinKg: 500, WeightMaxKg: 1000, Price: 1680},
	}
}

func TestComputeQuotePipeline(t *testing.T) {
	cfg := defaultConfig()
	req := QuoteRequest{GateType: "sliding", WidthM: 4, HeightM: 2.5}

	quote := ComputeQuote(req, cfg, bandedMotors())

	// area 10 m2, weight 10*10*1.3 = 130 kg
	assert.InDelta(t, 10.0, quote.AreaM2, 1e-9)
	assert.InDelta(t, 130.0, quote.WeightKg, 1e-9)

	require.NotNil(t, quote.Motor)
	assert.Equal(t, "Light 300", quote.Motor.Name)

	assert.InDelta(t, 10*180.0, quote.BladeCost, 1e-9)
	assert.InDelta(t, 10*65.0, quote.PaintingCost, 1e-9)
	assert.InDelta(t, 650.0, quote.MotorCost, 1e-9)
	assert.InDelta(t, 10*2*80.0, quote.LaborCost, 1e-9)
	assert.InDelta(t, 340.0, quote.AdditionalCosts, 1e-9)

	subtotal := 1800.0 + 650.0 + 650.0 + 1600.0 + 340.0
	assert.InDelta(t, subtotal, quote.Subtotal, 1e-9)
	assert.InDelta(t, subtotal*1.10, quote.Total, 1e-9)
}

func TestComputeQuoteMotorBandSelection(t *testing.T) {
	cfg := defaultConfig()
	motors := bandedMotors()

	cases := []struct {
		name   string
		width  float64
		height float64
		motor  string
	}{
		// 2x1 = 2 m2 → 26 kg
		{"small gate", 2, 1, "Light 300"},
		// 6x4 = 24 m2 → 312 kg
		{"mid gate", 6, 4, "Rio 500"},
		// 8x6 = 48 m2 → 624 kg
		{"large gate", 8, 6, "Hub 1000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote := ComputeQuote(QuoteRequest{GateType: "swing", WidthM: tc.width, HeightM: tc.height}, cfg, motors)
			require.NotNil(t, quote.Motor)
			assert.Equal(t, tc.motor, quote.Motor.Name)
		})
	}
}

func TestComputeQuoteNoMotorInBand(t *testing.T) {
	cfg := defaultConfig()
	// 10x10 = 100 m2 → 1300 kg, beyond every band.
	quote := ComputeQuote(QuoteRequest{GateType: "rolling", WidthM: 10, HeightM: 10}, cfg, bandedMotors())

	assert.Nil(t, quote.Motor)
	assert.Zero(t, quote.MotorCost)
	assert.Greater(t, quote.Total, 0.0)
}

func TestComputeQuoteExplicitAdditionalCostsOverrideConfig(t *testing.T) {
	cfg := defaultConfig()
	quote := ComputeQuote(QuoteRequest{GateType: "sliding", WidthM: 2, HeightM: 2, AdditionalCosts: 1000}, cfg, nil)
	assert.InDelta(t, 1000.0, quote.AdditionalCosts, 1e-9)
}

func TestComputeQuoteMarginScaling(t *testing.T) {
	cfg := defaultConfig()
	cfg.ProfitMargin = 0
	base := ComputeQuote(QuoteRequest{GateType: "sliding", WidthM: 3, HeightM: 2}, cfg, nil)
	assert.InDelta(t, base.Subtotal, base.Total, 1e-9)

	cfg.ProfitMargin = 25
	marked := ComputeQuote(QuoteRequest{GateType: "sliding", WidthM: 3, HeightM: 2}, cfg, nil)
	assert.InDelta(t, base.Subtotal*1.25, marked.Total, 1e-9)
}

func TestValidGateType(t *testing.T) {
	for _, g := range GateTypes {
		assert.True(t, validGateType(g), g)
	}
	assert.False(t, validGateType("drawbridge"))
	assert.False(t, validGateType(""))
}
