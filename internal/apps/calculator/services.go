package calculator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidGateType   = errors.New("invalid gate type")
	ErrInvalidDimensions = errors.New("width and height must be positive")
	ErrInvalidWeightBand = errors.New("weight band must satisfy 0 <= min < max")
	ErrBudgetNotFound    = errors.New("budget not found")
	ErrMotorNotFound     = errors.New("motor model not found")
)

const (
	// Steel sheet-metal gates run about 10 kg per square meter; the
	// 1.3 factor is the structural allowance for frame and rails.
	weightPerM2Kg   = 10.0
	weightAllowance = 1.3

	// Installation estimate: two labor hours per square meter.
	laborHoursPerM2 = 2.0
)

type CalculatorService struct {
	db *gorm.DB
}

func NewCalculatorService(db *gorm.DB) *CalculatorService {
	return &CalculatorService{db: db}
}

// Quote runs the pricing pipeline for the given dimensions against the
// user's pricing config and the motor table.
func (s *CalculatorService) Quote(userID uuid.UUID, req QuoteRequest) (*QuoteResponse, error) {
	if !validGateType(req.GateType) {
		return nil, ErrInvalidGateType
	}
	if req.WidthM <= 0 || req.HeightM <= 0 {
		return nil, ErrInvalidDimensions
	}

	cfg, err := s.PricingConfig(userID)
	if err != nil {
		return nil, err
	}

	var motors []MotorModel
	if err := s.db.Order("weight_min_kg").Find(&motors).Error; err != nil {
		return nil, fmt.Errorf("load motor models: %w", err)
	}

	quote := ComputeQuote(req, cfg, motors)
	return &quote, nil
}

// ComputeQuote is the pure pricing pipeline. Kept free of the database
// so quoting stays deterministic and testable.
func ComputeQuote(req QuoteRequest, cfg *models.PricingConfig, motors []MotorModel) QuoteResponse {
	area := req.WidthM * req.HeightM
	weight := area * weightPerM2Kg * weightAllowance

	var motor *MotorModel
	for i := range motors {
		if weight >= motors[i].WeightMinKg && weight <= motors[i].WeightMaxKg {
			motor = &motors[i]
			break
		}
	}

	bladeCost := area * cfg.BladePricePerM2
	paintingCost := area * cfg.PaintingPricePerM2
	motorCost := 0.0
	if motor != nil {
		motorCost = motor.Price
	}
	laborCost := area * laborHoursPerM2 * cfg.LaborHourlyRate

	additional := req.AdditionalCosts
	if additional == 0 {
		additional = cfg.AdditionalCosts
	}

	subtotal := bladeCost + paintingCost + motorCost + laborCost + additional
	total := subtotal * (1 + cfg.ProfitMargin/100)

	return QuoteResponse{
		AreaM2:          area,
		WeightKg:        weight,
		Motor:           motor,
		BladeCost:       bladeCost,
		PaintingCost:    paintingCost,
		MotorCost:       motorCost,
		LaborCost:       laborCost,
		AdditionalCosts: additional,
		Subtotal:        subtotal,
		ProfitMargin:    cfg.ProfitMargin,
		Total:           total,
	}
}

// PricingConfig returns the user's config, creating the default row if
// none exists yet.
func (s *CalculatorService) PricingConfig(userID uuid.UUID) (*models.PricingConfig, error) {
	var cfg models.PricingConfig
	err := s.db.Scopes(scope.ForOwner(userID)).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seeded := models.DefaultPricingConfig(userID)
		if err := s.db.Create(seeded).Error; err != nil {
			return nil, fmt.Errorf("seed pricing config: %w", err)
		}
		return seeded, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pricing config: %w", err)
	}
	return &cfg, nil
}

func (s *CalculatorService) UpdatePricingConfig(userID uuid.UUID, req PricingConfigRequest) (*models.PricingConfig, error) {
	cfg, err := s.PricingConfig(userID)
	if err != nil {
		return nil, err
	}

	cfg.BladePricePerM2 = req.BladePricePerM2
	cfg.PaintingPricePerM2 = req.PaintingPricePerM2
	cfg.LaborHourlyRate = req.LaborHourlyRate
	cfg.ProfitMargin = req.ProfitMargin
	cfg.AdditionalCosts = req.AdditionalCosts

	if err := s.db.Save(cfg).Error; err != nil {
		return nil, fmt.Errorf("save pricing config: %w", err)
	}
	return cfg, nil
}

// SaveBudget quotes and persists in one step; the breakdown is frozen
// into the row as jsonb.
func (s *CalculatorService) SaveBudget(userID uuid.UUID, req SaveBudgetRequest) (*Budget, error) {
	quote, err := s.Quote(userID, req.Quote)
	if err != nil {
		return nil, err
	}

	breakdown, err := json.Marshal(quote)
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown: %w", err)
	}

	budget := Budget{
		ID:         uuid.New(),
		UserID:     userID,
		ClientName: req.ClientName,
		GateType:   req.Quote.GateType,
		WidthM:     req.Quote.WidthM,
		HeightM:    req.Quote.HeightM,
		Total:      quote.Total,
		Breakdown:  breakdown,
	}
	if err := s.db.Create(&budget).Error; err != nil {
		return nil, fmt.Errorf("save budget: %w", err)
	}
	return &budget, nil
}

func (s *CalculatorService) ListBudgets(userID uuid.UUID, limit, offset int) ([]Budget, int64, error) {
	var budgets []Budget
	var total int64

	q := s.db.Model(&Budget{}).Scopes(scope.ForOwner(userID))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count budgets: %w", err)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&budgets).Error; err != nil {
		return nil, 0, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, total, nil
}

func (s *CalculatorService) DeleteBudget(userID, budgetID uuid.UUID) error {
	res := s.db.Scopes(scope.ForOwner(userID)).Delete(&Budget{}, "id = ?", budgetID)
	if res.Error != nil {
		return fmt.Errorf("delete budget: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

func (s *CalculatorService) ListMotors() ([]MotorModel, error) {
	var motors []MotorModel
	if err := s.db.Order("weight_min_kg").Find(&motors).Error; err != nil {
		return nil, fmt.Errorf("list motor models: %w", err)
	}
	return motors, nil
}

func (s *CalculatorService) CreateMotor(req MotorModelRequest) (*MotorModel, error) {
	if req.WeightMinKg < 0 || req.WeightMaxKg <= req.WeightMinKg {
		return nil, ErrInvalidWeightBand
	}
	motor := MotorModel{
		ID:          uuid.New(),
		Name:        req.Name,
		Brand:       req.Brand,
		WeightMinKg: req.WeightMinKg,
		WeightMaxKg: req.WeightMaxKg,
		Price:       req.Price,
	}
	if err := s.db.Create(&motor).Error; err != nil {
		return nil, fmt.Errorf("create motor model: %w", err)
	}
	return &motor, nil
}

func (s *CalculatorService) UpdateMotor(id uuid.UUID, req MotorModelRequest) (*MotorModel, error) {
	if req.WeightMinKg < 0 || req.WeightMaxKg <= req.WeightMinKg {
		return nil, ErrInvalidWeightBand
	}

	var motor MotorModel
	if err := s.db.First(&motor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMotorNotFound
		}
		return nil, fmt.Errorf("load motor model: %w", err)
	}

	motor.Name = req.Name
	motor.Brand = req.Brand
	motor.WeightMinKg = req.WeightMinKg
	motor.WeightMaxKg = req.WeightMaxKg
	motor.Price = req.Price

	if err := s.db.Save(&motor).Error; err != nil {
		return nil, fmt.Errorf("save motor model: %w", err)
	}
	return &motor, nil
}

func (s *CalculatorService) DeleteMotor(id uuid.UUID) error {
	res := s.db.Delete(&MotorModel{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete motor model: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMotorNotFound
	}
	return nil
}

func validGateType(t string) bool {
	for _, g := range GateTypes {
		if g == t {
			return true
		}
	}
	return false
}
