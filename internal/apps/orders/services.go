package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Thierryn8n/MetalFly/internal/apps/calculator"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTitleRequired     = errors.New("order title is required")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

type OrderService struct {
	db   *gorm.DB
	calc *calculator.CalculatorService
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, calc: calculator.NewCalculatorService(db)}
}

// Create opens a draft order. Costs are derived from the pricing
// pipeline immediately so the draft already carries an estimate.
func (s *OrderService) Create(userID uuid.UUID, req OrderRequest) (*Order, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	quote, err := s.calc.Quote(userID, calculator.QuoteRequest{
		GateType: req.GateType,
		WidthM:   req.WidthM,
		HeightM:  req.HeightM,
	})
	if err != nil {
		return nil, err
	}

	order := Order{
		ID:           uuid.New(),
		UserID:       userID,
		ClientID:     req.ClientID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		GateType:     req.GateType,
		WidthM:       req.WidthM,
		HeightM:      req.HeightM,
		MaterialCost: quote.BladeCost + quote.PaintingCost + quote.MotorCost,
		LaborCost:    quote.LaborCost,
		TotalPrice:   quote.Total,
		Status:       StatusDraft,
	}
	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

func (s *OrderService) Get(userID, orderID uuid.UUID) (*Order, error) {
	var order Order
	err := s.db.Scopes(scope.ForOwner(userID)).Preload("Client").First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &order, nil
}

func (s *OrderService) List(userID uuid.UUID, status Status, limit, offset int) ([]Order, int64, error) {
	q := s.db.Model(&Order{}).Scopes(scope.ForOwner(userID))
	if status != "" {
		if !status.Valid() {
			return nil, 0, ErrInvalidStatus
		}
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var list []Order
	if err := q.Preload("Client").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return list, total, nil
}

// Update rewrites the order's job fields and re-derives costs. Only
// draft and quoted orders may change shape.
func (s *OrderService) Update(userID, orderID uuid.UUID, req OrderRequest) (*Order, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	order, err := s.Get(userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusDraft && order.Status != StatusQuoted {
		return nil, ErrInvalidTransition
	}

	quote, err := s.calc.Quote(userID, calculator.QuoteRequest{
		GateType: req.GateType,
		WidthM:   req.WidthM,
		HeightM:  req.HeightM,
	})
	if err != nil {
		return nil, err
	}

	order.ClientID = req.ClientID
	order.Title = strings.TrimSpace(req.Title)
	order.Description = req.Description
	order.GateType = req.GateType
	order.WidthM = req.WidthM
	order.HeightM = req.HeightM
	order.MaterialCost = quote.BladeCost + quote.PaintingCost + quote.MotorCost
	order.LaborCost = quote.LaborCost
	order.TotalPrice = quote.Total

	if err := s.db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

// Transition moves the order along the workflow, enforcing the allowed
// edges.
func (s *OrderService) Transition(userID, orderID uuid.UUID, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.Get(userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	order.Status = next
	if err := s.db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}
	return order, nil
}

func (s *OrderService) Delete(userID, orderID uuid.UUID) error {
	res := s.db.Scopes(scope.ForOwner(userID)).Delete(&Order{}, "id = ?", orderID)
	if res.Error != nil {
		return fmt.Errorf("delete order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
