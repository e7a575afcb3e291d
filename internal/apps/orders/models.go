package orders

import (
	"time"

	"github.com/Thierryn8n/MetalFly/internal/apps/clients"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the gate-order workflow state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusQuoted     Status = "quoted"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions maps each state to the states it may move to. Cancelled
// is reachable from every non-terminal state; completed only from
// in_progress.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusQuoted, StatusCancelled},
	StatusQuoted:     {StatusApproved, StatusDraft, StatusCancelled},
	StatusApproved:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Order is one gate job for a client, costs frozen from the pricing
// pipeline at quoting time.
type Order struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	ClientID     *uuid.UUID      `gorm:"type:uuid;index" json:"client_id"`
	Title        string          `gorm:"size:255;not null" json:"title"`
	Description  *string         `gorm:"type:text" json:"description"`
	GateType     string          `gorm:"size:20;not null" json:"gate_type"`
	WidthM       float64         `gorm:"not null" json:"width_m"`
	HeightM      float64         `gorm:"not null" json:"height_m"`
	MaterialCost float64         `gorm:"default:0" json:"material_cost"`
	LaborCost    float64         `gorm:"default:0" json:"labor_cost"`
	TotalPrice   float64         `gorm:"default:0" json:"total_price"`
	Status       Status          `gorm:"size:20;not null;default:'draft';index" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
	Client       *clients.Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

type OrderRequest struct {
	ClientID    *uuid.UUID `json:"client_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	GateType    string     `json:"gate_type"`
	WidthM      float64    `json:"width_m"`
	HeightM     float64    `json:"height_m"`
}

type StatusRequest struct {
	Status Status `json:"status"`
}

type OrdersListResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
}
