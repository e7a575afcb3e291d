package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Slug        string    `gorm:"size:140;not null;uniqueIndex" json:"slug"`
	Description *string   `gorm:"type:text" json:"description"`
	ImageURL    *string   `gorm:"type:text" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID    *uuid.UUID       `gorm:"type:uuid;index" json:"category_id"`
	Name          string           `gorm:"size:255;not null" json:"name"`
	Slug          string           `gorm:"size:280;not null;uniqueIndex" json:"slug"`
	Description   *string          `gorm:"type:text" json:"description"`
	Price         float64          `gorm:"not null" json:"price"`
	StockQuantity int              `gorm:"default:0" json:"stock_quantity"`
	ImageURL      *string          `gorm:"type:text" json:"image_url"`
	IsActive      bool             `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
	Category      *ProductCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// OrderStatus is the storefront fulfilment state, distinct from the
// gate-order workflow.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

type StoreOrder struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Status          OrderStatus      `gorm:"size:20;not null;default:'pending'" json:"status"`
	TotalAmount     float64          `gorm:"not null" json:"total_amount"`
	ShippingAddress *string          `gorm:"type:text" json:"shipping_address"`
	Notes           *string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Items           []StoreOrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

type StoreOrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// --- DTOs ---

type CartAddRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequest struct {
	ShippingAddress *string `json:"shipping_address"`
	Notes           *string `json:"notes"`
}

type ProductRequest struct {
	CategoryID    *uuid.UUID `json:"category_id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   *string    `json:"description"`
	Price         float64    `json:"price"`
	StockQuantity int        `json:"stock_quantity"`
	ImageURL      *string    `json:"image_url"`
	IsActive      bool       `json:"is_active"`
}

type CategoryRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

type ProductsListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
}
