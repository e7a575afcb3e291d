package clients

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is an installer's customer record, owned by the installer.
type Client struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Email     *string        `gorm:"size:255" json:"email"`
	Phone     *string        `gorm:"size:50" json:"phone"`
	Address   *string        `gorm:"type:text" json:"address"`
	Notes     *string        `gorm:"type:text" json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type ClientRequest struct {
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

type ClientsListResponse struct {
	Clients []Client `json:"clients"`
	Total   int64    `json:"total"`
}
