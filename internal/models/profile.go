package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the application-level authorization role carried on a Profile.
type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleAdminMaster Role = "admin_master"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleAdminMaster:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleAdminMaster
}

// Profile is the application's per-user record, one-to-one with the
// identity issued by the auth store. Profile.ID always equals the
// identity id; the row is created lazily on first login.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	FullName    *string   `gorm:"size:255" json:"full_name"`
	Role        Role      `gorm:"size:20;default:'user'" json:"role"`
	CompanyName *string   `gorm:"size:255" json:"company_name"`
	Phone       *string   `gorm:"size:50" json:"phone"`
	AvatarURL   *string   `gorm:"type:text" json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayName returns the full name when present, otherwise the local
// part of the email address.
func (p *Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	if at := strings.Index(p.Email, "@"); at > 0 {
		return p.Email[:at]
	}
	return p.Email
}
