package dto

import (
	"github.com/Thierryn8n/MetalFly/internal/authstore"
	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/Thierryn8n/MetalFly/internal/session"
)

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

// SessionStateResponse is the controller's published triple plus the
// drained notices and any pending forced-navigation target.
type SessionStateResponse struct {
	User     *authstore.Identity `json:"user"`
	Profile  *models.Profile     `json:"profile"`
	Loading  bool                `json:"loading"`
	Notices  []session.Notice    `json:"notices,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

type CacheUserDataRequest struct {
	CurrentPath string `json:"current_path"`
}

type SaveLocationRequest struct {
	Path string `json:"path"`
}

type RedirectResponse struct {
	Path string `json:"path"`
}
