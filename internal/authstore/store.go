package authstore

import (
	"context"
	"strings"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
)

// Identity is the auth-store-issued authenticated-user record. The
// application never constructs one; it only receives them.
type Identity struct {
	ID       uuid.UUID      `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// DisplayName derives a human name from the identity metadata, falling
// back to the email local part.
func (i *Identity) DisplayName() string {
	if i.Metadata != nil {
		if name, ok := i.Metadata["full_name"].(string); ok && name != "" {
			return name
		}
	}
	if at := strings.Index(i.Email, "@"); at > 0 {
		return i.Email[:at]
	}
	return "Novo Usuario"
}

// Session is an authenticated session held against the store.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Identity  `json:"user"`
}

// EventKind enumerates the auth-state notifications of interest.
type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
)

// AuthEvent is an identity-change notification. Session is nil on
// sign-out.
type AuthEvent struct {
	Kind    EventKind
	Session *Session
}

// Store is the contract with the hosted auth/database service. A Store
// is bound to one principal; all table operations run under that
// principal's row-level policies except the two bypass reads, which run
// with elevated privilege to route around the policy-recursion defect
// and are authoritative when they succeed.
type Store interface {
	// GetSession returns the current session, or nil when none exists.
	GetSession(ctx context.Context) (*Session, error)

	// GetUser returns the current identity, or nil when unauthenticated.
	GetUser(ctx context.Context) (*Identity, error)

	// AuthEvents delivers identity-change notifications for the life of
	// the store client.
	AuthEvents() <-chan AuthEvent

	// RefreshSession forces a token renewal.
	RefreshSession(ctx context.Context) (*Session, error)

	// SignOut invalidates the server-side session. Callers proceed with
	// local cleanup regardless of the result.
	SignOut(ctx context.Context) error

	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	InsertProfile(ctx context.Context, profile *models.Profile) error

	InsertPricingConfig(ctx context.Context, cfg *models.PricingConfig) error
	UpsertPricingConfig(ctx context.Context, cfg *models.PricingConfig) error

	// GetProfileBypass reads a profile through the privileged
	// policy-bypassing function.
	GetProfileBypass(ctx context.Context, userID uuid.UUID) (*models.Profile, error)

	// GetPricingConfigBypass reads a pricing config through the
	// privileged policy-bypassing function.
	GetPricingConfigBypass(ctx context.Context, userID uuid.UUID) (*models.PricingConfig, error)
}
