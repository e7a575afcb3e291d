package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
)

// Key layout within a principal's namespace.
const (
	keyAuthToken      = "auth_token"
	keySnapshot       = "cached_user_data"
	keyRedirect       = "redirect_after_login"
	fallbackPrefix    = "fallback_profile_"
	fallbackRetainFor = 7 * 24 * time.Hour
)

// Snapshot is a time-stamped, best-effort copy of the last-known
// profile. Advisory only, never authoritative.
type Snapshot struct {
	Profile     *models.Profile `json:"profile"`
	Timestamp   time.Time       `json:"timestamp"`
	CurrentPath string          `json:"current_path"`
}

// ClientState is the typed view over one principal's durable state.
// The snapshot freshness rule lives here and nowhere else.
type ClientState struct {
	kv     Store
	ns     string
	maxAge time.Duration
}

func NewClientState(kv Store, principal string, snapshotMaxAge time.Duration) *ClientState {
	if snapshotMaxAge <= 0 {
		snapshotMaxAge = 24 * time.Hour
	}
	return &ClientState{kv: kv, ns: "client_state:" + principal + ":", maxAge: snapshotMaxAge}
}

func (s *ClientState) key(k string) string { return s.ns + k }

// SetAuthToken mirrors the opaque token the store client holds, so a
// lost session leaves a detectable trace.
func (s *ClientState) SetAuthToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, s.key(keyAuthToken), []byte(token), 0)
}

func (s *ClientState) HasAuthToken(ctx context.Context) bool {
	_, ok, err := s.kv.Get(ctx, s.key(keyAuthToken))
	return err == nil && ok
}

// SaveFallbackProfile persists a degraded profile under the identity's
// fallback key for redisplay on the next bootstrap.
func (s *ClientState) SaveFallbackProfile(ctx context.Context, profile *models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal fallback profile: %w", err)
	}
	return s.kv.Set(ctx, s.key(fallbackPrefix+profile.ID.String()), data, fallbackRetainFor)
}

// FallbackProfile returns the stored fallback for the identity, if any.
// A corrupt entry is purged and treated as absent.
func (s *ClientState) FallbackProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, bool) {
	key := s.key(fallbackPrefix + userID.String())
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		_ = s.kv.Delete(ctx, key)
		return nil, false
	}
	return &profile, true
}

// HasFallbackProfiles reports whether any fallback entries exist.
func (s *ClientState) HasFallbackProfiles(ctx context.Context) bool {
	keys, err := s.kv.Keys(ctx, s.key(fallbackPrefix))
	return err == nil && len(keys) > 0
}

// PurgeFallbackProfiles removes every fallback entry in the namespace.
func (s *ClientState) PurgeFallbackProfiles(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, s.key(fallbackPrefix))
	if err != nil {
		return err
	}
	return s.kv.Delete(ctx, keys...)
}

// SaveSnapshot writes the session snapshot under the fixed cache key.
func (s *ClientState) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.kv.Set(ctx, s.key(keySnapshot), data, s.maxAge)
}

// Snapshot returns the cached snapshot when it is younger than the
// freshness window; anything older (or unreadable) is purged and
// reported absent.
func (s *ClientState) Snapshot(ctx context.Context) (*Snapshot, bool) {
	key := s.key(keySnapshot)
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = s.kv.Delete(ctx, key)
		return nil, false
	}
	if time.Since(snap.Timestamp) >= s.maxAge {
		_ = s.kv.Delete(ctx, key)
		return nil, false
	}
	return &snap, true
}

func (s *ClientState) ClearSnapshot(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key(keySnapshot))
}

// SaveRedirect records the path to return to after login.
func (s *ClientState) SaveRedirect(ctx context.Context, path string) error {
	return s.kv.Set(ctx, s.key(keyRedirect), []byte(path), 0)
}

// ConsumeRedirect returns and clears the saved path, or "" when none
// was saved.
func (s *ClientState) ConsumeRedirect(ctx context.Context) string {
	key := s.key(keyRedirect)
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return ""
	}
	_ = s.kv.Delete(ctx, key)
	return string(data)
}

func (s *ClientState) ClearRedirect(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key(keyRedirect))
}

// ClearAll wipes the principal's entire namespace. Used by sign-out.
func (s *ClientState) ClearAll(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, s.ns)
	if err != nil {
		return err
	}
	return s.kv.Delete(ctx, keys...)
}
