package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/localstore"
)

// DefaultLandingPath is where a consumed empty redirect target lands.
const DefaultLandingPath = "/dashboard"

// PersistenceHelper is the opportunistic recovery and cache layer. It
// never owns canonical state; it only nudges the controller and manages
// the advisory snapshot and redirect keys.
type PersistenceHelper struct {
	ctrl  *Controller
	local *localstore.ClientState

	// Delay before the recovery probe, so the controller's own
	// bootstrap finishes first.
	Delay time.Duration

	attempted atomic.Bool
}

func NewPersistenceHelper(ctrl *Controller, local *localstore.ClientState) *PersistenceHelper {
	return &PersistenceHelper{ctrl: ctrl, local: local, Delay: time.Second}
}

// Start schedules the one-shot lost-session probe.
func (h *PersistenceHelper) Start(ctx context.Context) {
	go func() {
		select {
		case <-time.After(h.Delay):
		case <-ctx.Done():
			return
		}
		h.TryRecover(ctx)
	}()
}

// TryRecover checks for signs of a previously-authenticated-but-lost
// session (a lingering auth token or any fallback profile) and invokes
// RestoreSession at most once per helper lifetime. Returns whether a
// recovery was attempted.
func (h *PersistenceHelper) TryRecover(ctx context.Context) bool {
	state := h.ctrl.State()
	if state.User != nil || state.Loading {
		return false
	}

	if !h.local.HasAuthToken(ctx) && !h.local.HasFallbackProfiles(ctx) {
		return false
	}

	if !h.attempted.CompareAndSwap(false, true) {
		return false
	}

	slog.Info("possible lost session detected, attempting recovery")
	h.ctrl.RestoreSession()
	return true
}

// CacheUserData snapshots the current profile with the originating path
// under the fixed cache key.
func (h *PersistenceHelper) CacheUserData(ctx context.Context, currentPath string) error {
	state := h.ctrl.State()
	if state.Profile == nil {
		return errors.New("no profile to cache")
	}

	return h.local.SaveSnapshot(ctx, localstore.Snapshot{
		Profile:     state.Profile,
		Timestamp:   time.Now(),
		CurrentPath: currentPath,
	})
}

// CachedUserData returns the snapshot when it is inside the freshness
// window; expired or unreadable snapshots are purged and reported
// absent.
func (h *PersistenceHelper) CachedUserData(ctx context.Context) (*localstore.Snapshot, bool) {
	return h.local.Snapshot(ctx)
}

// ClearSavedData purges both the redirect target and the snapshot.
func (h *PersistenceHelper) ClearSavedData(ctx context.Context) error {
	if err := h.local.ClearRedirect(ctx); err != nil {
		return err
	}
	return h.local.ClearSnapshot(ctx)
}

// SaveCurrentLocation records the path to return to after login.
func (h *PersistenceHelper) SaveCurrentLocation(ctx context.Context, path string) error {
	return h.local.SaveRedirect(ctx, path)
}

// RedirectToSavedLocation consumes and returns the saved path, or the
// default landing route when nothing was saved.
func (h *PersistenceHelper) RedirectToSavedLocation(ctx context.Context) string {
	if path := h.local.ConsumeRedirect(ctx); path != "" {
		return path
	}
	return DefaultLandingPath
}
