package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/authstore"
	"github.com/Thierryn8n/MetalFly/internal/localstore"
	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
)

const (
	// maxResolveAttempts is the global ceiling on resolution cycles per
	// controller instance. Once hit, resolution is refused until
	// ResetAttempts.
	maxResolveAttempts = 5

	// maxDirectReads bounds the transient-error retry loop inside one
	// resolution cycle.
	maxDirectReads = 3
)

// Resolver turns an identity into a Profile, applying the bounded
// retry / repair / bypass / fallback ladder. Resolve never fails its
// caller: it returns the profile to publish, or nil when the previous
// published profile should be left untouched.
type Resolver struct {
	store    authstore.Store
	local    *localstore.ClientState
	notifier Notifier

	// RetryStep is the linear-backoff unit between transient retries.
	RetryStep time.Duration

	mu        sync.Mutex
	resolving bool // guarded transition Idle -> Resolving -> Idle
	attempts  int
}

func NewResolver(store authstore.Store, local *localstore.ClientState, notifier Notifier) *Resolver {
	return &Resolver{
		store:     store,
		local:     local,
		notifier:  notifier,
		RetryStep: time.Second,
	}
}

// tryAcquire attempts the Idle -> Resolving transition.
func (r *Resolver) tryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolving {
		return false
	}
	r.resolving = true
	return true
}

func (r *Resolver) release() {
	r.mu.Lock()
	r.resolving = false
	r.mu.Unlock()
}

// Attempts returns the current value of the global attempt counter.
func (r *Resolver) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *Resolver) addAttempts(delta int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts += delta
	return r.attempts
}

func (r *Resolver) setAttempts(n int) {
	r.mu.Lock()
	r.attempts = n
	r.mu.Unlock()
}

// ResetAttempts clears the global counter, allowing a fresh resolution
// cycle after the ceiling was hit.
func (r *Resolver) ResetAttempts() {
	r.setAttempts(0)
	slog.Info("profile fetch attempt counter reset")
}

// Resolve runs the resolution ladder for the identity. Overlapping
// calls collapse: losers return nil immediately and observe whatever
// the winning call publishes.
func (r *Resolver) Resolve(ctx context.Context, identity *authstore.Identity) *models.Profile {
	if identity == nil {
		return nil
	}

	if !r.tryAcquire() {
		slog.Debug("profile resolution already in flight", "user_id", identity.ID)
		return nil
	}
	defer r.release()

	attempts := r.Attempts()
	if attempts >= maxResolveAttempts {
		slog.Error("profile fetch attempt ceiling reached", "user_id", identity.ID, "attempts", attempts)
		r.notifier.Notify(Notice{
			Kind:    NoticeReloadRequired,
			Message: "Erro de conexao persistente. Por favor, recarregue a pagina.",
			Sticky:  true,
		})
		return nil
	}
	r.addAttempts(1)

	profile, err := r.directRead(ctx, identity.ID)
	if err == nil {
		r.succeed(ctx, profile)
		return profile
	}

	if authstore.IsCanceled(err) {
		// A canceled resolution is a no-op: not counted, not logged,
		// no fallback.
		r.addAttempts(-1)
		return nil
	}

	if authstore.IsNotFound(err) {
		return r.autoRepair(ctx, identity)
	}

	if authstore.IsPolicyRecursion(err) {
		return r.bypassLadder(ctx, identity)
	}

	// Transient retries exhausted, or an unclassified failure.
	slog.Error("profile fetch failed", "user_id", identity.ID, "error", err)
	r.notifier.Notify(Notice{
		Kind:    NoticeTransient,
		Message: "Erro ao carregar perfil. Por favor, tente recarregar a pagina.",
	})
	return r.fallbackProfile(ctx, identity)
}

// directRead fetches the profile row, retrying transient 5xx failures
// with linear backoff.
func (r *Resolver) directRead(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	// Policy recursion surfaces with a 5xx status but will fail
	// identically forever; it must not burn retries.
	retryable := func(err error) bool {
		return authstore.IsTransient(err) && !authstore.IsPolicyRecursion(err)
	}
	policy := RetryPolicy{
		MaxAttempts: maxDirectReads,
		Backoff:     LinearBackoff(r.RetryStep),
		Retryable:   retryable,
	}

	var profile *models.Profile
	err := policy.Do(ctx, func(ctx context.Context) error {
		p, err := r.store.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	return profile, err
}

// autoRepair synthesizes and persists a minimal profile for a first
// login, plus the companion default pricing config (best effort).
func (r *Resolver) autoRepair(ctx context.Context, identity *authstore.Identity) *models.Profile {
	slog.Info("profile row missing, creating", "user_id", identity.ID)

	current, err := r.store.GetUser(ctx)
	if err != nil || current == nil || current.ID != identity.ID {
		if authstore.IsCanceled(err) || ctx.Err() != nil {
			r.addAttempts(-1)
			return nil
		}
		slog.Error("identity lookup failed during profile repair", "user_id", identity.ID, "error", err)
		r.notifier.Notify(Notice{
			Kind:    NoticeTransient,
			Message: "Erro ao carregar perfil. Por favor, tente recarregar a pagina.",
		})
		return r.fallbackProfile(ctx, identity)
	}

	name := current.DisplayName()
	now := time.Now()
	profile := &models.Profile{
		ID:        current.ID,
		Email:     current.Email,
		FullName:  &name,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.store.UpsertProfile(ctx, profile); err != nil {
		if authstore.IsCanceled(err) {
			r.addAttempts(-1)
			return nil
		}
		if !authstore.IsUniqueViolation(err) {
			slog.Error("profile auto-create failed", "user_id", identity.ID, "error", err)
			return r.fallbackProfile(ctx, identity)
		}
		// Uniqueness conflict on upsert: fall back to plain insert.
		if err := r.store.InsertProfile(ctx, profile); err != nil {
			if authstore.IsCanceled(err) {
				r.addAttempts(-1)
				return nil
			}
			slog.Error("profile insert failed", "user_id", identity.ID, "error", err)
			return r.fallbackProfile(ctx, identity)
		}
	}

	r.ensurePricingConfig(ctx, identity.ID)
	slog.Info("profile created", "user_id", profile.ID, "role", profile.Role)
	r.succeed(ctx, profile)
	return profile
}

// ensurePricingConfig seeds the default pricing config row. Failures
// are logged, never propagated.
func (r *Resolver) ensurePricingConfig(ctx context.Context, userID uuid.UUID) {
	cfg := models.DefaultPricingConfig(userID)
	if err := r.store.InsertPricingConfig(ctx, cfg); err != nil {
		slog.Warn("pricing config insert failed, trying upsert", "user_id", userID, "error", err)
		if err := r.store.UpsertPricingConfig(ctx, cfg); err != nil {
			slog.Warn("pricing config upsert failed", "user_id", userID, "error", err)
		}
	}
}

// bypassLadder handles the policy-recursion defect: the normal read
// path will keep failing identically, so go straight to the privileged
// bypass. Its result is authoritative, not a fallback.
func (r *Resolver) bypassLadder(ctx context.Context, identity *authstore.Identity) *models.Profile {
	slog.Error("policy recursion detected on profile read", "user_id", identity.ID)
	r.notifier.Notify(Notice{
		Kind:    NoticeConfigError,
		Message: "Erro de configuracao do banco de dados. Contate o administrador.",
		Sticky:  true,
	})

	profile, err := r.store.GetProfileBypass(ctx, identity.ID)
	if err == nil && profile != nil {
		slog.Info("profile recovered via bypass", "user_id", profile.ID, "role", profile.Role)
		// Warm up the pricing config bypass too; failure is non-fatal
		// and not surfaced.
		_, _ = r.store.GetPricingConfigBypass(ctx, identity.ID)
		r.succeed(ctx, profile)
		return profile
	}

	if authstore.IsCanceled(err) {
		r.addAttempts(-1)
		return nil
	}

	slog.Error("bypass profile read failed", "user_id", identity.ID, "error", err)
	return r.fallbackProfile(ctx, identity)
}

// fallbackProfile synthesizes the degraded local stand-in. The role is
// enriched through one more bypass attempt so role-gated UI stays
// correct whenever the backend is reachable at all.
func (r *Resolver) fallbackProfile(ctx context.Context, identity *authstore.Identity) *models.Profile {
	if ctx.Err() != nil {
		r.addAttempts(-1)
		return nil
	}

	role := models.RoleUser
	if p, err := r.store.GetProfileBypass(ctx, identity.ID); err == nil && p != nil && p.Role.Valid() {
		role = p.Role
		slog.Info("fallback role obtained via bypass", "user_id", identity.ID, "role", role)
	} else if authstore.IsCanceled(err) {
		r.addAttempts(-1)
		return nil
	} else {
		slog.Warn("role bypass lookup failed, defaulting to user", "user_id", identity.ID)
	}

	name := identity.DisplayName()
	now := time.Now()
	fallback := &models.Profile{
		ID:        identity.ID,
		Email:     identity.Email,
		FullName:  &name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	slog.Warn("using local fallback profile", "user_id", identity.ID, "role", role)
	if err := r.local.SaveFallbackProfile(ctx, fallback); err != nil {
		slog.Warn("fallback profile persist failed", "user_id", identity.ID, "error", err)
	}
	return fallback
}

// succeed records a successful authoritative fetch: the attempt counter
// is forgotten and any stored fallback is superseded.
func (r *Resolver) succeed(ctx context.Context, profile *models.Profile) {
	r.setAttempts(0)
	_ = r.local.PurgeFallbackProfiles(ctx)
	slog.Info("profile loaded", "user_id", profile.ID, "role", profile.Role)
}
