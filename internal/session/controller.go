package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/authstore"
	"github.com/Thierryn8n/MetalFly/internal/localstore"
	"github.com/Thierryn8n/MetalFly/internal/models"
)

// Phase is the controller's lifecycle state.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseBootstrapping
	PhaseAuthenticated
	PhaseAnonymous
	PhaseDisposed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseBootstrapping:
		return "bootstrapping"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	case PhaseDisposed:
		return "disposed"
	}
	return "unknown"
}

// State is the triple every consumer reads. Absence of a profile after
// loading completes is the only degradation signal consumers see.
type State struct {
	User    *authstore.Identity `json:"user"`
	Profile *models.Profile     `json:"profile"`
	Loading bool                `json:"loading"`
	Phase   Phase               `json:"-"`
}

// Controller is the single source of truth for {user, profile, loading}
// for one client application instance. It bootstraps once, follows
// auth-state notifications for its lifetime, and guarantees at most one
// profile resolution in flight at a time (via the resolver's guard).
type Controller struct {
	store    authstore.Store
	local    *localstore.ClientState
	resolver *Resolver
	notifier Notifier
	nav      Navigator

	// BootstrapTimeout forces loading=false even if the store never
	// answers the initial session fetch. A late answer is still applied
	// as long as the controller has not been disposed.
	BootstrapTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	phase       Phase
	user        *authstore.Identity
	profile     *models.Profile
	loading     bool
	safetyTimer *time.Timer
}

func NewController(store authstore.Store, local *localstore.ClientState, notifier Notifier, nav Navigator) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		store:            store,
		local:            local,
		resolver:         NewResolver(store, local, notifier),
		notifier:         notifier,
		nav:              nav,
		BootstrapTimeout: 5 * time.Second,
		ctx:              ctx,
		cancel:           cancel,
		phase:            PhaseUninitialized,
		loading:          true,
	}
}

// State returns the current published triple.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{User: c.user, Profile: c.profile, Loading: c.loading, Phase: c.phase}
}

// Start begins the bootstrap and the auth-event subscription. Safe to
// call once; subsequent calls are no-ops.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.phase != PhaseUninitialized {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseBootstrapping
	c.safetyTimer = time.AfterFunc(c.BootstrapTimeout, c.forceLoadingDone)
	c.mu.Unlock()

	c.wg.Add(2)
	go c.bootstrap()
	go c.watchAuthEvents()
}

// Close moves the controller to Disposed and cancels all in-flight
// resolution work so no stale update lands after teardown.
func (c *Controller) Close() {
	c.mu.Lock()
	c.phase = PhaseDisposed
	if c.safetyTimer != nil {
		c.safetyTimer.Stop()
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) forceLoadingDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading && c.phase != PhaseDisposed {
		slog.Warn("session bootstrap timed out, forcing loading completion")
		c.loading = false
	}
}

func (c *Controller) bootstrap() {
	defer c.wg.Done()
	defer c.setLoading(false)

	session, err := c.store.GetSession(c.ctx)
	if err != nil {
		if authstore.IsCanceled(err) {
			return
		}
		slog.Error("session bootstrap failed", "error", err)
		c.setAnonymous()
		return
	}

	if session == nil {
		c.setAnonymous()
		return
	}

	identity := &session.User
	c.adoptIdentity(identity)
	_ = c.local.SetAuthToken(c.ctx, session.AccessToken)

	// Publish a previously cached fallback immediately so there is
	// something to render while real resolution runs; it is overwritten
	// the moment resolution completes.
	if fallback, ok := c.local.FallbackProfile(c.ctx, identity.ID); ok {
		slog.Info("publishing cached fallback profile pending resolution", "user_id", identity.ID)
		c.publishProfile(fallback)
	}

	if profile := c.resolver.Resolve(c.ctx, identity); profile != nil {
		c.publishProfile(profile)
	}
}

func (c *Controller) watchAuthEvents() {
	defer c.wg.Done()

	events := c.store.AuthEvents()
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleAuthEvent(ev)
		}
	}
}

// handleAuthEvent applies an identity-change notification. Profile
// resolution is re-triggered only when the identity actually changed or
// no profile is held, so token-refresh events do not refetch.
func (c *Controller) handleAuthEvent(ev authstore.AuthEvent) {
	var identity *authstore.Identity
	if ev.Session != nil {
		identity = &ev.Session.User
	}

	if identity == nil {
		slog.Info("identity lost", "event", ev.Kind)
		c.mu.Lock()
		disposed := c.phase == PhaseDisposed
		if !disposed {
			c.user = nil
			c.profile = nil
			c.phase = PhaseAnonymous
			c.loading = false
		}
		c.mu.Unlock()
		if !disposed {
			_ = c.local.PurgeFallbackProfiles(c.ctx)
		}
		return
	}

	c.mu.Lock()
	changed := c.user == nil || c.user.ID != identity.ID
	hasProfile := c.profile != nil
	if c.phase != PhaseDisposed {
		c.user = identity
		c.phase = PhaseAuthenticated
	}
	c.mu.Unlock()

	if ev.Session.AccessToken != "" {
		_ = c.local.SetAuthToken(c.ctx, ev.Session.AccessToken)
	}

	if changed || !hasProfile {
		if profile := c.resolver.Resolve(c.ctx, identity); profile != nil {
			c.publishProfile(profile)
		}
	}
	c.setLoading(false)
}

// RefreshProfile re-runs resolution for the current identity. No-op
// when anonymous.
func (c *Controller) RefreshProfile() {
	c.mu.Lock()
	identity := c.user
	c.mu.Unlock()

	if identity == nil {
		return
	}
	if profile := c.resolver.Resolve(c.ctx, identity); profile != nil {
		c.publishProfile(profile)
	}
}

// ResetFetchAttempts clears the resolver's global retry counter.
func (c *Controller) ResetFetchAttempts() {
	c.resolver.ResetAttempts()
}

// RestoreSession is the best-effort manual recovery path: force a token
// refresh, fall back to a direct identity re-check, then re-adopt and
// resolve.
func (c *Controller) RestoreSession() {
	slog.Info("attempting session restore")
	c.setLoading(true)
	defer c.setLoading(false)

	session, err := c.store.RefreshSession(c.ctx)
	if err != nil {
		if authstore.IsCanceled(err) {
			return
		}
		slog.Error("token refresh failed, falling back to identity check", "error", err)

		identity, uerr := c.store.GetUser(c.ctx)
		if uerr != nil || identity == nil {
			slog.Error("session restore failed", "error", uerr)
			return
		}
		c.adoptIdentity(identity)
		if profile := c.resolver.Resolve(c.ctx, identity); profile != nil {
			c.publishProfile(profile)
		}
		return
	}

	if session == nil {
		return
	}

	slog.Info("session restored", "user_id", session.User.ID)
	identity := &session.User
	c.adoptIdentity(identity)
	_ = c.local.SetAuthToken(c.ctx, session.AccessToken)
	if profile := c.resolver.Resolve(c.ctx, identity); profile != nil {
		c.publishProfile(profile)
	}
}

// SignOut clears local state first for responsiveness, purges durable
// storage, asks the store to invalidate the session, and always forces
// navigation to the login entry point.
func (c *Controller) SignOut() {
	slog.Info("signing out")

	c.mu.Lock()
	c.user = nil
	c.profile = nil
	if c.phase != PhaseDisposed {
		c.phase = PhaseAnonymous
	}
	c.loading = false
	c.mu.Unlock()

	if err := c.local.ClearAll(c.ctx); err != nil {
		slog.Warn("durable state purge failed during sign-out", "error", err)
	}

	if err := c.store.SignOut(c.ctx); err != nil {
		slog.Error("store sign-out failed, proceeding with local logout", "error", err)
		c.notifier.Notify(Notice{Kind: NoticeTransient, Message: "Erro ao sair do sistema"})
	}

	c.nav.ForceNavigate(LoginPath)
}

func (c *Controller) adoptIdentity(identity *authstore.Identity) {
	c.mu.Lock()
	if c.phase != PhaseDisposed {
		c.user = identity
		c.phase = PhaseAuthenticated
	}
	c.mu.Unlock()
}

func (c *Controller) publishProfile(profile *models.Profile) {
	c.mu.Lock()
	if c.phase != PhaseDisposed {
		c.profile = profile
	}
	c.mu.Unlock()
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	if c.phase != PhaseDisposed {
		c.loading = loading
	}
	c.mu.Unlock()
}

func (c *Controller) setAnonymous() {
	c.mu.Lock()
	if c.phase != PhaseDisposed {
		c.user = nil
		c.profile = nil
		c.phase = PhaseAnonymous
	}
	c.mu.Unlock()
}
