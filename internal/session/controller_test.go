package session

import (
	"context"
	"testing"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/authstore"
	"github.com/Thierryn8n/MetalFly/internal/localstore"
	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	store *fakeStore
	local *localstore.ClientState
	feed  *Feed
	nav   *RedirectNavigator
	ctrl  *Controller
}

func newControllerFixture(t *testing.T, store *fakeStore) *controllerFixture {
	t.Helper()
	local := localstore.NewClientState(localstore.NewMemory(), "test", 24*time.Hour)
	feed := NewFeed()
	nav := NewRedirectNavigator()
	ctrl := NewController(store, local, feed, nav)
	ctrl.resolver.RetryStep = time.Millisecond
	t.Cleanup(ctrl.Close)
	return &controllerFixture{store: store, local: local, feed: feed, nav: nav, ctrl: ctrl}
}

func (fx *controllerFixture) waitSettled(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return !fx.ctrl.State().Loading }, 2*time.Second, time.Millisecond)
}

func TestControllerBootstrapAuthenticated(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	fx := newControllerFixture(t, store)

	fx.ctrl.Start()
	fx.waitSettled(t)

	state := fx.ctrl.State()
	require.NotNil(t, state.User)
	assert.Equal(t, id, state.User.ID)
	require.NotNil(t, state.Profile)
	assert.Equal(t, id, state.Profile.ID)
	assert.Equal(t, PhaseAuthenticated, state.Phase)
	assert.True(t, fx.local.HasAuthToken(context.Background()))
}

func TestControllerBootstrapAnonymous(t *testing.T) {
	fx := newControllerFixture(t, newFakeStore())

	fx.ctrl.Start()
	fx.waitSettled(t)

	state := fx.ctrl.State()
	assert.Nil(t, state.User)
	assert.Nil(t, state.Profile)
	assert.Equal(t, PhaseAnonymous, state.Phase)
}

func TestControllerStartIsIdempotent(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	fx := newControllerFixture(t, store)

	fx.ctrl.Start()
	fx.ctrl.Start()
	fx.ctrl.Start()
	fx.waitSettled(t)

	assert.Equal(t, 1, store.sessionReads())
}

func TestControllerBootstrapSafetyTimeout(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	store.blockSession = make(chan struct{})
	fx := newControllerFixture(t, store)
	fx.ctrl.BootstrapTimeout = 20 * time.Millisecond

	fx.ctrl.Start()
	fx.waitSettled(t)

	// Loading was forced off even though the session fetch never
	// answered; a late answer is still applied.
	assert.Nil(t, fx.ctrl.State().User)
	close(store.blockSession)
	require.Eventually(t, func() bool { return fx.ctrl.State().User != nil }, 2*time.Second, time.Millisecond)
}

func TestControllerBootstrapPublishesCachedFallback(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleAdmin))
	store.blockProfile = make(chan struct{})
	fx := newControllerFixture(t, store)

	cached := testProfile(id, "ana@example.com", models.RoleUser)
	require.NoError(t, fx.local.SaveFallbackProfile(context.Background(), cached))

	fx.ctrl.Start()

	// The cached fallback renders while the real read is in flight.
	require.Eventually(t, func() bool {
		p := fx.ctrl.State().Profile
		return p != nil && p.Role == models.RoleUser
	}, 2*time.Second, time.Millisecond)

	close(store.blockProfile)
	require.Eventually(t, func() bool {
		p := fx.ctrl.State().Profile
		return p != nil && p.Role == models.RoleAdmin
	}, 2*time.Second, time.Millisecond)
}

func TestControllerSignOutAlwaysLandsOnLogin(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	store.signOutErr = transientErr()
	fx := newControllerFixture(t, store)

	fx.ctrl.Start()
	fx.waitSettled(t)
	require.NotNil(t, fx.ctrl.State().User)

	fx.ctrl.SignOut()

	state := fx.ctrl.State()
	assert.Nil(t, state.User)
	assert.Nil(t, state.Profile)
	assert.False(t, state.Loading)
	assert.Equal(t, PhaseAnonymous, state.Phase)
	assert.False(t, fx.local.HasAuthToken(context.Background()))
	assert.Equal(t, LoginPath, fx.nav.Consume())

	notices := fx.feed.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeTransient, notices[0].Kind)
}

func TestControllerAuthEventSignedOutClearsState(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	fx := newControllerFixture(t, store)

	fx.ctrl.Start()
	fx.waitSettled(t)
	require.NotNil(t, fx.ctrl.State().User)
	require.NoError(t, fx.local.SaveFallbackProfile(context.Background(), testProfile(id, "ana@example.com", models.RoleUser)))

	store.events <- authstore.AuthEvent{Kind: authstore.EventSignedOut}

	require.Eventually(t, func() bool { return fx.ctrl.State().User == nil }, 2*time.Second, time.Millisecond)
	assert.Equal(t, PhaseAnonymous, fx.ctrl.State().Phase)
	assert.False(t, fx.local.HasFallbackProfiles(context.Background()))
}

func TestControllerTokenRefreshDoesNotRefetch(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	fx := newControllerFixture(t, store)

	fx.ctrl.Start()
	fx.waitSettled(t)
	require.NotNil(t, fx.ctrl.State().Profile)
	reads := store.profileReads()

	refreshed := *store.session
	refreshed.AccessToken = "tok-rotated"
	store.events <- authstore.AuthEvent{Kind: authstore.EventTokenRefreshed, Session: &refreshed}

	// Drain the event by pushing a second no-op and waiting for it to
	// have been consumed, then confirm no extra profile read happened.
	store.events <- authstore.AuthEvent{Kind: authstore.EventTokenRefreshed, Session: &refreshed}
	require.Eventually(t, func() bool { return len(store.events) == 0 }, 2*time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, reads, store.profileReads())
}

func TestControllerIdentityChangeRefetches(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	fx := newControllerFixture(t, store)

	fx.ctrl.Start()
	fx.waitSettled(t)

	other := uuid.New()
	store.withProfile(testProfile(other, "bea@example.com", models.RoleAdmin))
	next := &authstore.Session{
		AccessToken: "tok-bea",
		User:        authstore.Identity{ID: other, Email: "bea@example.com"},
	}
	store.events <- authstore.AuthEvent{Kind: authstore.EventSignedIn, Session: next}

	require.Eventually(t, func() bool {
		s := fx.ctrl.State()
		return s.User != nil && s.User.ID == other && s.Profile != nil && s.Profile.ID == other
	}, 2*time.Second, time.Millisecond)
}

func TestControllerRefreshProfileWhenAnonymous(t *testing.T) {
	store := newFakeStore()
	fx := newControllerFixture(t, store)
	fx.ctrl.Start()
	fx.waitSettled(t)

	fx.ctrl.RefreshProfile()
	assert.Equal(t, 0, store.profileReads())
}

func TestControllerRestoreSessionViaRefresh(t *testing.T) {
	id := uuid.New()
	store := newFakeStore()
	store.refreshSession = &authstore.Session{
		AccessToken: "tok-restored",
		User:        authstore.Identity{ID: id, Email: "ana@example.com"},
	}
	store.withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	fx := newControllerFixture(t, store)
	fx.ctrl.Start()
	fx.waitSettled(t)
	require.Nil(t, fx.ctrl.State().User)

	fx.ctrl.RestoreSession()

	state := fx.ctrl.State()
	require.NotNil(t, state.User)
	assert.Equal(t, id, state.User.ID)
	require.NotNil(t, state.Profile)
	assert.True(t, fx.local.HasAuthToken(context.Background()))
}

func TestControllerRestoreSessionFallsBackToIdentityCheck(t *testing.T) {
	id := uuid.New()
	store := newFakeStore()
	store.refreshErr = transientErr()
	store.identity = &authstore.Identity{ID: id, Email: "ana@example.com"}
	store.withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	fx := newControllerFixture(t, store)
	fx.ctrl.Start()
	fx.waitSettled(t)

	fx.ctrl.RestoreSession()

	state := fx.ctrl.State()
	require.NotNil(t, state.User)
	assert.Equal(t, id, state.User.ID)
	require.NotNil(t, state.Profile)
}

func TestControllerCloseStopsLateUpdates(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	store.blockProfile = make(chan struct{})
	fx := newControllerFixture(t, store)

	fx.ctrl.Start()
	require.Eventually(t, func() bool { return store.profileReads() >= 1 }, 2*time.Second, time.Millisecond)
	// Close cancels the in-flight read; nothing may land afterwards.
	fx.ctrl.Close()

	state := fx.ctrl.State()
	assert.Equal(t, PhaseDisposed, state.Phase)
	assert.Nil(t, state.Profile)
}
