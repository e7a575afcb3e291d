package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/authstore"
	"github.com/Thierryn8n/MetalFly/internal/localstore"
	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, store *fakeStore) (*Resolver, *localstore.ClientState, *Feed) {
	t.Helper()
	local := localstore.NewClientState(localstore.NewMemory(), "test", 24*time.Hour)
	feed := NewFeed()
	r := NewResolver(store, local, feed)
	r.RetryStep = time.Millisecond
	return r, local, feed
}

func testProfile(id uuid.UUID, email string, role models.Role) *models.Profile {
	name := "Tester"
	return &models.Profile{ID: id, Email: email, FullName: &name, Role: role}
}

func TestResolveNilIdentity(t *testing.T) {
	r, _, _ := newTestResolver(t, newFakeStore())
	assert.Nil(t, r.Resolve(context.Background(), nil))
}

func TestResolveSuccess(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleAdmin))
	r, local, feed := newTestResolver(t, store)

	// A stale fallback must be superseded by the authoritative read.
	require.NoError(t, local.SaveFallbackProfile(context.Background(), testProfile(id, "ana@example.com", models.RoleUser)))

	profile := r.Resolve(context.Background(), store.identity)
	require.NotNil(t, profile)
	assert.Equal(t, models.RoleAdmin, profile.Role)
	assert.Equal(t, 0, r.Attempts())
	assert.False(t, local.HasFallbackProfiles(context.Background()))
	assert.Empty(t, feed.Drain())
}

func TestResolveTransientRetries(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	store.profileErrs = []error{transientErr(), transientErr()}
	r, _, feed := newTestResolver(t, store)

	profile := r.Resolve(context.Background(), store.identity)
	require.NotNil(t, profile)
	assert.Equal(t, 3, store.profileReads())
	assert.Equal(t, 0, r.Attempts())
	assert.Empty(t, feed.Drain())
}

func TestResolveSingleFlight(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	store.blockProfile = make(chan struct{})
	r, _, _ := newTestResolver(t, store)

	winner := make(chan *models.Profile, 1)
	go func() { winner <- r.Resolve(context.Background(), store.identity) }()
	require.Eventually(t, func() bool { return store.profileReads() == 1 }, time.Second, time.Millisecond)

	// Every overlapping call loses immediately, without touching the store.
	var wg sync.WaitGroup
	losses := make(chan *models.Profile, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			losses <- r.Resolve(context.Background(), store.identity)
		}()
	}
	wg.Wait()
	close(losses)
	for p := range losses {
		assert.Nil(t, p)
	}

	close(store.blockProfile)
	require.NotNil(t, <-winner)
	assert.Equal(t, 1, store.profileReads())
}

func TestResolveAutoRepair(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	store.identity.Metadata = map[string]any{"full_name": "Ana Souza"}
	r, _, feed := newTestResolver(t, store)

	profile := r.Resolve(context.Background(), store.identity)
	require.NotNil(t, profile)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, models.RoleUser, profile.Role)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Ana Souza", *profile.FullName)

	assert.Equal(t, 1, store.calls.upsertProfile)
	assert.Equal(t, 0, store.calls.insertProfile)
	assert.Equal(t, 1, store.calls.insertPricing)
	assert.Equal(t, 0, r.Attempts())
	assert.Empty(t, feed.Drain())
}

func TestResolveAutoRepairUniqueConflict(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	store.upsertErr = uniqueErr()
	r, _, _ := newTestResolver(t, store)

	profile := r.Resolve(context.Background(), store.identity)
	require.NotNil(t, profile)
	assert.Equal(t, 1, store.calls.upsertProfile)
	assert.Equal(t, 1, store.calls.insertProfile)
	assert.Equal(t, 0, r.Attempts())
}

func TestResolveAutoRepairIdentityMismatch(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	// The identity handed to Resolve no longer matches the store's
	// current user; repair must not create a row for the stale id.
	stale := &authstore.Identity{ID: id, Email: "ana@example.com"}
	store.identity = &authstore.Identity{ID: uuid.New(), Email: "bea@example.com"}
	r, local, _ := newTestResolver(t, store)

	profile := r.Resolve(context.Background(), stale)
	require.NotNil(t, profile)
	assert.Equal(t, 0, store.calls.upsertProfile)
	assert.Equal(t, 0, store.calls.insertProfile)
	assert.Equal(t, id, profile.ID)
	assert.True(t, local.HasFallbackProfiles(context.Background()))
}

func TestResolveBypassAuthoritative(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	store.profileErr = recursionErr()
	store.bypassProfile = testProfile(id, "ana@example.com", models.RoleAdminMaster)
	r, local, feed := newTestResolver(t, store)

	profile := r.Resolve(context.Background(), store.identity)
	require.NotNil(t, profile)
	assert.Equal(t, models.RoleAdminMaster, profile.Role)

	// Recursion must not burn transient retries.
	assert.Equal(t, 1, store.profileReads())
	assert.Equal(t, 1, store.calls.profileBypass)
	assert.Equal(t, 1, store.calls.pricingBypass)
	assert.Equal(t, 0, r.Attempts())

	// The bypass result is authoritative, never stored as a fallback.
	assert.False(t, local.HasFallbackProfiles(context.Background()))

	notices := feed.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeConfigError, notices[0].Kind)
	assert.True(t, notices[0].Sticky)
}

func TestResolveBypassFailureFallsBack(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	store.profileErr = recursionErr()
	store.bypassErr = transientErr()
	r, local, feed := newTestResolver(t, store)

	profile := r.Resolve(context.Background(), store.identity)
	require.NotNil(t, profile)
	assert.Equal(t, models.RoleUser, profile.Role)
	assert.True(t, local.HasFallbackProfiles(context.Background()))
	assert.Equal(t, 1, r.Attempts())

	notices := feed.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeConfigError, notices[0].Kind)
}

func TestResolveFullDegradation(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	store.profileErr = transientErr()
	store.bypassErr = transientErr()
	r, local, feed := newTestResolver(t, store)

	profile := r.Resolve(context.Background(), store.identity)
	require.NotNil(t, profile)
	assert.Equal(t, models.RoleUser, profile.Role)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.Equal(t, 3, store.profileReads())
	assert.Equal(t, 1, r.Attempts())

	stored, ok := local.FallbackProfile(context.Background(), id)
	require.True(t, ok)
	assert.Equal(t, profile.ID, stored.ID)

	notices := feed.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeTransient, notices[0].Kind)
	assert.False(t, notices[0].Sticky)
}

func TestResolveFallbackRoleFromBypass(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	store.profileErr = transientErr()
	store.bypassProfile = testProfile(id, "ana@example.com", models.RoleAdmin)
	r, local, _ := newTestResolver(t, store)

	profile := r.Resolve(context.Background(), store.identity)
	require.NotNil(t, profile)
	assert.Equal(t, models.RoleAdmin, profile.Role)
	stored, ok := local.FallbackProfile(context.Background(), id)
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, stored.Role)
}

func TestResolveAttemptCeiling(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	store.profileErr = transientErr()
	store.bypassErr = transientErr()
	r, _, feed := newTestResolver(t, store)

	for i := 0; i < maxResolveAttempts; i++ {
		require.NotNil(t, r.Resolve(context.Background(), store.identity))
	}
	assert.Equal(t, maxResolveAttempts, r.Attempts())
	feed.Drain()

	readsBefore := store.profileReads()
	assert.Nil(t, r.Resolve(context.Background(), store.identity))
	assert.Equal(t, readsBefore, store.profileReads(), "no network activity past the ceiling")

	notices := feed.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeReloadRequired, notices[0].Kind)
	assert.True(t, notices[0].Sticky)

	// A reset reopens resolution.
	r.ResetAttempts()
	store.profileErr = nil
	store.withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	require.NotNil(t, r.Resolve(context.Background(), store.identity))
	assert.Equal(t, 0, r.Attempts())
}

func TestResolveCeilingStickyNoticeDeduplicated(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com")
	r, _, feed := newTestResolver(t, store)
	r.setAttempts(maxResolveAttempts)

	assert.Nil(t, r.Resolve(context.Background(), store.identity))
	assert.Nil(t, r.Resolve(context.Background(), store.identity))

	notices := feed.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeReloadRequired, notices[0].Kind)
}

func TestResolveCancellationIsSilent(t *testing.T) {
	id := uuid.New()
	store := newFakeStore().withIdentity(id, "ana@example.com").
		withProfile(testProfile(id, "ana@example.com", models.RoleUser))
	store.blockProfile = make(chan struct{})
	r, local, feed := newTestResolver(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *models.Profile, 1)
	go func() { done <- r.Resolve(ctx, store.identity) }()

	require.Eventually(t, func() bool { return store.profileReads() >= 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case p := <-done:
		assert.Nil(t, p)
	case <-time.After(time.Second):
		t.Fatal("resolve did not return after cancellation")
	}

	assert.Equal(t, 0, r.Attempts(), "a canceled cycle is not counted")
	assert.Empty(t, feed.Drain())
	assert.False(t, local.HasFallbackProfiles(context.Background()))
}
