package session

import (
	"testing"
	"time"

	"github.com/Thierryn8n/MetalFly/internal/localstore"
	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T) (Factory, *int) {
	t.Helper()
	built := 0
	factory := func(userID uuid.UUID, accessToken, refreshToken string) *ClientSession {
		built++
		store := newFakeStore().withIdentity(userID, "ana@example.com").
			withProfile(testProfile(userID, "ana@example.com", models.RoleUser))
		local := localstore.NewClientState(localstore.NewMemory(), userID.String(), 24*time.Hour)
		feed := NewFeed()
		nav := NewRedirectNavigator()
		ctrl := NewController(store, local, feed, nav)
		ctrl.resolver.RetryStep = time.Millisecond
		helper := NewPersistenceHelper(ctrl, local)
		return &ClientSession{Controller: ctrl, Helper: helper, Feed: feed, Nav: nav}
	}
	return factory, &built
}

func TestManagerAcquireReusesSession(t *testing.T) {
	factory, built := newTestFactory(t)
	m := NewManager(time.Hour, factory)
	defer m.Close()

	id := uuid.New()
	first := m.Acquire(id, "tok", "ref")
	second := m.Acquire(id, "tok", "ref")

	assert.Same(t, first, second)
	assert.Equal(t, 1, *built)
}

func TestManagerAcquirePerPrincipal(t *testing.T) {
	factory, built := newTestFactory(t)
	m := NewManager(time.Hour, factory)
	defer m.Close()

	a := m.Acquire(uuid.New(), "tok-a", "ref-a")
	b := m.Acquire(uuid.New(), "tok-b", "ref-b")

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, *built)
}

func TestManagerDropDisposes(t *testing.T) {
	factory, _ := newTestFactory(t)
	m := NewManager(time.Hour, factory)
	defer m.Close()

	id := uuid.New()
	cs := m.Acquire(id, "tok", "ref")
	require.Eventually(t, func() bool { return !cs.Controller.State().Loading }, 2*time.Second, time.Millisecond)

	m.Drop(id)
	assert.Equal(t, PhaseDisposed, cs.Controller.State().Phase)

	// A fresh acquire builds a new core.
	next := m.Acquire(id, "tok", "ref")
	assert.NotSame(t, cs, next)
}

func TestManagerEvictIdle(t *testing.T) {
	factory, _ := newTestFactory(t)
	m := NewManager(10*time.Millisecond, factory)
	defer m.Close()

	id := uuid.New()
	cs := m.Acquire(id, "tok", "ref")
	time.Sleep(20 * time.Millisecond)

	m.evictIdle()
	assert.Equal(t, PhaseDisposed, cs.Controller.State().Phase)
}

func TestManagerCloseDisposesAll(t *testing.T) {
	factory, _ := newTestFactory(t)
	m := NewManager(time.Hour, factory)

	a := m.Acquire(uuid.New(), "tok-a", "ref-a")
	b := m.Acquire(uuid.New(), "tok-b", "ref-b")

	m.Close()
	assert.Equal(t, PhaseDisposed, a.Controller.State().Phase)
	assert.Equal(t, PhaseDisposed, b.Controller.State().Phase)
}
