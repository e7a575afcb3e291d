package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ClientSession bundles the per-principal session core: the controller
// with its helper, notice feed and navigation recorder.
type ClientSession struct {
	Controller *Controller
	Helper     *PersistenceHelper
	Feed       *Feed
	Nav        *RedirectNavigator
}

// Factory builds a ClientSession for an authenticated principal. The
// manager calls Start on the controller and helper itself.
type Factory func(userID uuid.UUID, accessToken, refreshToken string) *ClientSession

type managedSession struct {
	session  *ClientSession
	lastSeen time.Time
}

// Manager hands out one ClientSession per authenticated principal and
// disposes idle ones, so every connected client gets a controller with
// an owned lifecycle instead of module-level state.
type Manager struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*managedSession
	ttl     time.Duration
	factory Factory
	done    chan struct{}
}

func NewManager(ttl time.Duration, factory Factory) *Manager {
	m := &Manager{
		entries: make(map[uuid.UUID]*managedSession),
		ttl:     ttl,
		factory: factory,
		done:    make(chan struct{}),
	}
	go m.evictLoop()
	return m
}

// Acquire returns the principal's session core, creating and starting
// it on first use.
func (m *Manager) Acquire(userID uuid.UUID, accessToken, refreshToken string) *ClientSession {
	m.mu.Lock()
	if entry, ok := m.entries[userID]; ok {
		entry.lastSeen = time.Now()
		m.mu.Unlock()
		return entry.session
	}
	m.mu.Unlock()

	// Built outside the lock; the factory reaches the network.
	cs := m.factory(userID, accessToken, refreshToken)

	m.mu.Lock()
	if entry, ok := m.entries[userID]; ok {
		// Lost the race; keep the first one.
		entry.lastSeen = time.Now()
		m.mu.Unlock()
		cs.Controller.Close()
		return entry.session
	}
	m.entries[userID] = &managedSession{session: cs, lastSeen: time.Now()}
	m.mu.Unlock()

	cs.Controller.Start()
	cs.Helper.Start(cs.Controller.ctx)
	slog.Info("session controller created", "user_id", userID)
	return cs
}

// Drop disposes the principal's session core immediately (sign-out).
func (m *Manager) Drop(userID uuid.UUID) {
	m.mu.Lock()
	entry, ok := m.entries[userID]
	if ok {
		delete(m.entries, userID)
	}
	m.mu.Unlock()

	if ok {
		entry.session.Controller.Close()
	}
}

// Close disposes every managed session and stops the eviction loop.
func (m *Manager) Close() {
	close(m.done)

	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[uuid.UUID]*managedSession)
	m.mu.Unlock()

	for _, entry := range entries {
		entry.session.Controller.Close()
	}
}

func (m *Manager) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var stale []*managedSession
	for id, entry := range m.entries {
		if entry.lastSeen.Before(cutoff) {
			stale = append(stale, entry)
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()

	for _, entry := range stale {
		entry.session.Controller.Close()
	}
	if len(stale) > 0 {
		slog.Info("idle session controllers disposed", "count", len(stale))
	}
}
