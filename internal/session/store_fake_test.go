package session

import (
	"context"
	"sync"

	"github.com/Thierryn8n/MetalFly/internal/authstore"
	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
)

// fakeStore is a scriptable in-memory authstore.Store.
type fakeStore struct {
	mu sync.Mutex

	session  *authstore.Session
	identity *authstore.Identity
	profiles map[uuid.UUID]*models.Profile
	pricing  map[uuid.UUID]*models.PricingConfig

	// Forced failures. profileErrs is consumed one per GetProfile call;
	// when exhausted, profileErr (if set) applies, else the map serves.
	profileErrs      []error
	profileErr       error
	upsertErr        error
	insertErr        error
	bypassProfile    *models.Profile
	bypassErr        error
	pricingBypassErr error
	refreshErr       error
	refreshSession   *authstore.Session
	signOutErr       error
	getUserErr       error

	// blockProfile / blockSession, when non-nil, make the respective
	// read wait until the channel closes or the context ends.
	blockProfile chan struct{}
	blockSession chan struct{}

	events chan authstore.AuthEvent

	calls struct {
		getSession    int
		getUser       int
		refresh       int
		signOut       int
		getProfile    int
		upsertProfile int
		insertProfile int
		insertPricing int
		upsertPricing int
		profileBypass int
		pricingBypass int
	}
}

var _ authstore.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[uuid.UUID]*models.Profile),
		pricing:  make(map[uuid.UUID]*models.PricingConfig),
		events:   make(chan authstore.AuthEvent, 8),
	}
}

func (f *fakeStore) withIdentity(id uuid.UUID, email string) *fakeStore {
	identity := &authstore.Identity{ID: id, Email: email}
	f.identity = identity
	f.session = &authstore.Session{AccessToken: "tok-" + email, RefreshToken: "ref-" + email, User: *identity}
	return f
}

func (f *fakeStore) withProfile(p *models.Profile) *fakeStore {
	f.profiles[p.ID] = p
	return f
}

func (f *fakeStore) GetSession(ctx context.Context) (*authstore.Session, error) {
	f.mu.Lock()
	block := f.blockSession
	f.calls.getSession++
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	return &s, nil
}

func (f *fakeStore) GetUser(ctx context.Context) (*authstore.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.getUser++
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	if f.identity == nil {
		return nil, nil
	}
	i := *f.identity
	return &i, nil
}

func (f *fakeStore) AuthEvents() <-chan authstore.AuthEvent {
	return f.events
}

func (f *fakeStore) RefreshSession(ctx context.Context) (*authstore.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.refresh++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.refreshSession != nil {
		s := *f.refreshSession
		return &s, nil
	}
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	return &s, nil
}

func (f *fakeStore) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.signOut++
	return f.signOutErr
}

func (f *fakeStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	block := f.blockProfile
	f.calls.getProfile++
	var forced error
	if len(f.profileErrs) > 0 {
		forced = f.profileErrs[0]
		f.profileErrs = f.profileErrs[1:]
	} else {
		forced = f.profileErr
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if forced != nil {
		return nil, forced
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, &authstore.Error{Code: authstore.CodeNoRows, Status: 406, Message: "no rows"}
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.upsertProfile++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	copied := *profile
	f.profiles[profile.ID] = &copied
	return nil
}

func (f *fakeStore) InsertProfile(ctx context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.insertProfile++
	if f.insertErr != nil {
		return f.insertErr
	}
	copied := *profile
	f.profiles[profile.ID] = &copied
	return nil
}

func (f *fakeStore) InsertPricingConfig(ctx context.Context, cfg *models.PricingConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.insertPricing++
	copied := *cfg
	f.pricing[cfg.UserID] = &copied
	return nil
}

func (f *fakeStore) UpsertPricingConfig(ctx context.Context, cfg *models.PricingConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.upsertPricing++
	copied := *cfg
	f.pricing[cfg.UserID] = &copied
	return nil
}

func (f *fakeStore) GetProfileBypass(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.profileBypass++
	if f.bypassErr != nil {
		return nil, f.bypassErr
	}
	if f.bypassProfile != nil {
		copied := *f.bypassProfile
		return &copied, nil
	}
	if p, ok := f.profiles[userID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, &authstore.Error{Code: authstore.CodeNoRows, Status: 406, Message: "no rows"}
}

func (f *fakeStore) GetPricingConfigBypass(ctx context.Context, userID uuid.UUID) (*models.PricingConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.pricingBypass++
	if f.pricingBypassErr != nil {
		return nil, f.pricingBypassErr
	}
	if cfg, ok := f.pricing[userID]; ok {
		copied := *cfg
		return &copied, nil
	}
	return nil, &authstore.Error{Code: authstore.CodeNoRows, Status: 406, Message: "no rows"}
}

func (f *fakeStore) sessionReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls.getSession
}

func (f *fakeStore) profileReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls.getProfile
}

// test error fixtures

func transientErr() error {
	return &authstore.Error{Status: 503, Message: "service unavailable"}
}

func notFoundErr() error {
	return &authstore.Error{Code: authstore.CodeNoRows, Status: 406, Message: "no rows"}
}

func recursionErr() error {
	return &authstore.Error{Code: authstore.CodePolicyRecursion, Status: 500, Message: "infinite recursion detected in policy"}
}

func uniqueErr() error {
	return &authstore.Error{Code: "23505", Status: 409, Message: "duplicate key"}
}
