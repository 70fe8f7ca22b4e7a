package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/rbac"
	"github.com/samatvayoga/backend/internal/session"
)

// fakeBackend is an in-memory identity backend driving the auth-state
// stream by hand.
type fakeBackend struct {
	mu         sync.Mutex
	current    *session.Principal
	subs       []func(*session.Principal)
	subCount   int
	signInErr  error
	signOutErr error
}

func (f *fakeBackend) SignIn(_ context.Context, email, _ string) (*session.Principal, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	p := &session.Principal{ID: uuid.New(), Email: email}
	f.emit(p)
	return p, nil
}

func (f *fakeBackend) SignOut(_ context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.emit(nil)
	return nil
}

func (f *fakeBackend) SubscribeAuthState(cb func(*session.Principal)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, cb)
	f.subCount++
	return func() {}
}

func (f *fakeBackend) CurrentPrincipal() *session.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeBackend) emit(p *session.Principal) {
	f.mu.Lock()
	f.current = p
	subs := append([]func(*session.Principal){}, f.subs...)
	f.mu.Unlock()
	for _, cb := range subs {
		cb(p)
	}
}

// fakeProfiles is an in-memory profile store with an optional gate that
// holds ByID until released, to exercise slow fetches.
type fakeProfiles struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	gate    chan struct{}
	loadErr error
	created []*models.User
	touched []uuid.UUID
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeProfiles) ByID(_ context.Context, id uuid.UUID) (*models.User, bool, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	u, ok := f.users[id]
	return u, ok, nil
}

func (f *fakeProfiles) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	f.created = append(f.created, user)
	return nil
}

func (f *fakeProfiles) TouchLogin(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func waitForUser(t *testing.T, p *session.Provider) *models.User {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.CurrentUser() != nil
	}, time.Second, 5*time.Millisecond)
	return p.CurrentUser()
}

func TestProvider_LoadingFlipsOnFirstEvent(t *testing.T) {
	backend := &fakeBackend{}
	provider := session.NewProvider(backend, newFakeProfiles())
	provider.Initialize(context.Background())
	defer provider.Close()

	assert.True(t, provider.Loading())
	backend.emit(nil)
	assert.False(t, provider.Loading())
	assert.Nil(t, provider.CurrentUser())
}

func TestProvider_PublishesExistingActiveProfile(t *testing.T) {
	backend := &fakeBackend{}
	profiles := newFakeProfiles()
	id := uuid.New()
	profiles.users[id] = &models.User{
		ID:          id,
		Email:       "maya@samatva.org",
		Role:        rbac.RoleModerator,
		Permissions: rbac.PermissionsFor(rbac.RoleModerator),
		Active:      true,
	}

	provider := session.NewProvider(backend, profiles)
	provider.Initialize(context.Background())
	defer provider.Close()

	backend.emit(&session.Principal{ID: id, Email: "maya@samatva.org"})

	user := waitForUser(t, provider)
	assert.Equal(t, id, user.ID)
	assert.True(t, provider.HasPermission(rbac.ManageBlog))
	assert.False(t, provider.HasPermission(rbac.ManageUsers))
	assert.Contains(t, profiles.touched, id)
}

func TestProvider_FirstLoginCreatesDefaultViewer(t *testing.T) {
	backend := &fakeBackend{}
	profiles := newFakeProfiles()
	provider := session.NewProvider(backend, profiles)
	provider.Initialize(context.Background())
	defer provider.Close()

	id := uuid.New()
	backend.emit(&session.Principal{ID: id, Email: "new@user.com"})

	user := waitForUser(t, provider)
	require.Len(t, profiles.created, 1)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "new", user.DisplayName)
	assert.Equal(t, rbac.RoleViewer, user.Role)
	assert.True(t, user.Active)
	assert.Equal(t, rbac.PermissionsFor(rbac.RoleViewer), user.Permissions)
}

func TestProvider_InactiveProfileHasNoPermissions(t *testing.T) {
	backend := &fakeBackend{}
	profiles := newFakeProfiles()
	id := uuid.New()
	profiles.users[id] = &models.User{
		ID:          id,
		Email:       "gone@samatva.org",
		Role:        rbac.RoleAdmin,
		Permissions: rbac.PermissionsFor(rbac.RoleAdmin),
		Active:      false,
	}

	provider := session.NewProvider(backend, profiles)
	provider.Initialize(context.Background())
	defer provider.Close()

	backend.emit(&session.Principal{ID: id, Email: "gone@samatva.org"})

	user := waitForUser(t, provider)
	assert.False(t, user.Active)
	assert.False(t, provider.HasPermission(rbac.ManageUsers))
	assert.Empty(t, profiles.touched, "inactive profiles do not get a last-login refresh")
}

func TestProvider_ProfileLoadFailureRecoversToNoUser(t *testing.T) {
	backend := &fakeBackend{}
	profiles := newFakeProfiles()
	profiles.loadErr = errors.New("backend unavailable")

	provider := session.NewProvider(backend, profiles)
	provider.Initialize(context.Background())
	defer provider.Close()

	backend.emit(&session.Principal{ID: uuid.New(), Email: "x@y.z"})

	// The failure is recovered, not fatal: loading completes with no user.
	require.Eventually(t, func() bool {
		return !provider.Loading()
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, provider.CurrentUser())
	assert.False(t, provider.HasPermission(rbac.ManageBlog))
}

func TestProvider_SlowFetchDoesNotClobberLaterEvent(t *testing.T) {
	backend := &fakeBackend{}
	profiles := newFakeProfiles()
	profiles.gate = make(chan struct{})

	first := uuid.New()
	profiles.users[first] = &models.User{ID: first, Email: "first@x.y", Role: rbac.RoleAdmin, Permissions: rbac.PermissionsFor(rbac.RoleAdmin), Active: true}

	provider := session.NewProvider(backend, profiles)
	provider.Initialize(context.Background())
	defer provider.Close()

	// First event's fetch hangs on the gate; sign-out arrives meanwhile.
	backend.emit(&session.Principal{ID: first, Email: "first@x.y"})
	backend.emit(nil)
	close(profiles.gate)

	// The stale fetch result must be discarded: last event wins.
	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, provider.CurrentUser())
}

func TestProvider_SignOutClearsUserSynchronously(t *testing.T) {
	backend := &fakeBackend{}
	profiles := newFakeProfiles()
	id := uuid.New()
	profiles.users[id] = &models.User{ID: id, Email: "a@b.c", Role: rbac.RoleAdmin, Permissions: rbac.PermissionsFor(rbac.RoleAdmin), Active: true}

	provider := session.NewProvider(backend, profiles)
	provider.Initialize(context.Background())
	defer provider.Close()

	backend.emit(&session.Principal{ID: id, Email: "a@b.c"})
	waitForUser(t, provider)

	require.NoError(t, provider.SignOut(context.Background()))
	// No stale-user flash: cleared before any further stream event lands.
	assert.Nil(t, provider.CurrentUser())
}

func TestProvider_InitializeSubscribesOnce(t *testing.T) {
	backend := &fakeBackend{}
	provider := session.NewProvider(backend, newFakeProfiles())
	provider.Initialize(context.Background())
	provider.Initialize(context.Background())
	defer provider.Close()

	assert.Equal(t, 1, backend.subCount)
}

func TestProvider_SignInPropagatesBackendError(t *testing.T) {
	backend := &fakeBackend{signInErr: errors.New("invalid email or password")}
	provider := session.NewProvider(backend, newFakeProfiles())

	err := provider.SignIn(context.Background(), "a@b.c", "nope")
	assert.EqualError(t, err, "invalid email or password")
}
