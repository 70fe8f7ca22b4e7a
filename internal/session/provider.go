package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/rbac"
)

// Principal is what the identity backend knows about a signed-in identity.
type Principal struct {
	ID    uuid.UUID
	Email string
}

// Backend is the identity backend boundary: credential checks plus an
// auth-state stream. Its error taxonomy passes through to callers
// unmodified.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	SignOut(ctx context.Context) error
	// SubscribeAuthState registers a callback invoked with the principal on
	// every auth-state change (nil on sign-out) and returns an unsubscribe
	// func.
	SubscribeAuthState(cb func(p *Principal)) (unsubscribe func())
	// CurrentPrincipal is a synchronous snapshot of the signed-in identity.
	CurrentPrincipal() *Principal
}

// ProfileStore is the slice of the entity store the provider needs.
type ProfileStore interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.User, bool, error)
	Create(ctx context.Context, user *models.User) error
	TouchLogin(ctx context.Context, id uuid.UUID) error
}

// Provider bridges the identity backend's asynchronous auth-state stream
// into one current-user value plus derived permissions. It is the single
// owner of the "current user" the rest of the application sees; nothing
// else mutates it.
type Provider struct {
	backend  Backend
	profiles ProfileStore

	mu      sync.Mutex
	current *models.User
	loading bool
	seq     uint64 // arrival order of auth-state events, for last-event-wins
	unsub   func()
}

func NewProvider(backend Backend, profiles ProfileStore) *Provider {
	return &Provider{backend: backend, profiles: profiles, loading: true}
}

// Initialize subscribes to the auth-state stream. Exactly one subscription
// is held for the provider's lifetime; call Close to release it. The
// loading flag flips false after the first event of any kind.
func (p *Provider) Initialize(ctx context.Context) {
	if p.unsub != nil {
		return
	}
	p.unsub = p.backend.SubscribeAuthState(func(principal *Principal) {
		p.handleAuthState(ctx, principal)
	})
}

// Close releases the stream subscription.
func (p *Provider) Close() {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
}

func (p *Provider) handleAuthState(ctx context.Context, principal *Principal) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.loading = false
	if principal == nil {
		p.current = nil
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	// The profile fetch is keyed to this event's sequence number; if a
	// later event arrives while it is in flight, its result is discarded
	// (last-event-wins).
	go p.resolveProfile(ctx, principal, seq)
}

func (p *Provider) resolveProfile(ctx context.Context, principal *Principal, seq uint64) {
	user, err := p.loadOrCreate(ctx, principal)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return // superseded by a later auth-state event
	}
	if err != nil {
		// Recovered: the application keeps running with no current user.
		slog.Error("profile load failed", "principal", principal.ID, "error", err)
		p.current = nil
		return
	}
	p.current = user
}

func (p *Provider) loadOrCreate(ctx context.Context, principal *Principal) (*models.User, error) {
	user, found, err := p.profiles.ByID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if found {
		if user.Active {
			if err := p.profiles.TouchLogin(ctx, user.ID); err != nil {
				slog.Error("last-login refresh failed", "user", user.ID, "error", err)
			}
		}
		return user, nil
	}

	// First sign-in: synthesize a default viewer profile. The permission
	// set is denormalized from the role table at this moment and is not
	// re-synced later.
	user = DefaultProfile(principal)
	if err := p.profiles.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DefaultProfile builds the profile created on first sign-in: role viewer,
// active, display name derived from the email local-part.
func DefaultProfile(principal *Principal) *models.User {
	local, _, _ := strings.Cut(principal.Email, "@")
	return &models.User{
		ID:          principal.ID,
		Email:       principal.Email,
		DisplayName: local,
		Role:        rbac.RoleViewer,
		Permissions: rbac.PermissionsFor(rbac.RoleViewer),
		Active:      true,
	}
}

// SignIn delegates to the identity backend; authentication failures
// propagate to the caller unmodified.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	_, err := p.backend.SignIn(ctx, email, password)
	return err
}

// SignOut delegates to the identity backend and clears the current user
// synchronously, without waiting for the next auth-state event.
func (p *Provider) SignOut(ctx context.Context) error {
	err := p.backend.SignOut(ctx)
	p.mu.Lock()
	p.seq++ // anything still in flight is stale now
	p.current = nil
	p.mu.Unlock()
	return err
}

// CurrentUser returns the published current user, nil when signed out.
func (p *Provider) CurrentUser() *models.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Loading reports whether the first auth-state event is still pending.
func (p *Provider) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// HasPermission reports whether the current user holds a capability. False
// when no user is published or the user is inactive. Side-effect free.
func (p *Provider) HasPermission(cap rbac.Capability) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Allowed(cap)
}
