package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/store"
)

// Profiles adapts the generic user store to the ProfileStore boundary the
// provider needs.
type Profiles struct {
	users *store.Store[*models.User]
}

func NewProfiles(users *store.Store[*models.User]) *Profiles {
	return &Profiles{users: users}
}

var _ ProfileStore = (*Profiles)(nil)

func (p *Profiles) ByID(ctx context.Context, id uuid.UUID) (*models.User, bool, error) {
	return p.users.Get(ctx, id)
}

// Create persists a synthesized first-login profile. The profile keeps the
// principal's id as its key so later auth-state events resolve to it.
func (p *Profiles) Create(ctx context.Context, user *models.User) error {
	return p.users.Put(ctx, user)
}

func (p *Profiles) TouchLogin(ctx context.Context, id uuid.UUID) error {
	return p.users.Update(ctx, id, map[string]any{"last_login_at": time.Now().UTC()})
}
