package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/samatvayoga/backend/internal/rbac"
)

// User is an admin-area profile. Profiles are created lazily on first
// sign-in (role viewer) and are never hard-deleted; deactivation is via the
// Active flag. Permissions is a denormalized copy of the role's permission
// set taken at creation time.
type User struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string             `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PasswordHash string             `gorm:"not null" json:"-"`
	DisplayName  string             `gorm:"size:100" json:"display_name"`
	Role         rbac.Role          `gorm:"size:20;default:'viewer'" json:"role"`
	Permissions  rbac.PermissionSet `gorm:"serializer:json;type:jsonb" json:"permissions"`
	Active       bool               `gorm:"default:true" json:"active"`
	LastLoginAt  *time.Time         `json:"last_login_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	ImportedAt   *time.Time         `json:"imported_at,omitempty"`
}

// Allowed reports whether the user holds a capability. A nil or inactive
// user holds none, regardless of the stored permission set.
func (u *User) Allowed(cap rbac.Capability) bool {
	if u == nil || !u.Active {
		return false
	}
	return u.Permissions.Has(cap)
}
