package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/rbac"
)

func TestUserAllowed_ActiveUserFollowsStoredSet(t *testing.T) {
	user := &models.User{
		Role:        rbac.RoleEditor,
		Permissions: rbac.PermissionsFor(rbac.RoleEditor),
		Active:      true,
	}

	assert.True(t, user.Allowed(rbac.ManageBlog))
	assert.True(t, user.Allowed(rbac.UploadImages))
	assert.False(t, user.Allowed(rbac.ManageUsers))
}

func TestUserAllowed_InactiveUserHoldsNothing(t *testing.T) {
	// Even a stored admin permission set grants nothing once deactivated.
	user := &models.User{
		Role:        rbac.RoleAdmin,
		Permissions: rbac.PermissionsFor(rbac.RoleAdmin),
		Active:      false,
	}

	assert.False(t, user.Allowed(rbac.ManageUsers))
	assert.False(t, user.Allowed(rbac.DeleteContent))
	assert.False(t, user.Allowed(rbac.ManageBlog))
}

func TestUserAllowed_NilUserHoldsNothing(t *testing.T) {
	var user *models.User
	assert.False(t, user.Allowed(rbac.ManageBlog))
}

func TestUserAllowed_StaleDenormalizedSetIsHonored(t *testing.T) {
	// The stored copy wins over the live table: permission drift after a
	// table edit is a documented staleness hazard, not something Allowed
	// repairs.
	user := &models.User{
		Role:        rbac.RoleViewer,
		Permissions: rbac.PermissionSet{ManageBlog: true},
		Active:      true,
	}

	assert.True(t, user.Allowed(rbac.ManageBlog))
}
