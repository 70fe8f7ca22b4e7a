package rbac

// Role is the access level assigned to a user profile. Immutable except
// through the user-management endpoints, which require ManageUsers.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleEditor    Role = "editor"
	RoleViewer    Role = "viewer"
)

// Capability names a single boolean permission.
type Capability string

const (
	ManageUsers       Capability = "manage_users"
	ManageInstructors Capability = "manage_instructors"
	ManageBlog        Capability = "manage_blog"
	ManageMerchandise Capability = "manage_merchandise"
	UploadImages      Capability = "upload_images"
	ExportData        Capability = "export_data"
	DeleteContent     Capability = "delete_content"
)

// PermissionSet is the fixed record of capabilities a role grants. A copy is
// denormalized onto each user profile at creation time; the copy is not
// re-synced if the static table changes afterwards.
type PermissionSet struct {
	ManageUsers       bool `json:"manage_users"`
	ManageInstructors bool `json:"manage_instructors"`
	ManageBlog        bool `json:"manage_blog"`
	ManageMerchandise bool `json:"manage_merchandise"`
	UploadImages      bool `json:"upload_images"`
	ExportData        bool `json:"export_data"`
	DeleteContent     bool `json:"delete_content"`
}

// RolePermissions is the single source of truth for role capabilities. No
// other package may hard-code capability logic.
var RolePermissions = map[Role]PermissionSet{
	RoleAdmin: {
		ManageUsers:       true,
		ManageInstructors: true,
		ManageBlog:        true,
		ManageMerchandise: true,
		UploadImages:      true,
		ExportData:        true,
		DeleteContent:     true,
	},
	RoleModerator: {
		ManageInstructors: true,
		ManageBlog:        true,
		ManageMerchandise: true,
		UploadImages:      true,
		ExportData:        true,
	},
	RoleEditor: {
		ManageBlog:   true,
		UploadImages: true,
	},
	RoleViewer: {},
}

// PermissionsFor returns the permission set for a role. An unrecognized role
// grants nothing.
func PermissionsFor(role Role) PermissionSet {
	return RolePermissions[role]
}

// Has reports whether the set grants the given capability.
func (p PermissionSet) Has(cap Capability) bool {
	switch cap {
	case ManageUsers:
		return p.ManageUsers
	case ManageInstructors:
		return p.ManageInstructors
	case ManageBlog:
		return p.ManageBlog
	case ManageMerchandise:
		return p.ManageMerchandise
	case UploadImages:
		return p.UploadImages
	case ExportData:
		return p.ExportData
	case DeleteContent:
		return p.DeleteContent
	}
	return false
}
