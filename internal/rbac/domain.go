package rbac

// Action enumerates the atomic capabilities a permission can grant.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionAdmin subsumes every other action on the same resource. The
	// subsumption is applied by the evaluator, not stored per permission.
	ActionAdmin Action = "admin"
)

// Wildcard is the sentinel matching any module or resource. As a granted
// permission string it matches any required permission.
const Wildcard = "*"

// Permission is an immutable atomic capability on a resource. The registry
// keys permissions by "<resource>.<action>".
type Permission struct {
	Resource    string `json:"resource"`
	Action      Action `json:"action"`
	Description string `json:"description,omitempty"`
	// Conditions is declared for attribute-based constraints. No evaluator
	// consults it; condition evaluation is out of scope.
	Conditions map[string]string `json:"conditions,omitempty"`
}

// Key returns the registry key for the permission.
func (p Permission) Key() string {
	return p.Resource + "." + string(p.Action)
}

// Role bundles permissions and module access under a name. Priority is a
// total order across roles: higher value means more privileged.
type Role struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	Modules     []string     `json:"modules"`
	IsSystem    bool         `json:"is_system"`
	IsActive    bool         `json:"is_active"`
	Priority    int          `json:"priority"`
}

// RoleUpdate carries the optional fields accepted by Registry.UpdateRole.
// Nil fields are left untouched.
type RoleUpdate struct {
	DisplayName *string
	Description *string
	Permissions *[]Permission
	Modules     *[]string
	IsActive    *bool
	Priority    *int
}
