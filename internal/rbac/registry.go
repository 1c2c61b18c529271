package rbac

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrRoleNotFound indicates the named role does not exist.
	ErrRoleNotFound = errors.New("rbac: role not found")
	// ErrRoleExists indicates a role with the same name is already registered.
	ErrRoleExists = errors.New("rbac: role already exists")
	// ErrSystemRole indicates the mutation targeted a system role.
	ErrSystemRole = errors.New("rbac: system role is immutable")
)

// customRolePriority is the fixed priority assigned to custom roles.
const customRolePriority = 100

// Registry holds the role and permission catalog. It is constructed once at
// startup and shared by reference; mutations are guarded by a mutex because
// admin requests may arrive concurrently. Lookup and evaluation paths are
// total: unknown names yield empty results, never errors.
type Registry struct {
	mu          sync.RWMutex
	roles       map[string]Role
	permissions map[string]Permission
}

// NewRegistry builds a registry seeded with the default catalog.
func NewRegistry() *Registry {
	r := &Registry{
		roles:       make(map[string]Role),
		permissions: make(map[string]Permission),
	}
	for _, p := range defaultPermissions() {
		r.permissions[p.Key()] = p
	}
	for _, role := range defaultRoles() {
		r.roles[role.Name] = role
	}
	return r
}

// Role returns the named role.
func (r *Registry) Role(name string) (Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[name]
	if !ok {
		return Role{}, false
	}
	return cloneRole(role), true
}

// RolePermissions returns the permission list for a role, empty for unknown
// names.
func (r *Registry) RolePermissions(name string) []Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[name]
	if !ok {
		return []Permission{}
	}
	return clonePermissions(role.Permissions)
}

// RoleModules returns the module list for a role, empty for unknown names.
func (r *Registry) RoleModules(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[name]
	if !ok {
		return []string{}
	}
	return append([]string(nil), role.Modules...)
}

// AvailableRoles returns active roles ordered by descending priority.
func (r *Registry) AvailableRoles() []Role {
	return r.filterRoles(func(role Role) bool { return role.IsActive })
}

// SystemRoles returns the built-in roles.
func (r *Registry) SystemRoles() []Role {
	return r.filterRoles(func(role Role) bool { return role.IsSystem })
}

// CustomRoles returns administrator-created roles.
func (r *Registry) CustomRoles() []Role {
	return r.filterRoles(func(role Role) bool { return !role.IsSystem })
}

// HighestRole resolves the most privileged role among the given names.
// Unknown names are skipped; ok is false when nothing matched.
func (r *Registry) HighestRole(names []string) (Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best Role
	found := false
	for _, name := range names {
		role, ok := r.roles[name]
		if !ok {
			continue
		}
		if !found || role.Priority > best.Priority {
			best = role
			found = true
		}
	}
	if !found {
		return Role{}, false
	}
	return cloneRole(best), true
}

// Permissions returns the permission catalog sorted by key.
func (r *Registry) Permissions() []Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	perms := make([]Permission, 0, len(r.permissions))
	for _, p := range r.permissions {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Key() < perms[j].Key() })
	return perms
}

// CreateCustomRole registers a new non-system role. The priority is fixed;
// callers cannot mint roles above the built-in hierarchy. Name collisions are
// rejected rather than silently overwriting.
func (r *Registry) CreateCustomRole(name, displayName, description string, permissions []Permission, modules []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	if displayName = strings.TrimSpace(displayName); displayName == "" {
		displayName = cases.Title(language.English).String(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.roles[name]; exists {
		return Role{}, ErrRoleExists
	}
	role := Role{
		Name:        name,
		DisplayName: displayName,
		Description: strings.TrimSpace(description),
		Permissions: clonePermissions(permissions),
		Modules:     append([]string(nil), modules...),
		IsSystem:    false,
		IsActive:    true,
		Priority:    customRolePriority,
	}
	r.roles[name] = role
	return cloneRole(role), nil
}

// UpdateRole applies the non-nil fields of upd to an existing role.
func (r *Registry) UpdateRole(name string, upd RoleUpdate) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[name]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	if upd.DisplayName != nil {
		role.DisplayName = strings.TrimSpace(*upd.DisplayName)
	}
	if upd.Description != nil {
		role.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Permissions != nil {
		role.Permissions = clonePermissions(*upd.Permissions)
	}
	if upd.Modules != nil {
		role.Modules = append([]string(nil), (*upd.Modules)...)
	}
	if upd.IsActive != nil {
		role.IsActive = *upd.IsActive
	}
	if upd.Priority != nil {
		role.Priority = *upd.Priority
	}
	r.roles[name] = role
	return cloneRole(role), nil
}

// DeleteRole removes a custom role. System roles cannot be deleted.
func (r *Registry) DeleteRole(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[name]
	if !ok {
		return ErrRoleNotFound
	}
	if role.IsSystem {
		return ErrSystemRole
	}
	delete(r.roles, name)
	return nil
}

func (r *Registry) filterRoles(keep func(Role) bool) []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		if keep(role) {
			roles = append(roles, cloneRole(role))
		}
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].Priority != roles[j].Priority {
			return roles[i].Priority > roles[j].Priority
		}
		return roles[i].Name < roles[j].Name
	})
	return roles
}

func cloneRole(role Role) Role {
	role.Permissions = clonePermissions(role.Permissions)
	role.Modules = append([]string(nil), role.Modules...)
	return role
}

func clonePermissions(perms []Permission) []Permission {
	out := make([]Permission, len(perms))
	copy(out, perms)
	for i := range out {
		if out[i].Conditions != nil {
			conds := make(map[string]string, len(out[i].Conditions))
			for k, v := range out[i].Conditions {
				conds[k] = v
			}
			out[i].Conditions = conds
		}
	}
	return out
}
