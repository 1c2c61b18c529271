package rbac

import "sort"

// HasPermission reports whether the granted permission strings contain the
// required key exactly, or the super-grant sentinel "*". There is no prefix
// or partial matching.
func HasPermission(granted []string, required string) bool {
	for _, g := range granted {
		if g == Wildcard || g == required {
			return true
		}
	}
	return false
}

// CanAccessModule reports whether any of the roles grants access to the
// module, either by listing it exactly or by carrying the module wildcard.
// Unknown role names are skipped, so they behave like an empty role list.
func (r *Registry) CanAccessModule(roleNames []string, module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range roleNames {
		role, ok := r.roles[name]
		if !ok {
			continue
		}
		for _, m := range role.Modules {
			if m == Wildcard || m == module {
				return true
			}
		}
	}
	return false
}

// CanPerformAction reports whether any role holds a permission matching the
// resource and action. A permission with the admin action subsumes every
// action on its resource, and a wildcard resource matches any resource.
// Evaluation is a disjunction across roles and across each role's
// permissions; denial is the zero result for every unknown input.
func (r *Registry) CanPerformAction(roleNames []string, resource string, action Action) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range roleNames {
		role, ok := r.roles[name]
		if !ok {
			continue
		}
		for _, p := range role.Permissions {
			if p.Resource != Wildcard && p.Resource != resource {
				continue
			}
			if p.Action == action || p.Action == ActionAdmin {
				return true
			}
		}
	}
	return false
}

// MaterializedPermissions flattens the roles into the deduplicated list of
// permission keys a principal carries for the duration of a session. A role
// holding the wildcard resource collapses the list to the super-grant.
func (r *Registry) MaterializedPermissions(roleNames []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, name := range roleNames {
		role, ok := r.roles[name]
		if !ok {
			continue
		}
		for _, p := range role.Permissions {
			if p.Resource == Wildcard {
				return []string{Wildcard}
			}
			seen[p.Key()] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
