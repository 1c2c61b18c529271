package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-portal/meridian-portal/internal/platform/httpx"
	"github.com/meridian-portal/meridian-portal/internal/shared"
)

// Middleware wires authorization guards for HTTP handlers.
type Middleware struct {
	Registry *Registry
	Logger   *slog.Logger
}

// RequireAction ensures the current principal's roles allow the action on
// the resource. Responds 401 without a principal, 403 on denial.
func (m Middleware) RequireAction(resource string, action Action) func(http.Handler) http.Handler {
	return m.guard(func(p *shared.Principal) bool {
		return m.Registry.CanPerformAction(p.Roles, resource, action)
	})
}

// RequireModule ensures the current principal's roles allow access to the
// module.
func (m Middleware) RequireModule(module string) func(http.Handler) http.Handler {
	return m.guard(func(p *shared.Principal) bool {
		return m.Registry.CanAccessModule(p.Roles, module)
	})
}

// RequireAny ensures the principal's materialized permission strings contain
// at least one of the required keys. An empty requirement list passes.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	if len(normalized) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return m.guard(func(p *shared.Principal) bool {
		for _, required := range normalized {
			if HasPermission(p.Permissions, required) {
				return true
			}
		}
		return false
	})
}

func (m Middleware) guard(allowed func(*shared.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !allowed(principal) {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.String("user_id", principal.UserID),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}
