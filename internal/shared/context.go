package shared

import "context"

// Principal describes the authenticated actor attached to a request.
// Roles is a set: the evaluator works over role lists, so the principal
// carries all of them rather than a single "current" role.
type Principal struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions []string
	SessionID   string
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. Returns nil when
// the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
