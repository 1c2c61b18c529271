package session

import (
	"strings"
	"time"

	"github.com/meridian-portal/meridian-portal/internal/rbac"
)

// Policy is the per-role session configuration: how long a session survives
// without activity, how far before expiry the warning fires, and how much
// trust an explicit extension buys.
type Policy struct {
	Timeout       time.Duration `json:"timeout"`
	Warning       time.Duration `json:"warning"`
	Extend        time.Duration `json:"extend"`
	TrackActivity bool          `json:"track_activity"`
}

// Policy tiers in decreasing timeout budget. A role outside the table falls
// back to the most restrictive tier.
const (
	TierAdmin   = "admin"
	TierManager = "manager"
	TierStaff   = "staff"
	TierViewer  = "viewer"
)

var tiers = map[string]Policy{
	TierAdmin:   {Timeout: 240 * time.Minute, Warning: 10 * time.Minute, Extend: 60 * time.Minute, TrackActivity: true},
	TierManager: {Timeout: 120 * time.Minute, Warning: 10 * time.Minute, Extend: 30 * time.Minute, TrackActivity: true},
	TierStaff:   {Timeout: 90 * time.Minute, Warning: 5 * time.Minute, Extend: 30 * time.Minute, TrackActivity: true},
	TierViewer:  {Timeout: 60 * time.Minute, Warning: 5 * time.Minute, Extend: 15 * time.Minute, TrackActivity: true},
}

// PolicyForRole resolves the session policy for a role name. Unrecognized
// roles, including the empty string, get the viewer tier so the lookup stays
// fail-closed.
func PolicyForRole(role string) Policy {
	return tiers[tierForRole(role)]
}

// PolicyForRoles resolves the policy for a role set: the highest-priority
// role known to the registry decides the tier. An empty or fully unknown set
// gets the viewer tier.
func PolicyForRoles(registry *rbac.Registry, roleNames []string) Policy {
	if role, ok := registry.HighestRole(roleNames); ok {
		return PolicyForRole(role.Name)
	}
	return PolicyForRole("")
}

func tierForRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "superadmin", "super_admin", "super-admin", "admin":
		return TierAdmin
	case "manager":
		return TierManager
	case "staff", "employee":
		return TierStaff
	default:
		return TierViewer
	}
}
