package rbac

// Portal modules gated by role access.
const (
	ModuleCRM      = "crm"
	ModuleERP      = "erp"
	ModuleHRMS     = "hrms"
	ModuleITAssets = "it-assets"
	ModuleGST      = "gst"
	ModuleBI       = "bi"
	ModuleReports  = "reports"
	ModuleFiles    = "files"
	ModuleSettings = "settings"
)

func defaultPermissions() []Permission {
	crud := func(resource, noun string) []Permission {
		return []Permission{
			{Resource: resource, Action: ActionCreate, Description: "Create " + noun},
			{Resource: resource, Action: ActionRead, Description: "View " + noun},
			{Resource: resource, Action: ActionUpdate, Description: "Update " + noun},
			{Resource: resource, Action: ActionDelete, Description: "Delete " + noun},
			{Resource: resource, Action: ActionAdmin, Description: "Administer " + noun},
		}
	}

	var perms []Permission
	perms = append(perms, crud("users", "user accounts")...)
	perms = append(perms, crud("roles", "roles")...)
	perms = append(perms, crud("crm", "CRM records")...)
	perms = append(perms, crud("erp", "ERP records")...)
	perms = append(perms, crud("hr", "HR records")...)
	perms = append(perms, crud("assets", "IT assets")...)
	perms = append(perms, crud("gst", "GST filings")...)
	perms = append(perms, crud("reports", "reports")...)
	perms = append(perms, crud("files", "files")...)
	perms = append(perms, crud("settings", "settings")...)
	return perms
}

// defaultRoles seeds the registry. Priorities are strictly ordered:
// superAdmin > admin > manager > employee > viewer.
func defaultRoles() []Role {
	return []Role{
		{
			Name:        "superAdmin",
			DisplayName: "Super Administrator",
			Description: "Unrestricted access to every module and resource",
			Permissions: []Permission{{Resource: Wildcard, Action: ActionAdmin, Description: "Everything"}},
			Modules:     []string{Wildcard},
			IsSystem:    true,
			IsActive:    true,
			Priority:    1000,
		},
		{
			Name:        "admin",
			DisplayName: "Administrator",
			Description: "Full access to all portal modules",
			Permissions: []Permission{
				{Resource: "users", Action: ActionAdmin},
				{Resource: "roles", Action: ActionAdmin},
				{Resource: "crm", Action: ActionAdmin},
				{Resource: "erp", Action: ActionAdmin},
				{Resource: "hr", Action: ActionAdmin},
				{Resource: "assets", Action: ActionAdmin},
				{Resource: "gst", Action: ActionAdmin},
				{Resource: "reports", Action: ActionAdmin},
				{Resource: "files", Action: ActionAdmin},
				{Resource: "settings", Action: ActionAdmin},
			},
			Modules:  []string{Wildcard},
			IsSystem: true,
			IsActive: true,
			Priority: 800,
		},
		{
			Name:        "manager",
			DisplayName: "Manager",
			Description: "Operational access across business modules",
			Permissions: []Permission{
				{Resource: "crm", Action: ActionAdmin},
				{Resource: "erp", Action: ActionRead},
				{Resource: "erp", Action: ActionUpdate},
				{Resource: "hr", Action: ActionRead},
				{Resource: "hr", Action: ActionUpdate},
				{Resource: "reports", Action: ActionRead},
				{Resource: "reports", Action: ActionCreate},
				{Resource: "files", Action: ActionAdmin},
			},
			Modules:  []string{ModuleCRM, ModuleERP, ModuleHRMS, ModuleReports, ModuleBI},
			IsSystem: true,
			IsActive: true,
			Priority: 500,
		},
		{
			Name:        "employee",
			DisplayName: "Employee",
			Description: "Day-to-day access to assigned modules",
			Permissions: []Permission{
				{Resource: "hr", Action: ActionRead},
				{Resource: "files", Action: ActionRead},
				{Resource: "files", Action: ActionCreate},
			},
			Modules:  []string{ModuleCRM, ModuleHRMS, ModuleFiles},
			IsSystem: true,
			IsActive: true,
			Priority: 100,
		},
		{
			Name:        "viewer",
			DisplayName: "Viewer",
			Description: "Read-only access to reports and dashboards",
			Permissions: []Permission{
				{Resource: "reports", Action: ActionRead},
			},
			Modules:  []string{ModuleReports, ModuleBI},
			IsSystem: true,
			IsActive: true,
			Priority: 50,
		},
	}
}
