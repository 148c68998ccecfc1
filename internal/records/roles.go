package records

const (
	PermissionViewUsers   = "view_users"
	PermissionCreateUsers = "create_users"
	PermissionEditUsers   = "edit_users"
	PermissionDeleteUsers = "delete_users"
	PermissionManageRoles = "manage_roles"

	PermissionAccessSourceCodeAnalysis  = "access_source_code_analysis"
	PermissionAccessCompatibility       = "access_compatibility"
	PermissionAccessAppTotalGo          = "access_app_total_go"
	PermissionAccessAPKProtect          = "access_apk_protect"
	PermissionAccessIOSProtect          = "access_ios_protect"
	PermissionAccessMalwareIntelligence = "access_malware_intelligence"

	PermissionViewAnalytics = "view_analytics"
	PermissionManageSystem  = "manage_system"
)

var serviceAccess = []string{
	PermissionAccessSourceCodeAnalysis,
	PermissionAccessCompatibility,
	PermissionAccessAppTotalGo,
	PermissionAccessAPKProtect,
	PermissionAccessIOSProtect,
	PermissionAccessMalwareIntelligence,
}

var rolePermissions = map[Role][]string{
	RoleAdmin: append([]string{
		PermissionViewUsers,
		PermissionCreateUsers,
		PermissionEditUsers,
		PermissionDeleteUsers,
		PermissionManageRoles,
		PermissionViewAnalytics,
		PermissionManageSystem,
	}, serviceAccess...),
	RoleUser: serviceAccess,
}

// PermissionsFor returns the permissions granted to role.
func PermissionsFor(role Role) []string {
	granted := rolePermissions[role]
	out := make([]string, len(granted))
	copy(out, granted)
	return out
}

// HasPermission reports whether the user's role or explicit grants include permission.
func HasPermission(user User, permission string) bool {
	for _, granted := range rolePermissions[user.Role] {
		if granted == permission {
			return true
		}
	}
	for _, granted := range user.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}
