package auth

type Permission string

const (
	// Capture
	PermissionAttendanceCapture Permission = "attendance.capture"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"

	// Operator workflows
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceManage  Permission = "attendance.manage"
	PermissionPersonManage      Permission = "person.manage"
	PermissionIdentifierIssue   Permission = "identifier.issue"

	// Configuration
	PermissionPolicyManage Permission = "policy.manage"
	PermissionTenantManage Permission = "tenant.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceCapture,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionPersonManage,
		PermissionIdentifierIssue,
		PermissionPolicyManage,
		PermissionTenantManage,
	},
	RoleOperator: {
		PermissionAttendanceCapture,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionPersonManage,
		PermissionIdentifierIssue,
	},
	RoleMember: {
		PermissionAttendanceCapture,
		PermissionAttendanceViewOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
