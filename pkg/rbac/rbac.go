package rbac

// 权限常量
const (
	// 只读权限（所有登录用户）
	PermissionReadProject = "project:read"
	PermissionReadTask    = "task:read"

	// 写权限（仅管理员）
	PermissionCreateProject = "project:create"
	PermissionUpdateProject = "project:update"
	PermissionDeleteProject = "project:delete"
	PermissionCreateTask    = "task:create"
	PermissionUpdateTask    = "task:update"
	PermissionDeleteTask    = "task:delete"
)

// 角色常量
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleUser: {
		PermissionReadProject,
		PermissionReadTask,
	},
	RoleAdmin: {
		PermissionReadProject,
		PermissionReadTask,
		PermissionCreateProject,
		PermissionUpdateProject,
		PermissionDeleteProject,
		PermissionCreateTask,
		PermissionUpdateTask,
		PermissionDeleteTask,
	},
}

// RoleFor 根据 token 中的 is_admin 标志得到角色
func RoleFor(isAdmin bool) string {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查用户是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(userID int, isAdmin bool, permission string) error {
	if !HasPermission(RoleFor(isAdmin), permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	UserID     int
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "Admin access required"
}
