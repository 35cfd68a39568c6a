package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleFor(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleFor(true))
	assert.Equal(t, RoleUser, RoleFor(false))
}

func TestUserCanOnlyRead(t *testing.T) {
	assert.True(t, HasPermission(RoleUser, PermissionReadProject))
	assert.True(t, HasPermission(RoleUser, PermissionReadTask))

	for _, p := range []string{
		PermissionCreateProject, PermissionUpdateProject, PermissionDeleteProject,
		PermissionCreateTask, PermissionUpdateTask, PermissionDeleteTask,
	} {
		assert.False(t, HasPermission(RoleUser, p), p)
		assert.True(t, HasPermission(RoleAdmin, p), p)
	}
}

func TestUnknownRole(t *testing.T) {
	assert.False(t, HasPermission("guest", PermissionReadTask))
}

func TestCheckPermission(t *testing.T) {
	require.NoError(t, CheckPermission(1, true, PermissionDeleteTask))

	err := CheckPermission(2, false, PermissionDeleteTask)
	require.Error(t, err)

	var denied *PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, 2, denied.UserID)
	assert.Equal(t, PermissionDeleteTask, denied.Permission)
	assert.Equal(t, "Admin access required", err.Error())
}
