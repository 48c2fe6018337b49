package auth

import "context"

type PermissionChecker interface {
	CanManageFolders(userPermissions []string) bool
	CanCreateFolders(userPermissions []string) bool
	CanManageDepartments(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(userPermissions, []string{permission}), nil
}

func (c *DefaultPermissionChecker) CanManageFoldersCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanManageFolders(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanCreateFoldersCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanCreateFolders(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanManageDepartmentsCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanManageDepartments(userPermissions), nil
}

func (c *DefaultPermissionChecker) IsAdminCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.IsAdmin(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanManageFolders(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageFolders, PermAdmin})
}

func (c *DefaultPermissionChecker) CanCreateFolders(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermCreateFolders, PermManageFolders, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageDepartments(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageDepartments, PermAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermAdmin})
}
