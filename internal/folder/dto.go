package folder

import (
	"github.com/frahmantamala/document-workspace/internal"
	"github.com/frahmantamala/document-workspace/internal/core/common/validation"
)

type CreateFolderDTO struct {
	Name               string `json:"name"`
	ParentFolderID     *int64 `json:"parent_folder_id,omitempty"`
	Description        string `json:"description,omitempty"`
	AccessLevel        string `json:"access_level,omitempty"`
	InheritPermissions *bool  `json:"inherit_permissions,omitempty"`
}

func (d CreateFolderDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	if err := v.Validate(); err != nil {
		return err
	}
	if d.AccessLevel != "" && !AccessLevel(d.AccessLevel).Valid() {
		return internal.NewValidationError("invalid access level: "+d.AccessLevel, internal.ErrCodeInvalidAccessLevel)
	}
	return nil
}

type UpdateFolderDTO struct {
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	AccessLevel        *string `json:"access_level,omitempty"`
	InheritPermissions *bool   `json:"inherit_permissions,omitempty"`
}

func (d UpdateFolderDTO) Validate() error {
	if d.Name != nil {
		v := validation.NewValidator()
		v.Field("name", *d.Name).Required().MaxLength(255)
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if d.AccessLevel != nil && !AccessLevel(*d.AccessLevel).Valid() {
		return internal.NewValidationError("invalid access level: "+*d.AccessLevel, internal.ErrCodeInvalidAccessLevel)
	}
	return nil
}

// TouchesAccessControl reports whether the update changes fields that alter
// how permissions resolve, which demands manage instead of write.
func (d UpdateFolderDTO) TouchesAccessControl() bool {
	return d.AccessLevel != nil || d.InheritPermissions != nil
}

type MoveFolderDTO struct {
	NewParentFolderID *int64 `json:"new_parent_folder_id"`
}

type GrantPermissionDTO struct {
	UserID         *int64 `json:"user_id,omitempty"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	PermissionType string `json:"permission_type"`
}

// Validate enforces the tagged-principal rule: exactly one of user_id and
// department_id.
func (d GrantPermissionDTO) Validate() error {
	if (d.UserID == nil) == (d.DepartmentID == nil) {
		return internal.NewValidationError("exactly one of user_id or department_id must be set", internal.ErrCodeInvalidPrincipal)
	}
	if _, err := ParsePermissionType(d.PermissionType); err != nil {
		return err
	}
	return nil
}

// PrincipalRef converts the validated DTO into the tagged reference.
func (d GrantPermissionDTO) PrincipalRef() PrincipalRef {
	if d.UserID != nil {
		return UserRef(*d.UserID)
	}
	return DepartmentRef(*d.DepartmentID)
}

type RevokePermissionDTO struct {
	UserID         *int64  `json:"user_id,omitempty"`
	DepartmentID   *int64  `json:"department_id,omitempty"`
	PermissionType *string `json:"permission_type,omitempty"`
}

func (d RevokePermissionDTO) Validate() error {
	if d.UserID == nil && d.DepartmentID == nil {
		return internal.NewValidationError("one of user_id or department_id must be set", internal.ErrCodeInvalidPrincipal)
	}
	if d.UserID != nil && d.DepartmentID != nil {
		return internal.NewValidationError("only one of user_id or department_id may be set", internal.ErrCodeInvalidPrincipal)
	}
	if d.PermissionType != nil {
		if _, err := ParsePermissionType(*d.PermissionType); err != nil {
			return err
		}
	}
	return nil
}
