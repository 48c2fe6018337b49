package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/document-workspace/internal"
	foldermodel "github.com/frahmantamala/document-workspace/internal/core/datamodel/folder"
	"github.com/frahmantamala/document-workspace/internal/folder"
)

// PermissionRepository implements the folder ACL store using GORM
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) folder.PermissionRepositoryAPI {
	return &PermissionRepository{db: db}
}

func permToDomain(m *foldermodel.FolderPermission) *folder.FolderPermission {
	return &folder.FolderPermission{
		ID:             m.ID,
		FolderID:       m.FolderID,
		UserID:         m.UserID,
		DepartmentID:   m.DepartmentID,
		PermissionType: folder.PermissionType(m.PermissionType),
		GrantedBy:      m.GrantedBy,
		GrantedAt:      m.GrantedAt,
		IsActive:       m.IsActive,
	}
}

func (r *PermissionRepository) ActiveForFolder(folderID int64) ([]*folder.FolderPermission, error) {
	var models []*foldermodel.FolderPermission
	err := r.db.Where("folder_id = ? AND is_active = ?", folderID, true).
		Order("granted_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	perms := make([]*folder.FolderPermission, 0, len(models))
	for _, m := range models {
		perms = append(perms, permToDomain(m))
	}
	return perms, nil
}

func (r *PermissionRepository) FindActive(folderID int64, ref folder.PrincipalRef, permissionType folder.PermissionType) (*folder.FolderPermission, error) {
	q := r.db.Where("folder_id = ? AND permission_type = ? AND is_active = ?",
		folderID, string(permissionType), true)
	switch ref.Kind {
	case folder.PrincipalUser:
		q = q.Where("user_id = ?", ref.ID)
	case folder.PrincipalDepartment:
		q = q.Where("department_id = ?", ref.ID)
	}

	var m foldermodel.FolderPermission
	err := q.First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return permToDomain(&m), nil
}

func (r *PermissionRepository) Create(fp *folder.FolderPermission) error {
	m := &foldermodel.FolderPermission{
		FolderID:       fp.FolderID,
		UserID:         fp.UserID,
		DepartmentID:   fp.DepartmentID,
		PermissionType: string(fp.PermissionType),
		GrantedBy:      fp.GrantedBy,
		GrantedAt:      fp.GrantedAt,
		IsActive:       fp.IsActive,
	}
	if err := r.db.Create(m).Error; err != nil {
		// the partial unique index catches a concurrent identical grant
		// that slipped past the service's existence check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrDuplicateGrant
		}
		return err
	}
	fp.ID = m.ID
	return nil
}

// RevokeMatching deactivates active entries matching every given filter and
// returns how many rows it touched.
func (r *PermissionRepository) RevokeMatching(folderID int64, userID, departmentID *int64, permissionType *folder.PermissionType) (int64, error) {
	q := r.db.Model(&foldermodel.FolderPermission{}).
		Where("folder_id = ? AND is_active = ?", folderID, true)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	if permissionType != nil {
		q = q.Where("permission_type = ?", string(*permissionType))
	}

	res := q.Update("is_active", false)
	return res.RowsAffected, res.Error
}
