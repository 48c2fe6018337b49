package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/document-workspace/internal"
	foldermodel "github.com/frahmantamala/document-workspace/internal/core/datamodel/folder"
	"github.com/frahmantamala/document-workspace/internal/folder"
)

// FolderRepository implements the folder hierarchy store using GORM
type FolderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) folder.RepositoryAPI {
	return &FolderRepository{db: db}
}

func toDomain(m *foldermodel.Folder) *folder.Folder {
	return &folder.Folder{
		ID:                 m.ID,
		Name:               m.Name,
		ParentFolderID:     m.ParentFolderID,
		Description:        m.Description,
		AccessLevel:        folder.AccessLevel(m.AccessLevel),
		InheritPermissions: m.InheritPermissions,
		CreatedBy:          m.CreatedBy,
		IsActive:           m.IsActive,
		DocumentCount:      m.DocumentCount,
		SubfolderCount:     m.SubfolderCount,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toModel(f *folder.Folder) *foldermodel.Folder {
	return &foldermodel.Folder{
		ID:                 f.ID,
		Name:               f.Name,
		ParentFolderID:     f.ParentFolderID,
		Description:        f.Description,
		AccessLevel:        string(f.AccessLevel),
		InheritPermissions: f.InheritPermissions,
		CreatedBy:          f.CreatedBy,
		IsActive:           f.IsActive,
		DocumentCount:      f.DocumentCount,
		SubfolderCount:     f.SubfolderCount,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

func (r *FolderRepository) Create(f *folder.Folder) error {
	m := toModel(f)
	if err := r.db.Create(m).Error; err != nil {
		return err
	}
	f.ID = m.ID
	return nil
}

func (r *FolderRepository) GetByID(id int64) (*folder.Folder, error) {
	var m foldermodel.Folder
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrFolderNotFound
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *FolderRepository) GetAnyByID(id int64) (*folder.Folder, error) {
	var m foldermodel.Folder
	err := r.db.Where("id = ?", id).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrFolderNotFound
		}
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *FolderRepository) Update(f *folder.Folder) error {
	f.UpdatedAt = time.Now()
	return r.db.Save(toModel(f)).Error
}

func (r *FolderRepository) UpdateParent(folderID int64, newParent *int64) error {
	return r.db.Model(&foldermodel.Folder{}).
		Where("id = ?", folderID).
		Updates(map[string]interface{}{
			"parent_folder_id": newParent,
			"updated_at":       time.Now(),
		}).Error
}

func (r *FolderRepository) ListActive() ([]*folder.Folder, error) {
	var models []*foldermodel.Folder
	err := r.db.Where("is_active = ?", true).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	folders := make([]*folder.Folder, 0, len(models))
	for _, m := range models {
		folders = append(folders, toDomain(m))
	}
	return folders, nil
}

func (r *FolderRepository) ChildIDs(parentID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&foldermodel.Folder{}).
		Where("parent_folder_id = ? AND is_active = ?", parentID, true).
		Pluck("id", &ids).Error
	return ids, err
}

// DeactivateSubtree deactivates the given folders, their ACL entries and,
// when deleteContents is set, their documents, all in one transaction.
func (r *FolderRepository) DeactivateSubtree(folderIDs []int64, deleteContents bool) error {
	if len(folderIDs) == 0 {
		return nil
	}
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&foldermodel.Folder{}).
			Where("id IN ?", folderIDs).
			Updates(map[string]interface{}{
				"is_active":  false,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&foldermodel.FolderPermission{}).
			Where("folder_id IN ?", folderIDs).
			Update("is_active", false).Error; err != nil {
			return err
		}

		if deleteContents {
			if err := tx.Exec(
				"UPDATE documents SET is_active = false, updated_at = ? WHERE folder_id IN ?",
				now, folderIDs).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *FolderRepository) AdjustSubfolderCount(folderID int64, delta int64) error {
	return r.db.Model(&foldermodel.Folder{}).
		Where("id = ?", folderID).
		Updates(map[string]interface{}{
			"subfolder_count": gorm.Expr("subfolder_count + ?", delta),
			"updated_at":      time.Now(),
		}).Error
}
