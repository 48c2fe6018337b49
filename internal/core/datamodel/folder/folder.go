package folder

import "time"

type Folder struct {
	ID                 int64     `gorm:"primaryKey"`
	Name               string    `gorm:"column:name;not null"`
	ParentFolderID     *int64    `gorm:"column:parent_folder_id;index"`
	Description        string    `gorm:"column:description"`
	AccessLevel        string    `gorm:"column:access_level;not null;default:private"`
	InheritPermissions bool      `gorm:"column:inherit_permissions;default:true"`
	CreatedBy          int64     `gorm:"column:created_by;not null"`
	IsActive           bool      `gorm:"column:is_active;default:true"`
	DocumentCount      int64     `gorm:"column:document_count;default:0"`
	SubfolderCount     int64     `gorm:"column:subfolder_count;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt          time.Time `gorm:"column:updated_at;default:now()"`
}

func (Folder) TableName() string {
	return "folders"
}

// FolderPermission is a single ACL row. Exactly one of UserID/DepartmentID is
// set; the check constraint in the migration enforces it at the storage level.
type FolderPermission struct {
	ID             int64     `gorm:"primaryKey"`
	FolderID       int64     `gorm:"column:folder_id;not null;index"`
	UserID         *int64    `gorm:"column:user_id;index"`
	DepartmentID   *int64    `gorm:"column:department_id;index"`
	PermissionType string    `gorm:"column:permission_type;not null"`
	GrantedBy      int64     `gorm:"column:granted_by;not null"`
	GrantedAt      time.Time `gorm:"column:granted_at;default:now()"`
	IsActive       bool      `gorm:"column:is_active;default:true"`
}

func (FolderPermission) TableName() string {
	return "folder_permissions"
}
