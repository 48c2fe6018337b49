package folder

import (
	"time"

	"github.com/frahmantamala/document-workspace/internal"
	"github.com/frahmantamala/document-workspace/internal/auth"
)

// PermissionType is the ordered per-folder access level:
// read < write < delete < manage, where manage implies all lower levels.
type PermissionType string

const (
	PermissionRead   PermissionType = "read"
	PermissionWrite  PermissionType = "write"
	PermissionDelete PermissionType = "delete"
	PermissionManage PermissionType = "manage"
)

func (p PermissionType) Level() int {
	switch p {
	case PermissionRead:
		return 1
	case PermissionWrite:
		return 2
	case PermissionDelete:
		return 3
	case PermissionManage:
		return 4
	}
	return 0
}

func (p PermissionType) Valid() bool {
	return p.Level() > 0
}

// Satisfies reports whether holding p is enough when required is demanded.
func (p PermissionType) Satisfies(required PermissionType) bool {
	return p.Level() >= required.Level()
}

func ParsePermissionType(s string) (PermissionType, error) {
	p := PermissionType(s)
	if !p.Valid() {
		return "", internal.NewValidationError("invalid permission type: "+s, internal.ErrCodeInvalidPermission)
	}
	return p, nil
}

type AccessLevel string

const (
	AccessPrivate    AccessLevel = "private"
	AccessDepartment AccessLevel = "department"
	AccessPublic     AccessLevel = "public"
)

func (a AccessLevel) Valid() bool {
	switch a {
	case AccessPrivate, AccessDepartment, AccessPublic:
		return true
	}
	return false
}

// PrincipalKind distinguishes the two targets an ACL entry can name.
type PrincipalKind string

const (
	PrincipalUser       PrincipalKind = "user"
	PrincipalDepartment PrincipalKind = "department"
)

// PrincipalRef is a tagged reference to a grant target, so an entry cannot
// name a user and a department at the same time.
type PrincipalRef struct {
	Kind PrincipalKind
	ID   int64
}

func UserRef(id int64) PrincipalRef {
	return PrincipalRef{Kind: PrincipalUser, ID: id}
}

func DepartmentRef(id int64) PrincipalRef {
	return PrincipalRef{Kind: PrincipalDepartment, ID: id}
}

// Principal is the resolution unit: the authenticated user, its department
// and its system-wide coarse permission set.
type Principal struct {
	UserID       int64
	DepartmentID *int64
	Permissions  []string
}

// HasBlanketOverride reports whether the principal bypasses per-folder ACLs.
func (p Principal) HasBlanketOverride() bool {
	for _, perm := range p.Permissions {
		if perm == auth.PermManageFolders || perm == auth.PermAdmin {
			return true
		}
	}
	return false
}

func (p Principal) HasPermission(name string) bool {
	for _, perm := range p.Permissions {
		if perm == name {
			return true
		}
	}
	return false
}

// PrincipalFromUser adapts the authenticated user to the resolution unit.
func PrincipalFromUser(u *auth.User) Principal {
	return Principal{
		UserID:       u.ID,
		DepartmentID: u.DepartmentID,
		Permissions:  u.Permissions,
	}
}

type Folder struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	ParentFolderID     *int64      `json:"parent_folder_id,omitempty"`
	Description        string      `json:"description,omitempty"`
	AccessLevel        AccessLevel `json:"access_level"`
	InheritPermissions bool        `json:"inherit_permissions"`
	CreatedBy          int64       `json:"created_by"`
	IsActive           bool        `json:"is_active"`
	DocumentCount      int64       `json:"document_count"`
	SubfolderCount     int64       `json:"subfolder_count"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type FolderPermission struct {
	ID             int64          `json:"id"`
	FolderID       int64          `json:"folder_id"`
	UserID         *int64         `json:"user_id,omitempty"`
	DepartmentID   *int64         `json:"department_id,omitempty"`
	PermissionType PermissionType `json:"permission_type"`
	GrantedBy      int64          `json:"granted_by"`
	GrantedAt      time.Time      `json:"granted_at"`
	IsActive       bool           `json:"is_active"`
}

// Matches reports whether the entry targets the principal, either directly
// or through its department.
func (fp *FolderPermission) Matches(p Principal) bool {
	if fp.UserID != nil && *fp.UserID == p.UserID {
		return true
	}
	if fp.DepartmentID != nil && p.DepartmentID != nil && *fp.DepartmentID == *p.DepartmentID {
		return true
	}
	return false
}

// RepositoryAPI is the folder hierarchy data layer.
type RepositoryAPI interface {
	Create(f *Folder) error
	GetByID(id int64) (*Folder, error)
	// GetAnyByID loads a folder regardless of its active flag. Hierarchy
	// walks use it so a soft-deleted ancestor reads as a normal link, not
	// a broken chain.
	GetAnyByID(id int64) (*Folder, error)
	Update(f *Folder) error
	UpdateParent(folderID int64, newParent *int64) error
	ListActive() ([]*Folder, error)
	ChildIDs(parentID int64) ([]int64, error)
	DeactivateSubtree(folderIDs []int64, deleteContents bool) error
	AdjustSubfolderCount(folderID int64, delta int64) error
}

// PermissionRepositoryAPI is the ACL data layer.
type PermissionRepositoryAPI interface {
	ActiveForFolder(folderID int64) ([]*FolderPermission, error)
	FindActive(folderID int64, ref PrincipalRef, permissionType PermissionType) (*FolderPermission, error)
	Create(fp *FolderPermission) error
	RevokeMatching(folderID int64, userID, departmentID *int64, permissionType *PermissionType) (int64, error)
}

// ErrBrokenHierarchy marks an orphaned parent chain: a data-integrity fault,
// surfaced as a 500 rather than silently resolved to Denied.
var ErrBrokenHierarchy = &internal.AppError{
	Type:       internal.ErrorTypeInternal,
	Code:       internal.ErrCodeBrokenHierarchy,
	Message:    "folder hierarchy is broken: missing parent folder",
	StatusCode: 500,
}
