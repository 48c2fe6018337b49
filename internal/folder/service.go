package folder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/document-workspace/internal"
	"github.com/frahmantamala/document-workspace/internal/auth"
	"github.com/frahmantamala/document-workspace/internal/core/events"
)

type ServiceAPI interface {
	CreateFolder(user *auth.User, dto CreateFolderDTO) (*Folder, error)
	GetFolder(user *auth.User, folderID int64) (*Folder, error)
	UpdateFolder(user *auth.User, folderID int64, dto UpdateFolderDTO) (*Folder, error)
	MoveFolder(user *auth.User, folderID int64, dto MoveFolderDTO) (*Folder, error)
	DeactivateFolder(user *auth.User, folderID int64, deleteContents bool) error
	GetAncestorChain(user *auth.User, folderID int64) ([]*Folder, error)
	AccessibleFolders(user *auth.User, required PermissionType) ([]*Folder, error)
	GrantPermission(user *auth.User, folderID int64, dto GrantPermissionDTO) (*FolderPermission, error)
	RevokePermission(user *auth.User, folderID int64, dto RevokePermissionDTO) (int64, error)
	ListPermissions(user *auth.User, folderID int64) ([]*FolderPermission, error)
}

type Service struct {
	repo     RepositoryAPI
	perms    PermissionRepositoryAPI
	resolver *Resolver
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(logger *slog.Logger, repo RepositoryAPI, perms PermissionRepositoryAPI, resolver *Resolver, eventBus *events.EventBus) *Service {
	return &Service{
		repo:     repo,
		perms:    perms,
		resolver: resolver,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateFolder creates a folder under an optional parent. Creating under a
// parent requires write on that parent; creating a root folder requires the
// create_folders permission. The creator receives an explicit manage grant
// so the folder stays administrable even after a later move.
func (s *Service) CreateFolder(user *auth.User, dto CreateFolderDTO) (*Folder, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	principal := PrincipalFromUser(user)

	if dto.ParentFolderID != nil {
		parent, err := s.repo.GetByID(*dto.ParentFolderID)
		if err != nil {
			if isNotFound(err) {
				return nil, internal.NewValidationError("parent folder does not exist", internal.ErrCodeInvalidFolderParent)
			}
			return nil, err
		}
		allowed, err := s.resolver.Resolve(principal, parent.ID, PermissionWrite)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, internal.ErrAccessDenied
		}
	} else if !principal.HasBlanketOverride() && !principal.HasPermission(auth.PermCreateFolders) {
		return nil, internal.ErrAccessDenied
	}

	accessLevel := AccessLevel(dto.AccessLevel)
	if dto.AccessLevel == "" {
		accessLevel = AccessPrivate
	}
	inherit := true
	if dto.InheritPermissions != nil {
		inherit = *dto.InheritPermissions
	}

	now := time.Now()
	f := &Folder{
		Name:               dto.Name,
		ParentFolderID:     dto.ParentFolderID,
		Description:        dto.Description,
		AccessLevel:        accessLevel,
		InheritPermissions: inherit,
		CreatedBy:          user.ID,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(f); err != nil {
		s.logger.Error("failed to create folder", "error", err, "user_id", user.ID)
		return nil, internal.NewInternalError("failed to create folder", err)
	}

	creatorID := user.ID
	grant := &FolderPermission{
		FolderID:       f.ID,
		UserID:         &creatorID,
		PermissionType: PermissionManage,
		GrantedBy:      user.ID,
		GrantedAt:      now,
		IsActive:       true,
	}
	if err := s.perms.Create(grant); err != nil {
		s.logger.Error("failed to grant creator permission", "error", err, "folder_id", f.ID)
		return nil, internal.NewInternalError("failed to grant creator permission", err)
	}

	if dto.ParentFolderID != nil {
		if err := s.repo.AdjustSubfolderCount(*dto.ParentFolderID, 1); err != nil {
			s.logger.Warn("failed to adjust subfolder count", "error", err, "folder_id", *dto.ParentFolderID)
		}
	}

	s.logger.Info("folder created", "folder_id", f.ID, "user_id", user.ID, "parent_id", dto.ParentFolderID)
	return f, nil
}

// GetFolder returns the folder if the caller resolves read on it.
func (s *Service) GetFolder(user *auth.User, folderID int64) (*Folder, error) {
	f, err := s.repo.GetByID(folderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.resolver.Resolve(PrincipalFromUser(user), folderID, PermissionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}
	return f, nil
}

// UpdateFolder changes folder metadata. Name and description need write;
// touching access_level or inherit_permissions needs manage because those
// change how permissions resolve for the whole subtree.
func (s *Service) UpdateFolder(user *auth.User, folderID int64, dto UpdateFolderDTO) (*Folder, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	f, err := s.repo.GetByID(folderID)
	if err != nil {
		return nil, err
	}

	required := PermissionWrite
	if dto.TouchesAccessControl() {
		required = PermissionManage
	}
	allowed, err := s.resolver.Resolve(PrincipalFromUser(user), folderID, required)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}

	if dto.Name != nil {
		f.Name = *dto.Name
	}
	if dto.Description != nil {
		f.Description = *dto.Description
	}
	if dto.AccessLevel != nil {
		f.AccessLevel = AccessLevel(*dto.AccessLevel)
	}
	if dto.InheritPermissions != nil {
		f.InheritPermissions = *dto.InheritPermissions
	}
	f.UpdatedAt = time.Now()

	if err := s.repo.Update(f); err != nil {
		s.logger.Error("failed to update folder", "error", err, "folder_id", folderID)
		return nil, internal.NewInternalError("failed to update folder", err)
	}
	return f, nil
}

// MoveFolder reparents a folder. It requires manage on the folder being
// moved plus write on the destination parent, and rejects any move that
// would place a folder under its own descendant.
func (s *Service) MoveFolder(user *auth.User, folderID int64, dto MoveFolderDTO) (*Folder, error) {
	f, err := s.repo.GetByID(folderID)
	if err != nil {
		return nil, err
	}

	principal := PrincipalFromUser(user)
	allowed, err := s.resolver.Resolve(principal, folderID, PermissionManage)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}

	if dto.NewParentFolderID != nil {
		if *dto.NewParentFolderID == folderID {
			return nil, internal.ErrFolderCycle
		}
		newParent, err := s.repo.GetByID(*dto.NewParentFolderID)
		if err != nil {
			if isNotFound(err) {
				return nil, internal.NewValidationError("new parent folder does not exist", internal.ErrCodeInvalidFolderParent)
			}
			return nil, err
		}
		allowed, err = s.resolver.Resolve(principal, newParent.ID, PermissionWrite)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, internal.ErrAccessDenied
		}
		if err := s.ensureNotDescendant(folderID, newParent); err != nil {
			return nil, err
		}
	}

	oldParent := f.ParentFolderID
	if err := s.repo.UpdateParent(folderID, dto.NewParentFolderID); err != nil {
		s.logger.Error("failed to move folder", "error", err, "folder_id", folderID)
		return nil, internal.NewInternalError("failed to move folder", err)
	}

	if oldParent != nil {
		if err := s.repo.AdjustSubfolderCount(*oldParent, -1); err != nil {
			s.logger.Warn("failed to adjust subfolder count", "error", err, "folder_id", *oldParent)
		}
	}
	if dto.NewParentFolderID != nil {
		if err := s.repo.AdjustSubfolderCount(*dto.NewParentFolderID, 1); err != nil {
			s.logger.Warn("failed to adjust subfolder count", "error", err, "folder_id", *dto.NewParentFolderID)
		}
	}

	f.ParentFolderID = dto.NewParentFolderID
	s.logger.Info("folder moved", "folder_id", folderID, "new_parent_id", dto.NewParentFolderID, "user_id", user.ID)
	return f, nil
}

// ensureNotDescendant walks up from the candidate parent looking for the
// folder being moved. Finding it means the move would create a cycle.
func (s *Service) ensureNotDescendant(folderID int64, candidate *Folder) error {
	current := candidate
	for {
		if current.ID == folderID {
			return internal.ErrFolderCycle
		}
		if current.ParentFolderID == nil {
			return nil
		}
		parent, err := s.repo.GetAnyByID(*current.ParentFolderID)
		if err != nil {
			if isNotFound(err) {
				s.logger.Error("folder hierarchy is broken",
					"folder_id", current.ID,
					"missing_parent_id", *current.ParentFolderID)
				return ErrBrokenHierarchy
			}
			return err
		}
		current = parent
	}
}

// DeactivateFolder soft-deletes a folder. With deleteContents the whole
// subtree and its documents go in one transaction; without it only the
// folder itself is deactivated and children are left in place.
func (s *Service) DeactivateFolder(user *auth.User, folderID int64, deleteContents bool) error {
	f, err := s.repo.GetByID(folderID)
	if err != nil {
		return err
	}

	allowed, err := s.resolver.Resolve(PrincipalFromUser(user), folderID, PermissionDelete)
	if err != nil {
		return err
	}
	if !allowed {
		return internal.ErrAccessDenied
	}

	ids := []int64{folderID}
	if deleteContents {
		ids, err = s.collectSubtree(folderID)
		if err != nil {
			return err
		}
	}

	if err := s.repo.DeactivateSubtree(ids, deleteContents); err != nil {
		s.logger.Error("failed to deactivate folder", "error", err, "folder_id", folderID)
		return internal.NewInternalError("failed to deactivate folder", err)
	}

	if f.ParentFolderID != nil {
		if err := s.repo.AdjustSubfolderCount(*f.ParentFolderID, -1); err != nil {
			s.logger.Warn("failed to adjust subfolder count", "error", err, "folder_id", *f.ParentFolderID)
		}
	}

	s.eventBus.Publish(context.Background(), events.NewFolderDeactivatedEvent(folderID, deleteContents, int64(len(ids)), user.ID))
	s.logger.Info("folder deactivated", "folder_id", folderID, "subtree_size", len(ids), "delete_contents", deleteContents)
	return nil
}

// collectSubtree gathers the folder and all its active descendants,
// breadth first.
func (s *Service) collectSubtree(folderID int64) ([]int64, error) {
	ids := []int64{folderID}
	queue := []int64{folderID}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		children, err := s.repo.ChildIDs(next)
		if err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		queue = append(queue, children...)
	}
	return ids, nil
}

// GetAncestorChain returns the breadcrumb for a folder: root first, the
// folder itself last. Requires read on the folder.
func (s *Service) GetAncestorChain(user *auth.User, folderID int64) ([]*Folder, error) {
	f, err := s.repo.GetByID(folderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.resolver.Resolve(PrincipalFromUser(user), folderID, PermissionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}

	chain := []*Folder{f}
	current := f
	for current.ParentFolderID != nil {
		// deactivated ancestors still belong in the breadcrumb
		parent, err := s.repo.GetAnyByID(*current.ParentFolderID)
		if err != nil {
			if isNotFound(err) {
				s.logger.Error("folder hierarchy is broken",
					"folder_id", current.ID,
					"missing_parent_id", *current.ParentFolderID)
				return nil, ErrBrokenHierarchy
			}
			return nil, err
		}
		chain = append([]*Folder{parent}, chain...)
		current = parent
	}
	return chain, nil
}

// AccessibleFolders lists every active folder the caller can reach at the
// required level.
func (s *Service) AccessibleFolders(user *auth.User, required PermissionType) ([]*Folder, error) {
	return s.resolver.AccessibleFolders(PrincipalFromUser(user), required)
}

// GrantPermission adds an ACL entry for a user or a department. The caller
// needs manage on the folder. Re-granting an identical active entry is a
// conflict.
func (s *Service) GrantPermission(user *auth.User, folderID int64, dto GrantPermissionDTO) (*FolderPermission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	permType, _ := ParsePermissionType(dto.PermissionType)

	if _, err := s.repo.GetByID(folderID); err != nil {
		return nil, err
	}

	allowed, err := s.resolver.Resolve(PrincipalFromUser(user), folderID, PermissionManage)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}

	ref := dto.PrincipalRef()
	existing, err := s.perms.FindActive(folderID, ref, permType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, internal.ErrDuplicateGrant
	}

	fp := &FolderPermission{
		FolderID:       folderID,
		UserID:         dto.UserID,
		DepartmentID:   dto.DepartmentID,
		PermissionType: permType,
		GrantedBy:      user.ID,
		GrantedAt:      time.Now(),
		IsActive:       true,
	}
	if err := s.perms.Create(fp); err != nil {
		// the store's unique index decides races the existence check missed
		if errors.Is(err, internal.ErrDuplicateGrant) {
			return nil, internal.ErrDuplicateGrant
		}
		s.logger.Error("failed to grant permission", "error", err, "folder_id", folderID)
		return nil, internal.NewInternalError("failed to grant permission", err)
	}

	s.eventBus.Publish(context.Background(), events.NewPermissionGrantedEvent(folderID, dto.UserID, dto.DepartmentID, string(permType), user.ID))
	s.logger.Info("permission granted",
		"folder_id", folderID,
		"principal_kind", ref.Kind,
		"principal_id", ref.ID,
		"permission_type", permType,
		"granted_by", user.ID)
	return fp, nil
}

// RevokePermission deactivates ACL entries matching the given filters. A
// revoke that matches nothing succeeds with a zero count.
func (s *Service) RevokePermission(user *auth.User, folderID int64, dto RevokePermissionDTO) (int64, error) {
	if err := dto.Validate(); err != nil {
		return 0, err
	}

	if _, err := s.repo.GetByID(folderID); err != nil {
		return 0, err
	}

	allowed, err := s.resolver.Resolve(PrincipalFromUser(user), folderID, PermissionManage)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, internal.ErrAccessDenied
	}

	var permType *PermissionType
	if dto.PermissionType != nil {
		p, _ := ParsePermissionType(*dto.PermissionType)
		permType = &p
	}

	count, err := s.perms.RevokeMatching(folderID, dto.UserID, dto.DepartmentID, permType)
	if err != nil {
		s.logger.Error("failed to revoke permission", "error", err, "folder_id", folderID)
		return 0, internal.NewInternalError("failed to revoke permission", err)
	}

	permStr := ""
	if dto.PermissionType != nil {
		permStr = *dto.PermissionType
	}
	s.eventBus.Publish(context.Background(), events.NewPermissionRevokedEvent(folderID, dto.UserID, dto.DepartmentID, permStr, user.ID, count))
	s.logger.Info("permissions revoked", "folder_id", folderID, "count", count, "revoked_by", user.ID)
	return count, nil
}

// ListPermissions returns the folder's own active ACL entries. Inherited
// entries are not included; callers walk the ancestor chain for those.
func (s *Service) ListPermissions(user *auth.User, folderID int64) ([]*FolderPermission, error) {
	if _, err := s.repo.GetByID(folderID); err != nil {
		return nil, err
	}

	allowed, err := s.resolver.Resolve(PrincipalFromUser(user), folderID, PermissionManage)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}

	return s.perms.ActiveForFolder(folderID)
}
