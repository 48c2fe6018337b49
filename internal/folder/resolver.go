package folder

import (
	"errors"
	"log/slog"

	"github.com/frahmantamala/document-workspace/internal"
)

// Resolver computes effective folder access for a principal by walking the
// parent chain. ACL entries are sparse: most folders carry none and rely on
// inheritance, while a folder with inherit_permissions=false cuts the walk
// and acts as a hard security boundary for its subtree.
type Resolver struct {
	folders RepositoryAPI
	perms   PermissionRepositoryAPI
	logger  *slog.Logger
}

func NewResolver(folders RepositoryAPI, perms PermissionRepositoryAPI, logger *slog.Logger) *Resolver {
	return &Resolver{
		folders: folders,
		perms:   perms,
		logger:  logger,
	}
}

// Resolve decides (principal, folder, requiredLevel). User-level and
// department-level grants are checked with equal precedence at each level;
// the more permissive one wins.
func (r *Resolver) Resolve(principal Principal, folderID int64, required PermissionType) (bool, error) {
	if principal.HasBlanketOverride() {
		return true, nil
	}

	current, err := r.folders.GetByID(folderID)
	if err != nil {
		return false, err
	}

	for {
		entries, err := r.perms.ActiveForFolder(current.ID)
		if err != nil {
			return false, err
		}

		for _, entry := range entries {
			if entry.Matches(principal) && entry.PermissionType.Satisfies(required) {
				return true, nil
			}
		}

		if !current.InheritPermissions || current.ParentFolderID == nil {
			return false, nil
		}

		// A soft-deleted ancestor is a legal lifecycle state: its own ACL
		// entries are already deactivated, but the chain above it still
		// counts. Only a missing row is a broken hierarchy.
		parent, err := r.folders.GetAnyByID(*current.ParentFolderID)
		if err != nil {
			if isNotFound(err) {
				r.logger.Error("folder hierarchy is broken",
					"folder_id", current.ID,
					"missing_parent_id", *current.ParentFolderID)
				return false, ErrBrokenHierarchy
			}
			return false, err
		}
		current = parent
	}
}

// AccessibleFolders returns every active folder the principal can reach at
// the required level.
func (r *Resolver) AccessibleFolders(principal Principal, required PermissionType) ([]*Folder, error) {
	folders, err := r.folders.ListActive()
	if err != nil {
		return nil, err
	}

	if principal.HasBlanketOverride() {
		return folders, nil
	}

	accessible := make([]*Folder, 0)
	for _, f := range folders {
		allowed, err := r.Resolve(principal, f.ID, required)
		if err != nil {
			return nil, err
		}
		if allowed {
			accessible = append(accessible, f)
		}
	}
	return accessible, nil
}

func isNotFound(err error) bool {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr.Type == internal.ErrorTypeNotFound
	}
	return false
}
