package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePermissionGranted = "folder.permission_granted"
	EventTypePermissionRevoked = "folder.permission_revoked"
	EventTypeFolderDeactivated = "folder.deactivated"
)

type PermissionGrantedEvent struct {
	BaseEvent
	FolderID       int64  `json:"folder_id"`
	UserID         *int64 `json:"user_id,omitempty"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	PermissionType string `json:"permission_type"`
	GrantedBy      int64  `json:"granted_by"`
}

func NewPermissionGrantedEvent(folderID int64, userID, departmentID *int64, permissionType string, grantedBy int64) *PermissionGrantedEvent {
	return &PermissionGrantedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionGranted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"folder_id":       folderID,
				"user_id":         userID,
				"department_id":   departmentID,
				"permission_type": permissionType,
				"granted_by":      grantedBy,
			},
		},
		FolderID:       folderID,
		UserID:         userID,
		DepartmentID:   departmentID,
		PermissionType: permissionType,
		GrantedBy:      grantedBy,
	}
}

type PermissionRevokedEvent struct {
	BaseEvent
	FolderID       int64  `json:"folder_id"`
	UserID         *int64 `json:"user_id,omitempty"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	PermissionType string `json:"permission_type,omitempty"`
	RevokedBy      int64  `json:"revoked_by"`
	RevokedCount   int64  `json:"revoked_count"`
}

func NewPermissionRevokedEvent(folderID int64, userID, departmentID *int64, permissionType string, revokedBy, revokedCount int64) *PermissionRevokedEvent {
	return &PermissionRevokedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionRevoked,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"folder_id":       folderID,
				"user_id":         userID,
				"department_id":   departmentID,
				"permission_type": permissionType,
				"revoked_by":      revokedBy,
				"revoked_count":   revokedCount,
			},
		},
		FolderID:       folderID,
		UserID:         userID,
		DepartmentID:   departmentID,
		PermissionType: permissionType,
		RevokedBy:      revokedBy,
		RevokedCount:   revokedCount,
	}
}

type FolderDeactivatedEvent struct {
	BaseEvent
	FolderID        int64 `json:"folder_id"`
	DeletedContents bool  `json:"deleted_contents"`
	AffectedFolders int64 `json:"affected_folders"`
	DeactivatedBy   int64 `json:"deactivated_by"`
}

func NewFolderDeactivatedEvent(folderID int64, deletedContents bool, affectedFolders, deactivatedBy int64) *FolderDeactivatedEvent {
	return &FolderDeactivatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeFolderDeactivated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"folder_id":        folderID,
				"deleted_contents": deletedContents,
				"affected_folders": affectedFolders,
				"deactivated_by":   deactivatedBy,
			},
		},
		FolderID:        folderID,
		DeletedContents: deletedContents,
		AffectedFolders: affectedFolders,
		DeactivatedBy:   deactivatedBy,
	}
}
