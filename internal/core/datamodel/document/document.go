package document

import "time"

// Document rows are managed by the document service; this model exists so the
// folder cascade can soft-delete contents inside the same transaction.
type Document struct {
	ID        int64     `gorm:"primaryKey"`
	FolderID  int64     `gorm:"column:folder_id;not null;index"`
	Title     string    `gorm:"column:title;not null"`
	CreatedBy int64     `gorm:"column:created_by;not null"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (Document) TableName() string {
	return "documents"
}
