package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/document-workspace/internal"
	departmentDatamodel "github.com/frahmantamala/document-workspace/internal/core/datamodel/department"
	"github.com/frahmantamala/document-workspace/internal/department"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetAll() ([]*departmentDatamodel.Department, error) {
	var departments []*departmentDatamodel.Department
	err := r.db.Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) GetByID(id int64) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	err := r.db.Where("id = ?", id).First(&d).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) GetByName(name string) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	err := r.db.Where("name = ? AND is_active = ?", name, true).First(&d).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) Create(d *departmentDatamodel.Department) error {
	if err := r.db.Create(d).Error; err != nil {
		// racing creates land on the active-name unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrDuplicateDeptName
		}
		return err
	}
	return nil
}

func (r *DepartmentRepository) Update(d *departmentDatamodel.Department) error {
	d.UpdatedAt = time.Now()
	if err := r.db.Save(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrDuplicateDeptName
		}
		return err
	}
	return nil
}

func (r *DepartmentRepository) Deactivate(id int64) error {
	return r.db.Model(&departmentDatamodel.Department{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}
