package department

import (
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/document-workspace/internal"
	departmentDatamodel "github.com/frahmantamala/document-workspace/internal/core/datamodel/department"
)

type RepositoryAPI interface {
	GetAll() ([]*departmentDatamodel.Department, error)
	GetByID(id int64) (*departmentDatamodel.Department, error)
	GetByName(name string) (*departmentDatamodel.Department, error)
	Create(department *departmentDatamodel.Department) error
	Update(department *departmentDatamodel.Department) error
	Deactivate(id int64) error
}

type ServiceAPI interface {
	GetAllDepartments() ([]*Department, error)
	GetDepartment(id int64) (*Department, error)
	CreateDepartment(dto CreateDepartmentDTO) (*Department, error)
	UpdateDepartment(id int64, dto UpdateDepartmentDTO) (*Department, error)
	DeactivateDepartment(id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAllDepartments() ([]*Department, error) {
	models, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to get departments", "error", err)
		return nil, internal.NewInternalError("failed to get departments", err)
	}

	departments := make([]*Department, 0, len(models))
	for _, m := range models {
		d := FromDataModel(m)
		if d.IsActive {
			departments = append(departments, d)
		}
	}
	return departments, nil
}

func (s *Service) GetDepartment(id int64) (*Department, error) {
	m, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	d := FromDataModel(m)
	if !d.IsActive {
		return nil, internal.ErrDepartmentNotFound
	}
	return d, nil
}

func (s *Service) CreateDepartment(dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(dto.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, internal.ErrDuplicateDeptName
	}

	d := NewDepartment(dto.Name, dto.Description)
	m := ToDataModel(d)
	if err := s.repo.Create(m); err != nil {
		if errors.Is(err, internal.ErrDuplicateDeptName) {
			return nil, err
		}
		s.logger.Error("failed to create department", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create department", err)
	}
	d.ID = m.ID

	s.logger.Info("department created", "department_id", d.ID, "name", d.Name)
	return d, nil
}

func (s *Service) UpdateDepartment(id int64, dto UpdateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	m, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	d := FromDataModel(m)
	if !d.IsActive {
		return nil, internal.ErrDepartmentNotFound
	}

	if dto.Name != nil && *dto.Name != d.Name {
		existing, err := s.repo.GetByName(*dto.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, internal.ErrDuplicateDeptName
		}
		d.Name = *dto.Name
	}
	if dto.Description != nil {
		d.Description = *dto.Description
	}
	d.UpdatedAt = time.Now()

	if err := s.repo.Update(ToDataModel(d)); err != nil {
		if errors.Is(err, internal.ErrDuplicateDeptName) {
			return nil, err
		}
		s.logger.Error("failed to update department", "error", err, "department_id", id)
		return nil, internal.NewInternalError("failed to update department", err)
	}
	return d, nil
}

func (s *Service) DeactivateDepartment(id int64) error {
	m, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if !m.IsActive {
		return internal.ErrDepartmentNotFound
	}

	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to deactivate department", "error", err, "department_id", id)
		return internal.NewInternalError("failed to deactivate department", err)
	}

	s.logger.Info("department deactivated", "department_id", id)
	return nil
}
