package department

import (
	"github.com/frahmantamala/document-workspace/internal/core/common/validation"
)

type CreateDepartmentDTO struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (d CreateDepartmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateDepartmentDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (d UpdateDepartmentDTO) Validate() error {
	if d.Name != nil {
		v := validation.NewValidator()
		v.Field("name", *d.Name).Required().MaxLength(255)
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
