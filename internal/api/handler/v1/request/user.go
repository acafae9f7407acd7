package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
)

type UpdateProfileRequest struct {
	Name  string `json:"name" form:"name"`
	Phone string `json:"phone" form:"phone"`
}

func (req *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&req.Phone, validation.RuneLength(0, 30)),
	)
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

func (req *ChangeRoleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Role, validation.Required, validation.In(
			string(domain.RoleVolunteer), string(domain.RoleEventManager), string(domain.RoleAdmin))),
	)
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

func (req *SetStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required,
			validation.In(string(domain.UserStatusActive), string(domain.UserStatusLocked))),
	)
}
