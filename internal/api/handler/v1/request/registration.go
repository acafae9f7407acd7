package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
)

type RegistrationStatusRequest struct {
	Status string `json:"status"`
}

func (req *RegistrationStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required,
			validation.In(string(domain.RegistrationStatusApproved), string(domain.RegistrationStatusRejected))),
	)
}

type CancelDecisionRequest struct {
	Approve *bool `json:"approve"`
}

func (req *CancelDecisionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Approve, validation.NotNil),
	)
}
