package request

import validation "github.com/go-ozzo/ozzo-validation"

type ContentRequest struct {
	Content string `json:"content"`
}

func (req *ContentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Content, validation.Required, validation.RuneLength(1, 5000)),
	)
}
