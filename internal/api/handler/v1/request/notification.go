package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// SubscriptionKeys mirrors PushSubscription.toJSON().keys in the browser.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

type SubscribeRequest struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

func (req *SubscribeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Endpoint, validation.Required, is.URL),
		validation.Field(&req.Keys),
	)
}

func (k SubscriptionKeys) Validate() error {
	return validation.ValidateStruct(
		&k,
		validation.Field(&k.P256dh, validation.Required),
		validation.Field(&k.Auth, validation.Required),
	)
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (req *UnsubscribeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Endpoint, validation.Required),
	)
}
