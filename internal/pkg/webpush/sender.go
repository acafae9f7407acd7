package webpush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
)

// ErrSubscriptionGone means the push service no longer knows the endpoint.
var ErrSubscriptionGone = errors.New("push subscription gone")

type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) error
}

type Options struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
}

type VAPIDSender struct {
	opts Options
}

func NewVAPIDSender(opts Options) *VAPIDSender {
	return &VAPIDSender{opts: opts}
}

func (s *VAPIDSender) Send(ctx context.Context, sub Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, &webpush.Options{
		Subscriber:      s.opts.Subscriber,
		VAPIDPublicKey:  s.opts.VAPIDPublicKey,
		VAPIDPrivateKey: s.opts.VAPIDPrivateKey,
		TTL:             s.opts.TTL,
	})
	if err != nil {
		return fmt.Errorf("webpush.SendNotificationWithContext -> %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return checkStatus(resp.StatusCode)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrSubscriptionGone
	case code >= 400:
		return fmt.Errorf("push service responded with status %d", code)
	default:
		return nil
	}
}

// NoopSender is used when no VAPID keys are configured.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Subscription, []byte) error {
	return nil
}
