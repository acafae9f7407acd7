package webpush

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		wantErr error
		fails   bool
	}{
		{name: "created", code: http.StatusCreated},
		{name: "not found", code: http.StatusNotFound, wantErr: ErrSubscriptionGone, fails: true},
		{name: "gone", code: http.StatusGone, wantErr: ErrSubscriptionGone, fails: true},
		{name: "too many requests", code: http.StatusTooManyRequests, fails: true},
		{name: "server error", code: http.StatusBadGateway, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.code)
			if !tt.fails {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NotErrorIs(t, err, ErrSubscriptionGone)
			}
		})
	}
}

func TestNoopSender(t *testing.T) {
	assert.NoError(t, NoopSender{}.Send(context.Background(), Subscription{Endpoint: "x"}, []byte("{}")))
}
