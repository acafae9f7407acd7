package mailer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaMailer_SendOtp(t *testing.T) {
	w := &fakeWriter{}
	m := &KafkaMailer{writer: w}

	expires := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err := m.SendOtp(context.Background(), OtpMessage{
		Email:     "a@b.com",
		Code:      "123456",
		Purpose:   "REGISTER",
		ExpiresAt: expires,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("a@b.com"), w.msgs[0].Key)

	var got OtpMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "123456", got.Code)
	assert.Equal(t, "REGISTER", got.Purpose)
	assert.True(t, expires.Equal(got.ExpiresAt))

	require.NoError(t, m.Close())
	assert.True(t, w.closed)
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.SendOtp(context.Background(), OtpMessage{Email: "a@b.com"}))
	assert.NoError(t, LogMailer{}.Close())
}
