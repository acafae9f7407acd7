package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OtpMessage is published for the mail worker that delivers one-time codes.
type OtpMessage struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Mailer interface {
	SendOtp(ctx context.Context, msg OtpMessage) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaMailer struct {
	writer messageWriter
}

func NewKafkaMailer(brokers []string, topic string) *KafkaMailer {
	return &KafkaMailer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           10 * time.Second,
		},
	}
}

func (m *KafkaMailer) SendOtp(ctx context.Context, msg OtpMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err = m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Email),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("m.writer.WriteMessages -> %w", err)
	}

	return nil
}

func (m *KafkaMailer) Close() error {
	return m.writer.Close()
}

// LogMailer writes the code to the log instead of delivering it.
type LogMailer struct{}

func (LogMailer) SendOtp(_ context.Context, msg OtpMessage) error {
	zap.L().Info("otp issued",
		zap.String("email", msg.Email),
		zap.String("purpose", msg.Purpose),
		zap.String("code", msg.Code),
		zap.Time("expires_at", msg.ExpiresAt))

	return nil
}

func (LogMailer) Close() error {
	return nil
}
