// Package notify delivers one-time codes and action links over SMS with an
// email fallback. The failover policy lives in one place, [Failover], and is
// shared by every flow that sends something out of band.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrAllChannelsFailed means no channel accepted the message.
	ErrAllChannelsFailed = errors.New("all notification channels failed")
	// ErrNoRecipient means the message had neither a phone number nor an email address.
	ErrNoRecipient = errors.New("no notification recipient")
)

// SMSSender sends a text to one or more phone numbers.
type SMSSender interface {
	SendOTP(ctx context.Context, phones []string, senderLabel, message string) error
}

// EmailSender sends an HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, addresses []string, subject, bodyHTML string) error
}

// Channel names the transport that delivered a message.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Message is one outbound notification rendered for both channels.
type Message struct {
	Phone       string
	Email       string
	SenderLabel string
	SMSText     string
	Subject     string
	HTML        string
}

// Delivery reports how a message went out. Degraded is set when the
// preferred channel failed and the fallback delivered.
type Delivery struct {
	Channel  Channel
	Degraded bool
}

// Failover tries SMS first, then email. Either sender may be nil.
type Failover struct {
	sms    SMSSender
	email  EmailSender
	logger *slog.Logger
}

func NewFailover(sms SMSSender, email EmailSender, logger *slog.Logger) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{sms: sms, email: email, logger: logger}
}

// Deliver sends msg and never drops it silently: it either returns a
// Delivery or ErrAllChannelsFailed.
func (f *Failover) Deliver(ctx context.Context, msg Message) (Delivery, error) {
	phone := strings.TrimSpace(msg.Phone)
	email := strings.TrimSpace(msg.Email)
	if phone == "" && email == "" {
		return Delivery{}, ErrNoRecipient
	}

	var smsErr error
	if phone != "" && f.sms != nil {
		smsErr = f.sms.SendOTP(ctx, []string{phone}, msg.SenderLabel, msg.SMSText)
		if smsErr == nil {
			return Delivery{Channel: ChannelSMS}, nil
		}
		f.logger.WarnContext(ctx, "sms delivery failed, falling back to email", slog.String("error", smsErr.Error()))
	}

	if email == "" || f.email == nil {
		if smsErr != nil {
			return Delivery{}, fmt.Errorf("%w: sms: %v", ErrAllChannelsFailed, smsErr)
		}
		return Delivery{}, ErrAllChannelsFailed
	}

	if err := f.email.SendEmail(ctx, []string{email}, msg.Subject, msg.HTML); err != nil {
		f.logger.ErrorContext(ctx, "email delivery failed", slog.String("error", err.Error()))
		return Delivery{}, fmt.Errorf("%w: email: %v", ErrAllChannelsFailed, err)
	}

	// Degraded only when SMS was expected and failed.
	return Delivery{Channel: ChannelEmail, Degraded: phone != "" && f.sms != nil}, nil
}

// LogSender satisfies both sender interfaces by logging recipients only.
// It is meant for local development; message bodies are never logged.
type LogSender struct {
	Logger *slog.Logger
}

func (l LogSender) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l LogSender) SendOTP(ctx context.Context, phones []string, senderLabel, _ string) error {
	l.logger().InfoContext(ctx, "sms suppressed", slog.Int("recipients", len(phones)), slog.String("sender", senderLabel))
	return nil
}

func (l LogSender) SendEmail(ctx context.Context, addresses []string, subject, _ string) error {
	l.logger().InfoContext(ctx, "email suppressed", slog.Int("recipients", len(addresses)), slog.String("subject", subject))
	return nil
}
