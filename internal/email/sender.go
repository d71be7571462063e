// Package email delivers client-facing notification emails over SMTP.
package email

import "context"

// Sender is the outbound email surface the notification module uses.
type Sender interface {
	SendScheduleConfirmationEmail(ctx context.Context, toEmail, clientName, orderNumber, scheduledDate string) error
	SendStatusUpdateEmail(ctx context.Context, toEmail, clientName, orderNumber, statusLabel string) error
	SendQuoteReadyEmail(ctx context.Context, toEmail, clientName, orderNumber string) error
	SendPaymentReceiptEmail(ctx context.Context, toEmail, clientName, orderNumber, stageLabel string, amount float64) error
	SendCancellationEmail(ctx context.Context, toEmail, clientName, orderNumber, reason string) error
}

// NoopSender discards all emails. Used when EMAIL_ENABLED is false.
type NoopSender struct{}

func (NoopSender) SendScheduleConfirmationEmail(ctx context.Context, toEmail, clientName, orderNumber, scheduledDate string) error {
	return nil
}

func (NoopSender) SendStatusUpdateEmail(ctx context.Context, toEmail, clientName, orderNumber, statusLabel string) error {
	return nil
}

func (NoopSender) SendQuoteReadyEmail(ctx context.Context, toEmail, clientName, orderNumber string) error {
	return nil
}

func (NoopSender) SendPaymentReceiptEmail(ctx context.Context, toEmail, clientName, orderNumber, stageLabel string, amount float64) error {
	return nil
}

func (NoopSender) SendCancellationEmail(ctx context.Context, toEmail, clientName, orderNumber, reason string) error {
	return nil
}

var _ Sender = NoopSender{}
