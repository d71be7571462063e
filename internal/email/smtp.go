package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"repairdesk_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP
// connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSender picks the outbound sender for the current configuration.
// When email delivery is disabled the noop sender is returned so the
// rest of the application never has to branch on the flag.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}

// NewSMTPSender creates a new SMTPSender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendScheduleConfirmationEmail(ctx context.Context, toEmail, clientName, orderNumber, scheduledDate string) error {
	subject := fmt.Sprintf(subjectScheduleConfirmationFmt, orderNumber)
	content, err := renderEmailTemplate("schedule_confirmation.html", scheduleConfirmationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Visit scheduled",
			Heading: "Your visit is scheduled",
		},
		ClientName:    clientName,
		OrderNumber:   orderNumber,
		ScheduledDate: scheduledDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendStatusUpdateEmail(ctx context.Context, toEmail, clientName, orderNumber, statusLabel string) error {
	subject := fmt.Sprintf(subjectStatusUpdateFmt, orderNumber)
	content, err := renderEmailTemplate("status_update.html", statusUpdateEmailData{
		baseEmailData: baseEmailData{
			Title:   "Order update",
			Heading: "Your repair order was updated",
		},
		ClientName:  clientName,
		OrderNumber: orderNumber,
		StatusLabel: statusLabel,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendQuoteReadyEmail(ctx context.Context, toEmail, clientName, orderNumber string) error {
	subject := fmt.Sprintf(subjectQuoteReadyFmt, orderNumber)
	content, err := renderEmailTemplate("quote_ready.html", quoteReadyEmailData{
		baseEmailData: baseEmailData{
			Title:   "Your repair quote is ready",
			Heading: "Your repair quote is ready",
		},
		ClientName:  clientName,
		OrderNumber: orderNumber,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendPaymentReceiptEmail(ctx context.Context, toEmail, clientName, orderNumber, stageLabel string, amount float64) error {
	subject := fmt.Sprintf(subjectPaymentReceiptFmt, orderNumber)
	content, err := renderEmailTemplate("payment_receipt.html", paymentReceiptEmailData{
		baseEmailData: baseEmailData{
			Title:   "Payment received",
			Heading: "Payment received",
		},
		ClientName:      clientName,
		OrderNumber:     orderNumber,
		StageLabel:      stageLabel,
		AmountFormatted: formatAmount(amount),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendCancellationEmail(ctx context.Context, toEmail, clientName, orderNumber, reason string) error {
	subject := fmt.Sprintf(subjectCancellationFmt, orderNumber)
	content, err := renderEmailTemplate("cancellation.html", cancellationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Order cancelled",
			Heading: "Your repair order was cancelled",
		},
		ClientName:  clientName,
		OrderNumber: orderNumber,
		Reason:      reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

var _ Sender = (*SMTPSender)(nil)
