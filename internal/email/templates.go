package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type scheduleConfirmationEmailData struct {
	baseEmailData
	ClientName    string
	OrderNumber   string
	ScheduledDate string
}

type statusUpdateEmailData struct {
	baseEmailData
	ClientName  string
	OrderNumber string
	StatusLabel string
}

type quoteReadyEmailData struct {
	baseEmailData
	ClientName  string
	OrderNumber string
}

type paymentReceiptEmailData struct {
	baseEmailData
	ClientName      string
	OrderNumber     string
	StageLabel      string
	AmountFormatted string
}

type cancellationEmailData struct {
	baseEmailData
	ClientName  string
	OrderNumber string
	Reason      string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("R$ %.2f", amount)
}
