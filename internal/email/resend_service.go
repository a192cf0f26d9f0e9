package email

import (
	"errors"
	"fmt"
	"html"

	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// ErrNoRecipient se retorna cuando el cliente no tiene email de contacto
var ErrNoRecipient = errors.New("client has no contact email")

// ResendService maneja el envío de correos electrónicos usando Resend API
type ResendService struct {
	client         *resend.Client
	fromEmail      string
	baseURL        string
	issuerName     string
	currencySymbol string
	logger         *logrus.Logger
}

// NewResendService crea una nueva instancia de ResendService
func NewResendService(client *resend.Client, fromEmail, baseURL, issuerName, currencySymbol string, logger *logrus.Logger) *ResendService {
	return &ResendService{
		client:         client,
		fromEmail:      fromEmail,
		baseURL:        baseURL,
		issuerName:     issuerName,
		currencySymbol: currencySymbol,
		logger:         logger,
	}
}

// SendInvoiceCreatedEmail avisa al cliente de una factura nueva. Retorna el id de Resend.
func (s *ResendService) SendInvoiceCreatedEmail(invoice *models.InvoiceRecord, client *models.ClientProfile) (string, error) {
	if client.ContactEmail == "" {
		return "", fmt.Errorf("%w: %s", ErrNoRecipient, client.ID)
	}

	subject := fmt.Sprintf("Invoice %s from %s", invoice.InvoiceNumber, s.issuerName)

	greeting := client.ContactName
	if greeting == "" {
		greeting = client.LegalName
	}

	htmlContent := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Invoice %s</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #212529; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1f3a60; color: #ffffff; padding: 20px; border-radius: 8px; }
        .content { padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #1f3a60; color: #ffffff; text-decoration: none; border-radius: 5px; }
        .footer { margin-top: 30px; padding: 20px; background-color: #f8f9fa; border-radius: 8px; font-size: 13px; color: #6c757d; }
        .total { font-size: 18px; font-weight: bold; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Invoice %s</h1>
            <p>Issued %s</p>
        </div>

        <div class="content">
            <p>Hello %s,</p>
            <p>A new invoice is available in your client portal.</p>
            <ul>
                <li><strong>Invoice number:</strong> %s</li>
                <li><strong>Total due:</strong> <span class="total">%s</span></li>
                <li><strong>Due date:</strong> %s</li>
            </ul>
            <p style="text-align: center; margin: 24px 0;">
                <a href="%s/v1/invoices/%s/download" class="button">Download invoice</a>
            </p>
            <p>Download links expire shortly after they are opened. You can request a new one from the portal at any time.</p>
        </div>

        <div class="footer">
            <p>This message was sent automatically by %s.</p>
        </div>
    </div>
</body>
</html>`,
		html.EscapeString(invoice.InvoiceNumber),
		html.EscapeString(invoice.InvoiceNumber),
		invoice.IssueDate.String(),
		html.EscapeString(greeting),
		html.EscapeString(invoice.InvoiceNumber),
		html.EscapeString(models.FormatMoney(s.currencySymbol, invoice.TotalAmount)),
		invoice.DueDate.String(),
		s.baseURL,
		invoice.ID,
		html.EscapeString(s.issuerName),
	)

	request := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{client.ContactEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	result, err := s.client.Emails.Send(request)
	if err != nil {
		return "", fmt.Errorf("error sending email via Resend: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email_id":   result.Id,
		"invoice_id": invoice.ID,
		"to":         client.ContactEmail,
	}).Info("Invoice email sent successfully via Resend")

	return result.Id, nil
}
