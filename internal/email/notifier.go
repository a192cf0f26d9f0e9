package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
)

// InvoiceLookup obtiene facturas por ID
type InvoiceLookup interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceRecord, error)
}

// ClientLookup obtiene los datos de un cliente
type ClientLookup interface {
	GetClientProfile(ctx context.Context, id uuid.UUID) (*models.ClientProfile, error)
}

// DirectNotifier envía el aviso de factura nueva directamente por Resend
type DirectNotifier struct {
	mailer   *ResendService
	invoices InvoiceLookup
	clients  ClientLookup
}

// NewDirectNotifier crea el notificador
func NewDirectNotifier(mailer *ResendService, invoices InvoiceLookup, clients ClientLookup) *DirectNotifier {
	return &DirectNotifier{
		mailer:   mailer,
		invoices: invoices,
		clients:  clients,
	}
}

// NotifyInvoiceCreated carga la factura y su cliente y envía el email
func (n *DirectNotifier) NotifyInvoiceCreated(ctx context.Context, invoiceID uuid.UUID) error {
	_, err := n.Deliver(ctx, invoiceID)
	return err
}

// Deliver envía el aviso y retorna el id del email
func (n *DirectNotifier) Deliver(ctx context.Context, invoiceID uuid.UUID) (string, error) {
	invoice, err := n.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("error getting invoice: %w", err)
	}
	client, err := n.clients.GetClientProfile(ctx, invoice.ClientID)
	if err != nil {
		return "", fmt.Errorf("error getting client: %w", err)
	}
	return n.mailer.SendInvoiceCreatedEmail(invoice, client)
}
