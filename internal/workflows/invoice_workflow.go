package workflows

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/email"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/sirupsen/logrus"
)

const workflowRetries = 4

// Deliverer envía el aviso de una factura y retorna el id del email
type Deliverer interface {
	Deliver(ctx context.Context, invoiceID uuid.UUID) (string, error)
}

// stepRunner ejecuta un paso durable; en producción es step.Run
type stepRunner func(ctx context.Context, id string, fn func(context.Context) (string, error)) (string, error)

// InvoiceCreatedData representa el payload del evento de factura creada
type InvoiceCreatedData struct {
	InvoiceID string `json:"invoice_id"`
}

// InvoiceWorkflowOutput representa el output del workflow
type InvoiceWorkflowOutput struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	EmailID   string    `json:"email_id,omitempty"`
	Status    string    `json:"status"`
}

// InvoiceWorkflow envía el email de factura creada con reintentos de Inngest
type InvoiceWorkflow struct {
	deliverer Deliverer
	runStep   stepRunner
	logger    *logrus.Logger
}

// NewInvoiceWorkflow crea una nueva instancia del workflow
func NewInvoiceWorkflow(deliverer Deliverer, logger *logrus.Logger) *InvoiceWorkflow {
	return &InvoiceWorkflow{
		deliverer: deliverer,
		runStep:   step.Run[string],
		logger:    logger,
	}
}

// Handle es la función registrada en Inngest
func (w *InvoiceWorkflow) Handle(ctx context.Context, input inngestgo.Input[InvoiceCreatedData]) (any, error) {
	invoiceID, err := uuid.Parse(input.Event.Data.InvoiceID)
	if err != nil {
		w.logger.WithError(err).Warn("Invoice workflow received an invalid invoice id")
		return &InvoiceWorkflowOutput{Status: "skipped"}, nil
	}

	emailID, err := w.runStep(ctx, "send-invoice-email", func(ctx context.Context) (string, error) {
		return w.deliverer.Deliver(ctx, invoiceID)
	})
	output, err := w.outcome(invoiceID, emailID, err)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// outcome decide si el fallo se reintenta. Sin destinatario o sin factura no tiene sentido reintentar.
func (w *InvoiceWorkflow) outcome(invoiceID uuid.UUID, emailID string, err error) (*InvoiceWorkflowOutput, error) {
	log := w.logger.WithField("invoice_id", invoiceID)

	if err == nil {
		log.WithField("email_id", emailID).Info("Invoice workflow completed successfully")
		return &InvoiceWorkflowOutput{InvoiceID: invoiceID, EmailID: emailID, Status: "sent"}, nil
	}

	if errors.Is(err, email.ErrNoRecipient) || errors.Is(err, models.ErrNotFound) {
		log.WithError(err).Warn("Invoice email skipped")
		return &InvoiceWorkflowOutput{InvoiceID: invoiceID, Status: "skipped"}, nil
	}

	log.WithError(err).Error("Invoice workflow step failed")
	return nil, err
}
