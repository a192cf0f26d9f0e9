package workflows

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/config"
	"github.com/inngest/inngestgo"
	"github.com/sirupsen/logrus"
)

// EventInvoiceCreated se publica cuando una factura queda registrada
const EventInvoiceCreated = "agency/invoice.created"

// InngestClient maneja la configuración y registro de workflows
type InngestClient struct {
	client inngestgo.Client
	logger *logrus.Logger
}

// NewInngestClient crea una nueva instancia del cliente
func NewInngestClient(cfg *config.Config, logger *logrus.Logger) (*InngestClient, error) {
	// Verificar que las credenciales estén configuradas
	if cfg.Inngest.EventKey == "" {
		return nil, fmt.Errorf("INNGEST_EVENT_KEY not configured")
	}

	if cfg.Inngest.SigningKey == "" && !cfg.Inngest.Dev {
		return nil, fmt.Errorf("INNGEST_SIGNING_KEY not configured")
	}

	dev := cfg.Inngest.Dev
	client, err := inngestgo.NewClient(inngestgo.ClientOpts{
		EventKey:   &cfg.Inngest.EventKey,
		SigningKey: &cfg.Inngest.SigningKey,
		AppID:      cfg.Inngest.AppID,
		Dev:        &dev,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating Inngest client: %w", err)
	}

	return &InngestClient{
		client: client,
		logger: logger,
	}, nil
}

// NotifyInvoiceCreated publica el evento de factura creada; el envío del email
// lo hace el workflow registrado.
func (c *InngestClient) NotifyInvoiceCreated(ctx context.Context, invoiceID uuid.UUID) error {
	eventID, err := c.client.Send(ctx, inngestgo.Event{
		Name: EventInvoiceCreated,
		Data: map[string]any{
			"invoice_id": invoiceID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("error sending Inngest event: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"event_id":   eventID,
		"invoice_id": invoiceID,
	}).Info("Invoice created event sent successfully")

	return nil
}

// RegisterWorkflows registra todos los workflows con Inngest
func (c *InngestClient) RegisterWorkflows(deliverer Deliverer) error {
	c.logger.Info("Registering workflows with Inngest")

	workflow := NewInvoiceWorkflow(deliverer, c.logger)
	retries := workflowRetries
	if _, err := inngestgo.CreateFunction(
		c.client,
		inngestgo.FunctionOpts{
			ID:      "invoice-created-email",
			Name:    "Send invoice created email",
			Retries: &retries,
		},
		inngestgo.EventTrigger(EventInvoiceCreated, nil),
		workflow.Handle,
	); err != nil {
		return fmt.Errorf("error registering invoice workflow: %w", err)
	}

	return nil
}

// Handler retorna el endpoint HTTP que Inngest invoca
func (c *InngestClient) Handler() http.Handler {
	return c.client.Serve()
}

// GetClient retorna el cliente de Inngest
func (c *InngestClient) GetClient() inngestgo.Client {
	return c.client
}
