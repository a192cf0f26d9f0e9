package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/sirupsen/logrus"
)

// InvoiceService maneja la lógica de negocio de facturas de clientes
type InvoiceService struct {
	orchestrator *InvoiceOrchestrator
	ledger       Ledger
	clients      ClientDirectory
	storage      ObjectStorage
	links        LinkCache
	notifier     Notifier
	signedURLTTL time.Duration
	logger       *logrus.Logger
}

// NewInvoiceService crea una nueva instancia del servicio. links y notifier pueden ser nil.
func NewInvoiceService(orchestrator *InvoiceOrchestrator, ledger Ledger, clients ClientDirectory, storage ObjectStorage, links LinkCache, notifier Notifier, signedURLTTL time.Duration, logger *logrus.Logger) *InvoiceService {
	if signedURLTTL <= 0 {
		signedURLTTL = 60 * time.Second
	}
	return &InvoiceService{
		orchestrator: orchestrator,
		ledger:       ledger,
		clients:      clients,
		storage:      storage,
		links:        links,
		notifier:     notifier,
		signedURLTTL: signedURLTTL,
		logger:       logger,
	}
}

// CreateInvoice emite una factura para un cliente
func (s *InvoiceService) CreateInvoice(ctx context.Context, clientID, actorID uuid.UUID, req *models.CreateInvoiceRequest) (*IssueResult, error) {
	client, err := s.clients.GetClientProfile(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("error getting client: %w", err)
	}

	items := make([]models.LineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		items = append(items, models.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitRate:    item.UnitRate,
			Amount:      item.Amount,
		})
	}

	draft, err := models.NewInvoiceDraft(req.InvoiceNumber, req.IssueDate, req.VATRate, req.TotalAmount, req.Description, items)
	if err != nil {
		return nil, &IssueError{Stage: StageDraft, Kind: KindInvalidInput, Err: err}
	}

	return s.orchestrator.Issue(ctx, IssueRequest{
		ClientID:  clientID,
		ProjectID: req.ProjectID,
		CreatedBy: actorID,
		Client:    *client,
		Draft:     draft,
	})
}

// GetInvoice obtiene una factura por ID
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceRecord, error) {
	return s.ledger.GetInvoice(ctx, id)
}

// ListClientInvoices lista las facturas de un cliente
func (s *InvoiceService) ListClientInvoices(ctx context.Context, clientID uuid.UUID) ([]models.InvoiceRecord, error) {
	return s.ledger.ListInvoicesByClient(ctx, clientID)
}

// ListClientFiles lista los archivos de un cliente
func (s *InvoiceService) ListClientFiles(ctx context.Context, clientID uuid.UUID) ([]models.FileRecord, error) {
	return s.ledger.ListFilesByClient(ctx, clientID)
}

// ListClientActivity lista el registro de auditoría de un cliente
func (s *InvoiceService) ListClientActivity(ctx context.Context, clientID uuid.UUID) ([]models.ActivityEntry, error) {
	return s.ledger.ListActivityByClient(ctx, clientID)
}

// DownloadLink emite una URL firmada de vida corta para el PDF de una factura
func (s *InvoiceService) DownloadLink(ctx context.Context, id uuid.UUID) (*models.DownloadLinkResponse, error) {
	invoice, err := s.ledger.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	// la copia en caché vive la mitad que la URL para que nunca se entregue caducada
	cacheTTL := s.signedURLTTL / 2
	if s.links != nil {
		if url, ok, err := s.links.GetLink(ctx, invoice.DocumentPath); err != nil {
			s.logger.WithError(err).Warn("Error reading signed URL cache")
		} else if ok {
			return &models.DownloadLinkResponse{URL: url, ExpiresAt: time.Now().Add(cacheTTL)}, nil
		}
	}

	url, err := s.storage.SignedURL(ctx, invoice.DocumentPath, s.signedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing invoice document URL: %w", err)
	}

	if s.links != nil {
		if err := s.links.SetLink(ctx, invoice.DocumentPath, url, cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Error caching signed URL")
		}
	}

	return &models.DownloadLinkResponse{URL: url, ExpiresAt: time.Now().Add(s.signedURLTTL)}, nil
}

// UpdateStatus cambia el estado de cobro; la factura se reescribe completa
func (s *InvoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) (*models.InvoiceRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown invoice status %q", ErrInvalidInput, status)
	}
	invoice, err := s.ledger.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Status = status
	if err := s.ledger.UpdateInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("error updating invoice status: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": id,
		"status":     status,
	}).Info("Invoice status updated successfully")

	return invoice, nil
}

// DeleteInvoice borra la factura y su documento y libera su número. La entrada del
// listado de archivos no se borra: no hay relación entre ambos registros.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.ledger.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ledger.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("error deleting invoice: %w", err)
	}
	if err := s.storage.Delete(ctx, []string{invoice.DocumentPath}); err != nil {
		s.logger.WithError(err).WithField("path", invoice.DocumentPath).Warn("Invoice document left orphaned in storage")
	}
	// el número vuelve a quedar libre para reemitir la factura corregida
	if err := s.orchestrator.ReleaseNumber(ctx, invoice.ClientID, invoice.InvoiceNumber); err != nil {
		s.logger.WithError(err).WithField("invoice_number", invoice.InvoiceNumber).Warn("Error releasing invoice number reservation")
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": id,
		"client_id":  invoice.ClientID,
	}).Info("Invoice deleted successfully")

	return nil
}

// ResendNotification vuelve a avisar al cliente de una factura existente
func (s *InvoiceService) ResendNotification(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ledger.GetInvoice(ctx, id); err != nil {
		return err
	}
	if s.notifier == nil {
		return &IssueError{Stage: StageNotifying, Kind: KindNotifyFailure, InvoiceCreated: true, Err: errors.New("no notifier configured")}
	}
	if err := s.notifier.NotifyInvoiceCreated(ctx, id); err != nil {
		return &IssueError{Stage: StageNotifying, Kind: KindNotifyFailure, InvoiceCreated: true, Err: err}
	}
	return nil
}

// DownloadDocument obtiene los bytes del PDF de una factura y su nombre de archivo
func (s *InvoiceService) DownloadDocument(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	invoice, err := s.ledger.GetInvoice(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := s.storage.Get(ctx, invoice.DocumentPath)
	if err != nil {
		return nil, "", fmt.Errorf("error downloading invoice document: %w", err)
	}
	return data, invoice.InvoiceNumber + ".pdf", nil
}
