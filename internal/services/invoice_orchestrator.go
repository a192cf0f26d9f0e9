package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/metrics"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/sirupsen/logrus"
)

// Stage es una etapa de la emisión de una factura
type Stage string

const (
	StageDraft            Stage = "draft"
	StageRendering        Stage = "rendering"
	StageUploading        Stage = "uploading"
	StageRecordingInvoice Stage = "recording_invoice"
	StageRecordingFile    Stage = "recording_file"
	StageLoggingActivity  Stage = "logging_activity"
	StageNotifying        Stage = "notifying"
	StageDone             Stage = "done"
)

// State es el estado final alcanzado por una emisión
type State struct {
	Stage  Stage
	Failed bool
}

func (s State) String() string {
	if s.Failed {
		return fmt.Sprintf("failed(%s)", s.Stage)
	}
	return string(s.Stage)
}

// IssueRequest contiene todo lo necesario para emitir una factura
type IssueRequest struct {
	ClientID  uuid.UUID
	ProjectID *uuid.UUID
	CreatedBy uuid.UUID
	Client    models.ClientProfile
	Draft     models.InvoiceDraft
}

// IssueResult describe lo que quedó registrado tras la emisión
type IssueResult struct {
	State    State
	Invoice  *models.InvoiceRecord
	File     *models.FileRecord
	Activity *models.ActivityEntry
	Warnings []string
	// Notification recibe el error del aviso al cliente, si lo hay, y se cierra al terminar.
	Notification <-chan error
}

// OrchestratorConfig agrupa los parámetros de emisión
type OrchestratorConfig struct {
	Currency        string
	CurrencySymbol  string
	PaymentTermDays int
	NotifyTimeout   time.Duration
	Issuer          models.IssuerProfile
}

// InvoiceOrchestrator ejecuta la emisión como una saga sin transacción común:
// documento, almacenamiento, factura, listado de archivos, auditoría y aviso.
type InvoiceOrchestrator struct {
	renderer DocumentRenderer
	storage  ObjectStorage
	ledger   Ledger
	notifier Notifier
	guard    NumberGuard
	metrics  *metrics.Recorder
	cfg      OrchestratorConfig
	logger   *logrus.Logger

	// avisos en curso; Wait los drena antes de apagar
	pending sync.WaitGroup
}

// NewInvoiceOrchestrator crea el orquestador. notifier, guard y recorder pueden ser nil.
func NewInvoiceOrchestrator(renderer DocumentRenderer, storage ObjectStorage, ledger Ledger, notifier Notifier, guard NumberGuard, recorder *metrics.Recorder, cfg OrchestratorConfig, logger *logrus.Logger) *InvoiceOrchestrator {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 30 * time.Second
	}
	return &InvoiceOrchestrator{
		renderer: renderer,
		storage:  storage,
		ledger:   ledger,
		notifier: notifier,
		guard:    guard,
		metrics:  recorder,
		cfg:      cfg,
		logger:   logger,
	}
}

// DocumentPath retorna la ruta de almacenamiento del PDF de una factura
func DocumentPath(clientID uuid.UUID, invoiceNumber string) string {
	return fmt.Sprintf("%s/invoices/%s.pdf", clientID, invoiceNumber)
}

// Issue emite una factura. Si falla antes de registrar la factura no queda nada
// registrado. Si falla al registrar el archivo, la factura existe y se retorna junto
// al error. Auditoría y aviso nunca hacen fallar la operación.
func (o *InvoiceOrchestrator) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	started := time.Now()
	draft := req.Draft
	log := o.logger.WithFields(logrus.Fields{
		"client_id":      req.ClientID,
		"invoice_number": draft.Number(),
	})

	result := &IssueResult{State: State{Stage: StageDraft}}
	fail := func(stage Stage, kind ErrorKind, entity Entity, err error) (*IssueResult, error) {
		issueErr := &IssueError{
			Stage:          stage,
			Kind:           kind,
			Entity:         entity,
			InvoiceCreated: result.Invoice != nil,
			Err:            err,
		}
		result.State = State{Stage: stage, Failed: true}
		o.metrics.StageFailed(string(stage), string(kind))
		o.metrics.ObserveIssue(result.State.String(), time.Since(started))
		log.WithError(err).WithField("stage", stage).Error("Invoice issuance failed")
		if result.Invoice == nil {
			return nil, issueErr
		}
		result.Notification = closedErrChan()
		return result, issueErr
	}

	// Draft
	if req.ClientID == uuid.Nil {
		return fail(StageDraft, KindInvalidInput, "", fmt.Errorf("%w: client id is required", ErrInvalidInput))
	}
	if draft.Number() == "" {
		return fail(StageDraft, KindInvalidInput, "", fmt.Errorf("%w: invoice draft is empty", ErrInvalidInput))
	}
	reserved := false
	if o.guard != nil {
		ok, err := o.guard.Reserve(ctx, req.ClientID, draft.Number())
		if err != nil {
			return fail(StageDraft, KindStorageFailure, "", fmt.Errorf("error reserving invoice number: %w", err))
		}
		if !ok {
			return fail(StageDraft, KindConflict, "", fmt.Errorf("%w: %s", ErrNumberTaken, draft.Number()))
		}
		reserved = true
	}
	release := func() {
		if !reserved {
			return
		}
		if err := o.guard.Release(context.WithoutCancel(ctx), req.ClientID, draft.Number()); err != nil {
			log.WithError(err).Warn("Error releasing invoice number reservation")
		}
	}

	// Rendering
	result.State.Stage = StageRendering
	breakdown, err := ComputeVATBreakdown(draft.TotalInclVAT(), draft.VATRate())
	if err != nil {
		release()
		return fail(StageRendering, KindInvalidInput, "", err)
	}
	dueDate, err := ComputeDueDate(draft.IssueDate(), o.cfg.PaymentTermDays)
	if err != nil {
		release()
		return fail(StageRendering, KindInvalidInput, "", err)
	}
	doc, err := o.renderer.Render(models.InvoiceMetadata{
		Number:      draft.Number(),
		IssueDate:   draft.IssueDate(),
		DueDate:     dueDate,
		VATRate:     draft.VATRate(),
		Description: draft.Description(),
		LineItems:   draft.LineItems(),
		Client:      req.Client,
	}, breakdown, o.cfg.Issuer)
	if err != nil {
		release()
		kind := KindRenderFailure
		if errors.Is(err, ErrInvalidInput) {
			kind = KindInvalidInput
		}
		return fail(StageRendering, kind, "", err)
	}
	result.Warnings = append(result.Warnings, doc.Warnings...)

	// Sin cancelación a partir de la subida
	if err := ctx.Err(); err != nil {
		release()
		return fail(StageRendering, KindCanceled, "", err)
	}
	ctx = context.WithoutCancel(ctx)

	// Uploading
	result.State.Stage = StageUploading
	path := DocumentPath(req.ClientID, draft.Number())
	if err := o.storage.Put(ctx, path, doc.Bytes, doc.ContentType); err != nil {
		release()
		return fail(StageUploading, KindStorageFailure, "", fmt.Errorf("error uploading invoice document: %w", err))
	}
	log.WithField("path", path).Debug("Invoice document uploaded")

	// RecordingInvoice; si falla, el objeto subido queda huérfano
	result.State.Stage = StageRecordingInvoice
	invoice := &models.InvoiceRecord{
		InvoiceNumber: draft.Number(),
		ClientID:      req.ClientID,
		ProjectID:     req.ProjectID,
		Subtotal:      breakdown.Subtotal,
		VATAmount:     breakdown.VATAmount,
		TotalAmount:   breakdown.TotalAmount,
		VATRate:       draft.VATRate(),
		Currency:      o.cfg.Currency,
		IssueDate:     draft.IssueDate(),
		DueDate:       dueDate,
		Status:        models.InvoiceStatusPending,
		DocumentURL:   o.storage.PublicURL(path),
		DocumentPath:  path,
		Description:   draft.Description(),
		CreatedBy:     req.CreatedBy,
	}
	if err := o.ledger.CreateInvoice(ctx, invoice); err != nil {
		release()
		log.WithField("path", path).Warn("Invoice document left orphaned in storage")
		return fail(StageRecordingInvoice, KindRecordFailure, EntityInvoice, fmt.Errorf("error recording invoice: %w", err))
	}
	result.Invoice = invoice
	log = log.WithField("invoice_id", invoice.ID)

	// RecordingFile
	result.State.Stage = StageRecordingFile
	file := &models.FileRecord{
		ClientID:    req.ClientID,
		Name:        doc.FileName,
		MimeType:    doc.ContentType,
		SizeBytes:   int64(len(doc.Bytes)),
		StoragePath: path,
		Category:    models.FileCategoryDocument,
		UploadedBy:  req.CreatedBy,
	}
	if err := o.ledger.CreateFile(ctx, file); err != nil {
		return fail(StageRecordingFile, KindRecordFailure, EntityFile, fmt.Errorf("error recording invoice file: %w", err))
	}
	result.File = file

	// LoggingActivity
	result.State.Stage = StageLoggingActivity
	entry := &models.ActivityEntry{
		ClientID:   req.ClientID,
		ActorID:    req.CreatedBy,
		ActionType: models.ActivityInvoiceCreated,
		Description: fmt.Sprintf("Invoice %s created for %s",
			invoice.InvoiceNumber, models.FormatMoney(o.cfg.CurrencySymbol, invoice.TotalAmount)),
	}
	if err := o.ledger.AppendActivity(ctx, entry); err != nil {
		o.metrics.StageFailed(string(StageLoggingActivity), string(KindRecordFailure))
		log.WithError(err).Warn("Error appending invoice activity entry")
		result.Warnings = append(result.Warnings, "activity log entry could not be recorded")
	} else {
		result.Activity = entry
	}

	// Notifying, sin esperar el resultado
	result.State.Stage = StageNotifying
	result.Notification = o.dispatchNotification(ctx, invoice.ID, log)

	result.State.Stage = StageDone
	o.metrics.ObserveIssue(result.State.String(), time.Since(started))
	log.WithField("total_amount", invoice.TotalAmount.StringFixed(2)).Info("Invoice issued successfully")

	return result, nil
}

// dispatchNotification lanza el aviso en segundo plano; su error sólo se registra
func (o *InvoiceOrchestrator) dispatchNotification(ctx context.Context, invoiceID uuid.UUID, log *logrus.Entry) <-chan error {
	if o.notifier == nil {
		return closedErrChan()
	}

	done := make(chan error, 1)
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		defer close(done)
		notifyCtx, cancel := context.WithTimeout(ctx, o.cfg.NotifyTimeout)
		defer cancel()

		if err := o.notifier.NotifyInvoiceCreated(notifyCtx, invoiceID); err != nil {
			o.metrics.NotificationFailed()
			log.WithError(err).Warn("Invoice notification failed")
			done <- &IssueError{
				Stage:          StageNotifying,
				Kind:           KindNotifyFailure,
				InvoiceCreated: true,
				Err:            err,
			}
		}
	}()
	return done
}

// Wait espera a que terminen los avisos en curso o a que venza ctx
func (o *InvoiceOrchestrator) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		o.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("error waiting for pending notifications: %w", ctx.Err())
	}
}

// ReleaseNumber libera la reserva del número de una factura borrada
func (o *InvoiceOrchestrator) ReleaseNumber(ctx context.Context, clientID uuid.UUID, number string) error {
	if o.guard == nil {
		return nil
	}
	return o.guard.Release(ctx, clientID, number)
}

func closedErrChan() <-chan error {
	ch := make(chan error)
	close(ch)
	return ch
}
