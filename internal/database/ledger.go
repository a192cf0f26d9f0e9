package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/sirupsen/logrus"
)

// Ledger reúne los repositorios de facturas, archivos y auditoría.
// Cada operación es independiente; no hay transacción entre tablas.
type Ledger struct {
	invoices *InvoiceRepository
	files    *FileRepository
	activity *ActivityRepository
}

// NewLedger crea el ledger sobre una conexión
func NewLedger(db *DB, logger *logrus.Logger) *Ledger {
	return &Ledger{
		invoices: NewInvoiceRepository(db, logger),
		files:    NewFileRepository(db, logger),
		activity: NewActivityRepository(db, logger),
	}
}

func (l *Ledger) CreateInvoice(ctx context.Context, invoice *models.InvoiceRecord) error {
	return l.invoices.Create(ctx, invoice)
}

func (l *Ledger) GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceRecord, error) {
	return l.invoices.GetByID(ctx, id)
}

func (l *Ledger) ListInvoicesByClient(ctx context.Context, clientID uuid.UUID) ([]models.InvoiceRecord, error) {
	return l.invoices.ListByClient(ctx, clientID)
}

func (l *Ledger) UpdateInvoice(ctx context.Context, invoice *models.InvoiceRecord) error {
	return l.invoices.Update(ctx, invoice)
}

func (l *Ledger) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	return l.invoices.Delete(ctx, id)
}

func (l *Ledger) CreateFile(ctx context.Context, file *models.FileRecord) error {
	return l.files.Create(ctx, file)
}

func (l *Ledger) ListFilesByClient(ctx context.Context, clientID uuid.UUID) ([]models.FileRecord, error) {
	return l.files.ListByClient(ctx, clientID)
}

func (l *Ledger) DeleteFile(ctx context.Context, id uuid.UUID) error {
	return l.files.Delete(ctx, id)
}

func (l *Ledger) AppendActivity(ctx context.Context, entry *models.ActivityEntry) error {
	return l.activity.Append(ctx, entry)
}

func (l *Ledger) ListActivityByClient(ctx context.Context, clientID uuid.UUID) ([]models.ActivityEntry, error) {
	return l.activity.ListByClient(ctx, clientID)
}
