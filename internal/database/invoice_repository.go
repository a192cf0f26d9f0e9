package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/sirupsen/logrus"
)

const invoiceColumns = `
	id, invoice_number, client_id, project_id, subtotal, vat_amount, total_amount,
	vat_rate, currency, issue_date, due_date, status, document_url, document_path,
	description, created_by, created_at, updated_at`

// InvoiceRepository maneja las operaciones de base de datos para facturas
type InvoiceRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewInvoiceRepository crea una nueva instancia del repositorio
func NewInvoiceRepository(db *DB, logger *logrus.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserta una factura y le asigna su identificador
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.InvoiceRecord) error {
	now := time.Now().UTC()
	invoice.ID = uuid.New()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	query := `
		INSERT INTO invoices (` + invoiceColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
	`

	_, err := r.db.ExecWithTimeout(ctx, query,
		invoice.ID, invoice.InvoiceNumber, invoice.ClientID, nullableUUID(invoice.ProjectID),
		invoice.Subtotal, invoice.VATAmount, invoice.TotalAmount, invoice.VATRate, invoice.Currency,
		dateValue(invoice.IssueDate), dateValue(invoice.DueDate), string(invoice.Status),
		invoice.DocumentURL, invoice.DocumentPath, invoice.Description, invoice.CreatedBy,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		invoice.ID = uuid.Nil
		return fmt.Errorf("error creating invoice: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.InvoiceNumber,
		"client_id":      invoice.ClientID,
	}).Info("Invoice recorded successfully")

	return nil
}

// GetByID obtiene una factura por ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.InvoiceRecord, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	var s invoiceScan
	if err := r.db.QueryRowWithTimeout(ctx, query, []interface{}{id}, s.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying invoice: %w", err)
	}
	return s.record(), nil
}

// ListByClient lista las facturas de un cliente, las más recientes primero
func (r *InvoiceRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.InvoiceRecord, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE client_id = $1
		ORDER BY issue_date DESC, created_at DESC
	`

	rows, cancel, err := r.db.QueryWithTimeout(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("error querying invoices: %w", err)
	}
	defer cancel()
	defer rows.Close()

	invoices := []models.InvoiceRecord{}
	for rows.Next() {
		var s invoiceScan
		if err := rows.Scan(s.dest()...); err != nil {
			return nil, fmt.Errorf("error scanning invoice: %w", err)
		}
		invoices = append(invoices, *s.record())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

// Update reescribe la factura completa
func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.InvoiceRecord) error {
	invoice.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE invoices
		SET invoice_number = $1, project_id = $2, subtotal = $3, vat_amount = $4, total_amount = $5,
		    vat_rate = $6, currency = $7, issue_date = $8, due_date = $9, status = $10,
		    document_url = $11, document_path = $12, description = $13, updated_at = $14
		WHERE id = $15
	`

	result, err := r.db.ExecWithTimeout(ctx, query,
		invoice.InvoiceNumber, nullableUUID(invoice.ProjectID), invoice.Subtotal, invoice.VATAmount,
		invoice.TotalAmount, invoice.VATRate, invoice.Currency, dateValue(invoice.IssueDate),
		dateValue(invoice.DueDate), string(invoice.Status), invoice.DocumentURL, invoice.DocumentPath,
		invoice.Description, invoice.UpdatedAt, invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating invoice: %w", err)
	}
	return expectOneRow(result, "invoice", invoice.ID)
}

// Delete elimina una factura
func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecWithTimeout(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting invoice: %w", err)
	}
	return expectOneRow(result, "invoice", id)
}

// invoiceScan recibe una fila de invoices con los tipos que entrega el driver
type invoiceScan struct {
	rec       models.InvoiceRecord
	projectID uuid.NullUUID
	status    string
	issueDate time.Time
	dueDate   time.Time
}

func (s *invoiceScan) dest() []interface{} {
	return []interface{}{
		&s.rec.ID, &s.rec.InvoiceNumber, &s.rec.ClientID, &s.projectID,
		&s.rec.Subtotal, &s.rec.VATAmount, &s.rec.TotalAmount, &s.rec.VATRate, &s.rec.Currency,
		&s.issueDate, &s.dueDate, &s.status, &s.rec.DocumentURL, &s.rec.DocumentPath,
		&s.rec.Description, &s.rec.CreatedBy, &s.rec.CreatedAt, &s.rec.UpdatedAt,
	}
}

func (s *invoiceScan) record() *models.InvoiceRecord {
	rec := s.rec
	if s.projectID.Valid {
		id := s.projectID.UUID
		rec.ProjectID = &id
	}
	rec.Status = models.InvoiceStatus(s.status)
	rec.IssueDate = civil.DateOf(s.issueDate)
	rec.DueDate = civil.DateOf(s.dueDate)
	return &rec
}

func dateValue(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func expectOneRow(result sql.Result, entity string, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, models.ErrNotFound)
	}
	return nil
}
