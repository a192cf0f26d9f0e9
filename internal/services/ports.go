package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
)

// ObjectStorage almacena documentos binarios y emite URLs de descarga
type ObjectStorage interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	PublicURL(path string) string
	Delete(ctx context.Context, paths []string) error
}

// InvoiceStore persiste las facturas. El identificador lo asigna Create.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, invoice *models.InvoiceRecord) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceRecord, error)
	ListInvoicesByClient(ctx context.Context, clientID uuid.UUID) ([]models.InvoiceRecord, error)
	UpdateInvoice(ctx context.Context, invoice *models.InvoiceRecord) error
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
}

// FileStore persiste el listado de archivos de cada cliente
type FileStore interface {
	CreateFile(ctx context.Context, file *models.FileRecord) error
	ListFilesByClient(ctx context.Context, clientID uuid.UUID) ([]models.FileRecord, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
}

// ActivityLog es el registro de auditoría, sólo de escritura al final
type ActivityLog interface {
	AppendActivity(ctx context.Context, entry *models.ActivityEntry) error
	ListActivityByClient(ctx context.Context, clientID uuid.UUID) ([]models.ActivityEntry, error)
}

// Ledger agrupa los tres almacenes de registros. No hay transacción entre ellos.
type Ledger interface {
	InvoiceStore
	FileStore
	ActivityLog
}

// ClientDirectory expone los datos de facturación de los clientes
type ClientDirectory interface {
	GetClientProfile(ctx context.Context, id uuid.UUID) (*models.ClientProfile, error)
}

// Notifier avisa al cliente de que tiene una factura nueva
type Notifier interface {
	NotifyInvoiceCreated(ctx context.Context, invoiceID uuid.UUID) error
}

// NumberGuard reserva números de factura por cliente
type NumberGuard interface {
	Reserve(ctx context.Context, clientID uuid.UUID, number string) (bool, error)
	Release(ctx context.Context, clientID uuid.UUID, number string) error
}

// LinkCache guarda URLs firmadas mientras siguen vigentes
type LinkCache interface {
	GetLink(ctx context.Context, path string) (string, bool, error)
	SetLink(ctx context.Context, path, url string, ttl time.Duration) error
}

// DocumentRenderer produce el PDF de una factura
type DocumentRenderer interface {
	Render(meta models.InvoiceMetadata, breakdown models.VATBreakdown, issuer models.IssuerProfile) (*models.RenderedDocument, error)
}
