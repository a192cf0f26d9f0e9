package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus representa el estado de cobro de una factura
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// Valid indica si el estado es uno de los permitidos
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// VATBreakdown representa el desglose de IVA derivado de un total con IVA incluido
type VATBreakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// InvoiceRecord representa una factura persistida
type InvoiceRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id" db:"client_id"`
	ProjectID     *uuid.UUID      `json:"project_id,omitempty" db:"project_id"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	VATAmount     decimal.Decimal `json:"vat_amount" db:"vat_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	VATRate       decimal.Decimal `json:"vat_rate" db:"vat_rate"`
	Currency      string          `json:"currency" db:"currency"`
	IssueDate     civil.Date      `json:"issue_date" db:"issue_date"`
	DueDate       civil.Date      `json:"due_date" db:"due_date"`
	Status        InvoiceStatus   `json:"status" db:"status"`
	DocumentURL   string          `json:"document_url" db:"document_url"`
	DocumentPath  string          `json:"document_path" db:"document_path"`
	Description   string          `json:"description" db:"description"`
	CreatedBy     uuid.UUID       `json:"created_by" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// LineItemRequest representa una línea de factura en el request
type LineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreateInvoiceRequest representa el request para emitir una factura
type CreateInvoiceRequest struct {
	InvoiceNumber string            `json:"invoice_number" binding:"required"`
	IssueDate     civil.Date        `json:"issue_date"`
	VATRate       decimal.Decimal   `json:"vat_rate"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Description   string            `json:"description"`
	ProjectID     *uuid.UUID        `json:"project_id,omitempty"`
	LineItems     []LineItemRequest `json:"line_items,omitempty"`
}

// UpdateInvoiceStatusRequest representa el cambio de estado de una factura
type UpdateInvoiceStatusRequest struct {
	Status InvoiceStatus `json:"status" binding:"required"`
}

// InvoiceResponse representa la respuesta al emitir una factura
type InvoiceResponse struct {
	Invoice  *InvoiceRecord `json:"invoice"`
	State    string         `json:"state"`
	Warnings []string       `json:"warnings,omitempty"`
}

// DownloadLinkResponse representa un enlace firmado de descarga
type DownloadLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
