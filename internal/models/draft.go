package models

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ErrInvalidDraft se retorna cuando un borrador no puede construirse
var ErrInvalidDraft = errors.New("invalid invoice draft")

// LineItem representa una línea de la tabla de la factura
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceDraft es el valor inmutable que alimenta el cálculo, el render y la orquestación.
// Se construye una sola vez con NewInvoiceDraft y se pasa por valor.
type InvoiceDraft struct {
	number       string
	issueDate    civil.Date
	vatRate      decimal.Decimal
	totalInclVAT decimal.Decimal
	description  string
	lineItems    []LineItem
}

// NewInvoiceDraft valida y construye un borrador
func NewInvoiceDraft(number string, issueDate civil.Date, vatRate, totalInclVAT decimal.Decimal, description string, items []LineItem) (InvoiceDraft, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return InvoiceDraft{}, fmt.Errorf("%w: invoice number is required", ErrInvalidDraft)
	}
	// el número forma parte de la ruta del documento
	if strings.ContainsAny(number, `/\`) {
		return InvoiceDraft{}, fmt.Errorf("%w: invoice number %q must not contain path separators", ErrInvalidDraft, number)
	}
	if !issueDate.IsValid() {
		return InvoiceDraft{}, fmt.Errorf("%w: issue date is required", ErrInvalidDraft)
	}

	cloned := make([]LineItem, len(items))
	copy(cloned, items)

	return InvoiceDraft{
		number:       number,
		issueDate:    issueDate,
		vatRate:      vatRate,
		totalInclVAT: totalInclVAT,
		description:  strings.TrimSpace(description),
		lineItems:    cloned,
	}, nil
}

func (d InvoiceDraft) Number() string                { return d.number }
func (d InvoiceDraft) IssueDate() civil.Date         { return d.issueDate }
func (d InvoiceDraft) VATRate() decimal.Decimal      { return d.vatRate }
func (d InvoiceDraft) TotalInclVAT() decimal.Decimal { return d.totalInclVAT }
func (d InvoiceDraft) Description() string           { return d.description }

// LineItems retorna una copia de las líneas del borrador
func (d InvoiceDraft) LineItems() []LineItem {
	if len(d.lineItems) == 0 {
		return nil
	}
	out := make([]LineItem, len(d.lineItems))
	copy(out, d.lineItems)
	return out
}
