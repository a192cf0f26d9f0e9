package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientProfile representa los datos de facturación de un cliente de la agencia
type ClientProfile struct {
	ID                uuid.UUID `json:"id" db:"id"`
	LegalName         string    `json:"legal_name" db:"legal_name"`
	Attention         string    `json:"attention,omitempty" db:"attention"`
	Street            string    `json:"street,omitempty" db:"street"`
	PostalCode        string    `json:"postal_code,omitempty" db:"postal_code"`
	City              string    `json:"city,omitempty" db:"city"`
	Country           string    `json:"country,omitempty" db:"country"`
	CustomerReference string    `json:"customer_reference,omitempty" db:"customer_reference"`
	VATNumber         string    `json:"vat_number,omitempty" db:"vat_number"`
	ContactName       string    `json:"contact_name,omitempty" db:"contact_name"`
	ContactEmail      string    `json:"contact_email,omitempty" db:"contact_email"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// ActivityInvoiceCreated es el tipo de acción registrado al emitir una factura
const ActivityInvoiceCreated = "invoice_created"

// ActivityEntry representa una entrada del registro de auditoría de un cliente
type ActivityEntry struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ClientID    uuid.UUID `json:"client_id" db:"client_id"`
	ActorID     uuid.UUID `json:"actor_id" db:"actor_id"`
	ActionType  string    `json:"action_type" db:"action_type"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
