package models

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// IssuerProfile representa a la agencia que emite las facturas
type IssuerProfile struct {
	Mark               string
	LegalName          string
	RegistrationNumber string
	VATNumber          string
	Street             string
	PostalCode         string
	City               string
	Country            string
	Email              string
	Phone              string
	Website            string
	Bank               BankDetails
	PreparedBy         PreparedBy
}

// BankDetails representa los datos bancarios para el pago
type BankDetails struct {
	BankName      string
	AccountHolder string
	IBAN          string
	BIC           string
}

// PreparedBy representa a la persona que prepara la factura
type PreparedBy struct {
	Name  string
	Email string
	Phone string
}

// InvoiceMetadata agrupa los datos de la factura que necesita el render
type InvoiceMetadata struct {
	Number      string
	IssueDate   civil.Date
	DueDate     civil.Date
	VATRate     decimal.Decimal
	Description string
	LineItems   []LineItem
	Client      ClientProfile
}
