package services

import (
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/database"
	"github.com/hypernova-labs/agency-invoicing/internal/email"
	"github.com/hypernova-labs/agency-invoicing/internal/memstore"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/hypernova-labs/agency-invoicing/internal/workflows"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	_ Ledger          = (*memstore.Ledger)(nil)
	_ ObjectStorage   = (*memstore.Storage)(nil)
	_ ClientDirectory = (*memstore.Clients)(nil)
	_ Notifier        = (*memstore.Notifier)(nil)
	_ NumberGuard     = (*memstore.Guard)(nil)

	_ Ledger          = (*database.Ledger)(nil)
	_ ObjectStorage   = (*database.SupabaseStorage)(nil)
	_ ObjectStorage   = (*database.RESTStorage)(nil)
	_ ClientDirectory = (*database.ClientRepository)(nil)
	_ NumberGuard     = (*database.Redis)(nil)
	_ LinkCache       = (*database.Redis)(nil)
	_ Notifier        = (*email.DirectNotifier)(nil)
	_ Notifier        = (*workflows.InngestClient)(nil)

	_ DocumentRenderer = (*DocumentGenerator)(nil)
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testIssuer() models.IssuerProfile {
	return models.IssuerProfile{
		Mark:               "NORTHWIND",
		LegalName:          "Northwind Studio GmbH",
		RegistrationNumber: "HRB 123456",
		VATNumber:          "DE123456789",
		Street:             "Torstraße 1",
		PostalCode:         "10119",
		City:               "Berlin",
		Country:            "Germany",
		Email:              "billing@northwind.example",
		Phone:              "+49 30 1234567",
		Website:            "northwind.example",
		Bank: models.BankDetails{
			BankName:      "Example Bank",
			AccountHolder: "Northwind Studio GmbH",
			IBAN:          "DE89370400440532013000",
			BIC:           "COBADEFFXXX",
		},
		PreparedBy: models.PreparedBy{Name: "Jana Weber", Email: "jana@northwind.example"},
	}
}

func testClient() models.ClientProfile {
	return models.ClientProfile{
		ID:                uuid.MustParse("5d3c1f0e-8a2b-4c6d-9e1f-0a1b2c3d4e5f"),
		LegalName:         "Acme Ventures B.V.",
		Attention:         "Finance Department",
		Street:            "Keizersgracht 100",
		PostalCode:        "1015 AA",
		City:              "Amsterdam",
		Country:           "Netherlands",
		CustomerReference: "PO-7781",
		VATNumber:         "NL123456789B01",
		ContactName:       "Sam de Vries",
		ContactEmail:      "finance@acme.example",
	}
}

func testMeta(number string) models.InvoiceMetadata {
	return models.InvoiceMetadata{
		Number:      number,
		IssueDate:   civil.Date{Year: 2026, Month: time.January, Day: 9},
		DueDate:     civil.Date{Year: 2026, Month: time.January, Day: 30},
		VATRate:     decimal.NewFromInt(21),
		Description: "Brand refresh",
		Client:      testClient(),
	}
}

func testDraft(number, total string) models.InvoiceDraft {
	draft, err := models.NewInvoiceDraft(number, civil.Date{Year: 2026, Month: time.January, Day: 9},
		decimal.NewFromInt(21), decimal.RequireFromString(total), "Brand refresh", nil)
	if err != nil {
		panic(err)
	}
	return draft
}

func memstoreClients(profiles ...models.ClientProfile) ClientDirectory {
	return memstore.NewClients(profiles...)
}
