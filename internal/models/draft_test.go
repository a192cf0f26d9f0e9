package models

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issueDay = civil.Date{Year: 2026, Month: time.March, Day: 2}

func TestNewInvoiceDraft(t *testing.T) {
	items := []LineItem{{Description: "Design", Quantity: decimal.NewFromInt(2), UnitRate: decimal.NewFromInt(50), Amount: decimal.NewFromInt(100)}}

	draft, err := NewInvoiceDraft("  INV-2026-001 ", issueDay, decimal.NewFromInt(21), decimal.RequireFromString("121.00"), " Website ", items)
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-001", draft.Number())
	assert.Equal(t, issueDay, draft.IssueDate())
	assert.Equal(t, "Website", draft.Description())
	assert.True(t, draft.TotalInclVAT().Equal(decimal.RequireFromString("121")))
	require.Len(t, draft.LineItems(), 1)

	// el borrador no comparte memoria con el llamador
	items[0].Description = "changed"
	assert.Equal(t, "Design", draft.LineItems()[0].Description)
	got := draft.LineItems()
	got[0].Description = "changed again"
	assert.Equal(t, "Design", draft.LineItems()[0].Description)
}

func TestNewInvoiceDraft_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		number string
		date   civil.Date
	}{
		{"empty number", "   ", issueDay},
		{"slash in number", "2026/001", issueDay},
		{"backslash in number", `2026\001`, issueDay},
		{"missing date", "INV-1", civil.Date{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInvoiceDraft(tc.number, tc.date, decimal.Zero, decimal.NewFromInt(10), "", nil)
			assert.ErrorIs(t, err, ErrInvalidDraft)
		})
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "€0.00",
		"1.5":         "€1.50",
		"999.99":      "€999.99",
		"1000":        "€1,000.00",
		"1234567.891": "€1,234,567.89",
		"-42.1":       "-€42.10",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney("€", decimal.RequireFromString(in)), in)
	}
}

func TestInvoiceStatusValid(t *testing.T) {
	assert.True(t, InvoiceStatusPending.Valid())
	assert.True(t, InvoiceStatusPaid.Valid())
	assert.True(t, InvoiceStatusOverdue.Valid())
	assert.False(t, InvoiceStatus("cancelled").Valid())
}
