package services

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeVATBreakdown calcula subtotal e IVA a partir de un total con IVA incluido.
// El total recibido es el que se registra; el IVA es el resto, de modo que
// subtotal + IVA == total siempre.
func ComputeVATBreakdown(totalInclVAT, vatRatePercent decimal.Decimal) (models.VATBreakdown, error) {
	if totalInclVAT.IsNegative() {
		return models.VATBreakdown{}, fmt.Errorf("%w: total %s must not be negative", ErrInvalidInput, totalInclVAT)
	}
	if vatRatePercent.IsNegative() || vatRatePercent.GreaterThan(hundred) {
		return models.VATBreakdown{}, fmt.Errorf("%w: vat rate %s must be between 0 and 100", ErrInvalidInput, vatRatePercent)
	}
	// el tipo se guarda con dos decimales; con más, el desglose no se reproduciría
	if !vatRatePercent.Equal(vatRatePercent.Truncate(2)) {
		return models.VATBreakdown{}, fmt.Errorf("%w: vat rate %s has more than two decimals", ErrInvalidInput, vatRatePercent)
	}
	if !totalInclVAT.Equal(totalInclVAT.Truncate(2)) {
		return models.VATBreakdown{}, fmt.Errorf("%w: total %s has more than two decimals", ErrInvalidInput, totalInclVAT)
	}

	// total * 100 / (100 + rate), redondeo half-up a céntimos
	subtotal := totalInclVAT.Mul(hundred).DivRound(hundred.Add(vatRatePercent), 2)

	return models.VATBreakdown{
		Subtotal:    subtotal,
		VATAmount:   totalInclVAT.Sub(subtotal),
		TotalAmount: totalInclVAT,
	}, nil
}

// ComputeDueDate avanza día a día desde la fecha de emisión contando sólo lunes a viernes.
// No contempla festivos.
func ComputeDueDate(issueDate civil.Date, businessDays int) (civil.Date, error) {
	if businessDays <= 0 {
		return civil.Date{}, fmt.Errorf("%w: business days must be positive, got %d", ErrInvalidInput, businessDays)
	}
	if !issueDate.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: issue date %s is not a valid date", ErrInvalidInput, issueDate)
	}

	due := issueDate
	for counted := 0; counted < businessDays; {
		due = due.AddDays(1)
		if isBusinessDay(due) {
			counted++
		}
	}
	return due, nil
}

func isBusinessDay(d civil.Date) bool {
	switch d.In(time.UTC).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}
