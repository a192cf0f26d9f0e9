package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formatea un importe con el símbolo de moneda y dos decimales
func FormatMoney(symbol string, amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return sign + symbol + grouped.String() + frac
}
