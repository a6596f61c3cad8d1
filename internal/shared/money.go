package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var gnfPrinter = message.NewPrinter(language.French)

// FormatGNF renders an amount in Guinean francs with digit grouping, the way
// receipts and register journals display it.
func FormatGNF(amount float64) string {
	return gnfPrinter.Sprintf("%.0f GNF", amount)
}
