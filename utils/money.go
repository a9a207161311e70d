// utils/money.go
package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatKobo renders a kobo amount as a grouped naira string, e.g.
// 1250075 -> "₦12,500.75". Display only — persisted amounts stay
// integer kobo.
func FormatKobo(amount int64) string {
	return moneyPrinter.Sprintf("₦%.2f", float64(amount)/100)
}
