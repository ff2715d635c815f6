// Package money renders VND amounts for display.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Symbol is the đồng sign appended to formatted amounts.
const Symbol = "₫"

var locale = language.Vietnamese

// Format renders amount with Vietnamese digit grouping, e.g. 200000 as "200.000 ₫".
func Format(amount int64) string {
	return message.NewPrinter(locale).Sprintf("%d", amount) + " " + Symbol
}
