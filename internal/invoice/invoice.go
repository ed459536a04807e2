// Package invoice turns an uploaded invoice photo into a verified,
// currency-converted expense suggestion.
package invoice

import (
	"fmt"
	"strconv"

	"github.com/zombor/expense-tracker/internal/category"
)

// DateLayout is the only date format the pipeline emits
const DateLayout = "2006-01-02"

// Upload is a single uploaded file
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NormalizedInvoice is a raw extraction with a valid date and a category
// from the fixed taxonomy
type NormalizedInvoice struct {
	Date          string
	DateDefaulted bool
	Category      category.Category
	Amount        float64
	CurrencyCode  string
	Description   string
}

// ConvertedInvoice is the pipeline result returned to the client.
// The provenance fields are nil unless a conversion actually took place.
type ConvertedInvoice struct {
	Date             string            `json:"date"`
	Type             category.Category `json:"type"`
	Amount           float64           `json:"amount"`
	Currency         string            `json:"currency"`
	Description      string            `json:"description"`
	OriginalAmount   *float64          `json:"originalAmount,omitempty"`
	OriginalCurrency *string           `json:"originalCurrency,omitempty"`
	ConversionRate   *float64          `json:"conversionRate,omitempty"`
	DateDefaulted    bool              `json:"dateDefaulted,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
}

// Converted reports whether the amount was converted from another currency
func (c *ConvertedInvoice) Converted() bool {
	return c.OriginalCurrency != nil
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
	"CNY": "¥",
	"CAD": "C$",
	"AUD": "A$",
	"BRL": "R$",
	"ZAR": "R",
	"RUB": "₽",
	"NGN": "₦",
}

// CurrencySymbol returns the display symbol for a currency code, or the code
// itself when no symbol is known
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[code]; ok {
		return symbol
	}
	return code
}

// Summary renders a one-line description for the user to verify
func (c *ConvertedInvoice) Summary() string {
	return fmt.Sprintf("%s | %s | %s%s | %s",
		c.Date,
		c.Type,
		CurrencySymbol(c.Currency),
		strconv.FormatFloat(c.Amount, 'f', 2, 64),
		c.Description,
	)
}
