package invoice

import (
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/category"
	"github.com/zombor/expense-tracker/internal/currency"
	"github.com/zombor/expense-tracker/internal/scanning"
)

// alternate layouts models commonly emit despite being asked for YYYY-MM-DD
var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006", // day-first, only reached when month-first fails
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// NormalizeDate parses a date in any known layout and formats it as
// YYYY-MM-DD. Unparseable input becomes today and defaulted is true.
func NormalizeDate(raw string, now time.Time) (date string, defaulted bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d.Format(DateLayout), false
		}
	}
	return now.Format(DateLayout), true
}

// Normalize maps a raw extraction onto the taxonomy and a valid date
func Normalize(raw scanning.RawExtraction, now time.Time) NormalizedInvoice {
	date, defaulted := NormalizeDate(raw.Date, now)

	return NormalizedInvoice{
		Date:          date,
		DateDefaulted: defaulted,
		Category:      category.Normalize(raw.CategoryLabel),
		Amount:        raw.Amount,
		CurrencyCode:  currency.NormalizeCode(raw.CurrencyCode),
		Description:   strings.TrimSpace(raw.Description),
	}
}
