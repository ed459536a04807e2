// Package currency converts invoice amounts between currencies using a
// pluggable exchange-rate provider.
package currency

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// RateProvider looks up the live exchange rate from one currency to another
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// Conversion is the outcome of a Convert call.
// Degraded is set when a rate could not be obtained and Amount is the
// unconverted input with Rate 1.
type Conversion struct {
	Amount   float64
	Rate     float64
	Degraded bool
	Reason   string
}

// Converter converts amounts using a RateProvider
type Converter struct {
	rates RateProvider
}

// NewConverter creates a new Converter
func NewConverter(rates RateProvider) *Converter {
	return &Converter{rates: rates}
}

// NormalizeCode trims and upper-cases a currency code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code is a known ISO 4217 currency code
func ValidCode(code string) bool {
	code = NormalizeCode(code)
	if len(code) != 3 {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}

// Convert converts amount from one currency to another. Equal codes return
// the amount unchanged without consulting the provider. Convert never fails:
// if the rate cannot be obtained the amount is returned unconverted with
// Rate 1 and Degraded set.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) Conversion {
	from = NormalizeCode(from)
	to = NormalizeCode(to)

	if from == to {
		return Conversion{Amount: amount, Rate: 1}
	}

	if !ValidCode(from) || !ValidCode(to) {
		return c.fallback(amount, from, to, fmt.Errorf("unsupported currency pair %q -> %q", from, to))
	}

	if c.rates == nil {
		return c.fallback(amount, from, to, fmt.Errorf("no exchange rate provider configured"))
	}

	rate, err := c.rates.Rate(ctx, from, to)
	if err != nil {
		return c.fallback(amount, from, to, err)
	}
	if rate <= 0 {
		return c.fallback(amount, from, to, fmt.Errorf("invalid exchange rate %v", rate))
	}

	r := decimal.NewFromFloat(rate)
	converted := decimal.NewFromFloat(amount).Mul(r).Round(2)

	return Conversion{
		Amount: converted.InexactFloat64(),
		Rate:   r.Round(4).InexactFloat64(),
	}
}

func (c *Converter) fallback(amount float64, from, to string, err error) Conversion {
	slog.Warn("Currency conversion failed, keeping original amount",
		"from", from,
		"to", to,
		"error", err,
	)
	return Conversion{
		Amount:   amount,
		Rate:     1,
		Degraded: true,
		Reason:   fmt.Sprintf("could not convert %s to %s: %v", from, to, err),
	}
}
