package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zombor/expense-tracker/internal/currency"
	"github.com/zombor/expense-tracker/internal/scanning"
)

// DefaultCurrency is used when the caller supplies no target currency
const DefaultCurrency = "USD"

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Converter converts amounts between currencies
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) currency.Conversion
}

// Pipeline validates, extracts, normalizes and converts uploaded invoices.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	extractor  scanning.Extractor
	converter  Converter
	timeSource TimeSource
}

// NewPipeline creates a new Pipeline
func NewPipeline(extractor scanning.Extractor, converter Converter) *Pipeline {
	return NewPipelineWithDeps(extractor, converter, defaultTimeSource{})
}

// NewPipelineWithDeps creates a new Pipeline with a custom time source for testing
func NewPipelineWithDeps(extractor scanning.Extractor, converter Converter, timeSource TimeSource) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		converter:  converter,
		timeSource: timeSource,
	}
}

// Process runs one upload through every stage. Each stage runs at most once
// and the first failure ends the run. The result is advisory and is not
// stored anywhere.
func (p *Pipeline) Process(ctx context.Context, upload Upload, targetCurrency string) (*ConvertedInvoice, error) {
	if len(upload.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrUploadMalformed)
	}

	target := currency.NormalizeCode(targetCurrency)
	if target == "" {
		target = DefaultCurrency
	}

	if !IsImage(upload.Data, upload.ContentType, upload.Filename) {
		return nil, ErrInvalidImage
	}

	raw, err := p.extractor.Extract(ctx, upload.Data, upload.ContentType)
	if err != nil {
		slog.Error("Failed to extract invoice",
			"filename", upload.Filename,
			"content_type", upload.ContentType,
			"file_size", len(upload.Data),
			"error", err,
		)
		if errors.Is(err, scanning.ErrNoText) {
			return nil, ErrEmptyExtraction
		}
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	normalized := Normalize(*raw, p.timeSource.Now())

	return p.convert(ctx, normalized, target), nil
}

func (p *Pipeline) convert(ctx context.Context, inv NormalizedInvoice, target string) *ConvertedInvoice {
	result := &ConvertedInvoice{
		Date:          inv.Date,
		Type:          inv.Category,
		Amount:        inv.Amount,
		Currency:      inv.CurrencyCode,
		Description:   inv.Description,
		DateDefaulted: inv.DateDefaulted,
	}

	if inv.DateDefaulted {
		result.Warnings = append(result.Warnings, "invoice date could not be read, using today's date")
	}

	if inv.CurrencyCode == "" {
		// Nothing to convert from; the amount is taken to be in the target currency
		result.Currency = target
		result.Warnings = append(result.Warnings, fmt.Sprintf("invoice currency could not be read, assuming %s", target))
		return result
	}

	if inv.CurrencyCode == target {
		return result
	}

	conversion := p.converter.Convert(ctx, inv.Amount, inv.CurrencyCode, target)
	if conversion.Degraded {
		// Keep the amount labelled with the currency it is actually in
		result.Warnings = append(result.Warnings, conversion.Reason)
		return result
	}

	originalAmount := inv.Amount
	originalCurrency := inv.CurrencyCode
	rate := conversion.Rate

	result.Amount = conversion.Amount
	result.Currency = target
	result.OriginalAmount = &originalAmount
	result.OriginalCurrency = &originalCurrency
	result.ConversionRate = &rate

	return result
}
