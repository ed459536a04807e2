package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/expense-tracker/internal/category"
	"github.com/zombor/expense-tracker/internal/currency"
	"github.com/zombor/expense-tracker/internal/scanning"
)

// mockExtractor is a mock implementation of scanning.Extractor
type mockExtractor struct {
	result *scanning.RawExtraction
	err    error
	calls  int
}

func (m *mockExtractor) Extract(ctx context.Context, imageData []byte, contentType string) (*scanning.RawExtraction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	copied := *m.result
	return &copied, nil
}

// mockRates is a mock implementation of currency.RateProvider
type mockRates struct {
	rate  float64
	err   error
	calls int
}

func (m *mockRates) Rate(ctx context.Context, from, to string) (float64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.rate, nil
}

type fixedTimeSource struct {
	now time.Time
}

func (f fixedTimeSource) Now() time.Time {
	return f.now
}

var _ = Describe("Pipeline", func() {
	var (
		extractor *mockExtractor
		rates     *mockRates
		pipeline  *Pipeline
		upload    Upload
		target    string
		result    *ConvertedInvoice
		err       error
	)

	BeforeEach(func() {
		extractor = &mockExtractor{
			result: &scanning.RawExtraction{
				Date:          "2024-03-15",
				CategoryLabel: "taxi fare",
				Amount:        25,
				CurrencyCode:  "EUR",
				Description:   "Airport taxi",
			},
		}
		rates = &mockRates{rate: 1.08}
		pipeline = NewPipelineWithDeps(
			extractor,
			currency.NewConverter(rates),
			fixedTimeSource{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)},
		)
		upload = Upload{Filename: "taxi.png", ContentType: "image/png", Data: pngBytes()}
		target = "USD"
	})

	JustBeforeEach(func() {
		result, err = pipeline.Process(context.Background(), upload, target)
	})

	When("the invoice is in a foreign currency", func() {
		It("converts the amount and records provenance", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Date).To(Equal("2024-03-15"))
			Expect(result.Type).To(Equal(category.Transportation))
			Expect(result.Amount).To(Equal(27.0))
			Expect(result.Currency).To(Equal("USD"))
			Expect(result.Description).To(Equal("Airport taxi"))
			Expect(result.OriginalAmount).To(HaveValue(Equal(25.0)))
			Expect(result.OriginalCurrency).To(HaveValue(Equal("EUR")))
			Expect(result.ConversionRate).To(HaveValue(Equal(1.08)))
			Expect(result.Warnings).To(BeEmpty())
			Expect(result.Converted()).To(BeTrue())
		})

		It("serializes every provenance field", func() {
			body, marshalErr := json.Marshal(result)
			Expect(marshalErr).NotTo(HaveOccurred())
			Expect(body).To(MatchJSON(`{
				"date": "2024-03-15",
				"type": "TRANSPORTATION",
				"amount": 27,
				"currency": "USD",
				"description": "Airport taxi",
				"originalAmount": 25,
				"originalCurrency": "EUR",
				"conversionRate": 1.08
			}`))
		})

		It("renders a summary", func() {
			Expect(result.Summary()).To(Equal("2024-03-15 | TRANSPORTATION | $27.00 | Airport taxi"))
		})
	})

	When("the invoice is already in the target currency", func() {
		BeforeEach(func() {
			extractor.result.CurrencyCode = "usd"
			extractor.result.Amount = 12.5
		})

		It("does not look up a rate", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rates.calls).To(Equal(0))
		})

		It("keeps the amount and omits provenance", func() {
			Expect(result.Amount).To(Equal(12.5))
			Expect(result.Currency).To(Equal("USD"))
			Expect(result.Converted()).To(BeFalse())

			body, marshalErr := json.Marshal(result)
			Expect(marshalErr).NotTo(HaveOccurred())
			Expect(string(body)).NotTo(ContainSubstring("originalAmount"))
			Expect(string(body)).NotTo(ContainSubstring("originalCurrency"))
			Expect(string(body)).NotTo(ContainSubstring("conversionRate"))
			Expect(string(body)).NotTo(ContainSubstring("null"))
		})
	})

	When("no target currency is given", func() {
		BeforeEach(func() {
			target = "  "
		})

		It("converts to USD", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Currency).To(Equal(DefaultCurrency))
			Expect(result.OriginalCurrency).To(HaveValue(Equal("EUR")))
		})
	})

	When("the rate lookup fails", func() {
		BeforeEach(func() {
			rates.err = errors.New("rates unavailable")
		})

		It("still succeeds", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the extracted amount and currency", func() {
			Expect(result.Amount).To(Equal(25.0))
			Expect(result.Currency).To(Equal("EUR"))
			Expect(result.Converted()).To(BeFalse())
		})

		It("adds a warning", func() {
			Expect(result.Warnings).To(HaveLen(1))
		})
	})

	When("the extracted currency is missing", func() {
		BeforeEach(func() {
			extractor.result.CurrencyCode = ""
		})

		It("assumes the target currency with a warning", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Currency).To(Equal("USD"))
			Expect(result.Amount).To(Equal(25.0))
			Expect(result.Converted()).To(BeFalse())
			Expect(result.Warnings).To(ContainElement(ContainSubstring("USD")))
			Expect(rates.calls).To(Equal(0))
		})
	})

	When("the date cannot be parsed", func() {
		BeforeEach(func() {
			extractor.result.Date = "sometime in March"
		})

		It("uses today and surfaces it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Date).To(Equal("2024-06-01"))
			Expect(result.DateDefaulted).To(BeTrue())
			Expect(result.Warnings).NotTo(BeEmpty())
		})
	})

	When("the category label is unknown", func() {
		BeforeEach(func() {
			extractor.result.CategoryLabel = "miscellaneous stuff"
		})

		It("falls back to OTHER", func() {
			Expect(result.Type).To(Equal(category.Other))
		})
	})

	When("the upload is empty", func() {
		BeforeEach(func() {
			upload.Data = nil
		})

		It("returns ErrUploadMalformed without extracting", func() {
			Expect(err).To(MatchError(ErrUploadMalformed))
			Expect(extractor.calls).To(Equal(0))
		})
	})

	When("the upload is not an image", func() {
		BeforeEach(func() {
			upload = Upload{Filename: "notes.txt", ContentType: "text/plain", Data: make([]byte, 12)}
		})

		It("returns ErrInvalidImage without extracting", func() {
			Expect(err).To(MatchError(ErrInvalidImage))
			Expect(result).To(BeNil())
			Expect(extractor.calls).To(Equal(0))
		})
	})

	When("OCR finds no text", func() {
		BeforeEach(func() {
			extractor.err = &scanning.ExtractionError{Stage: scanning.StageOCR, Err: scanning.ErrNoText}
		})

		It("returns ErrEmptyExtraction", func() {
			Expect(err).To(MatchError(ErrEmptyExtraction))
			Expect(rates.calls).To(Equal(0))
		})
	})

	When("extraction fails", func() {
		BeforeEach(func() {
			extractor.err = &scanning.ExtractionError{Stage: scanning.StageValidate, Err: fmt.Errorf("missing field amount")}
		})

		It("returns ErrExtractionFailed", func() {
			Expect(err).To(MatchError(ErrExtractionFailed))
			Expect(err).NotTo(MatchError(ErrEmptyExtraction))
			Expect(result).To(BeNil())
		})
	})
})
