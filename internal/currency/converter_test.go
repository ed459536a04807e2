package currency

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockRates is a mock implementation of RateProvider
type mockRates struct {
	rate  float64
	err   error
	calls int
	from  string
	to    string
}

func (m *mockRates) Rate(ctx context.Context, from, to string) (float64, error) {
	m.calls++
	m.from = from
	m.to = to
	if m.err != nil {
		return 0, m.err
	}
	return m.rate, nil
}

var _ = Describe("Converter", func() {
	var (
		rates     *mockRates
		converter *Converter
		amount    float64
		from, to  string
		result    Conversion
	)

	BeforeEach(func() {
		rates = &mockRates{rate: 1.075}
		converter = NewConverter(rates)
		amount = 100
		from = "EUR"
		to = "USD"
	})

	JustBeforeEach(func() {
		result = converter.Convert(context.Background(), amount, from, to)
	})

	When("the currencies are the same", func() {
		BeforeEach(func() {
			amount = 42.42
			from = "GBP"
			to = "GBP"
		})

		It("returns the amount unchanged with rate 1", func() {
			Expect(result).To(Equal(Conversion{Amount: 42.42, Rate: 1}))
		})

		It("does not call the rate provider", func() {
			Expect(rates.calls).To(BeZero())
		})
	})

	When("the currencies differ only in case and padding", func() {
		BeforeEach(func() {
			from = " usd"
			to = "USD "
		})

		It("treats them as the same currency", func() {
			Expect(result.Rate).To(Equal(1.0))
			Expect(rates.calls).To(BeZero())
		})
	})

	When("the rate lookup succeeds", func() {
		It("converts and rounds the amount", func() {
			Expect(result.Amount).To(Equal(107.5))
		})

		It("returns the rate", func() {
			Expect(result.Rate).To(Equal(1.075))
		})

		It("is not degraded", func() {
			Expect(result.Degraded).To(BeFalse())
			Expect(result.Reason).To(BeEmpty())
		})

		It("passes normalized codes to the provider", func() {
			Expect(rates.from).To(Equal("EUR"))
			Expect(rates.to).To(Equal("USD"))
		})
	})

	When("the rate has more precision than is reported", func() {
		BeforeEach(func() {
			amount = 10
			rates.rate = 1.123456
		})

		It("rounds the amount to two decimals", func() {
			Expect(result.Amount).To(Equal(11.23))
		})

		It("rounds the rate to four decimals", func() {
			Expect(result.Rate).To(Equal(1.1235))
		})
	})

	When("the rate lookup fails", func() {
		BeforeEach(func() {
			amount = 25
			rates.err = errors.New("network down")
		})

		It("returns the original amount with rate 1", func() {
			Expect(result.Amount).To(Equal(25.0))
			Expect(result.Rate).To(Equal(1.0))
		})

		It("marks the conversion as degraded with a reason", func() {
			Expect(result.Degraded).To(BeTrue())
			Expect(result.Reason).To(ContainSubstring("network down"))
		})
	})

	When("the provider returns a non-positive rate", func() {
		BeforeEach(func() {
			rates.rate = 0
		})

		It("falls back", func() {
			Expect(result.Degraded).To(BeTrue())
			Expect(result.Amount).To(Equal(100.0))
		})
	})

	When("the source currency is not an ISO code", func() {
		BeforeEach(func() {
			from = "$$"
		})

		It("falls back without calling the provider", func() {
			Expect(result.Degraded).To(BeTrue())
			Expect(result.Rate).To(Equal(1.0))
			Expect(rates.calls).To(BeZero())
		})
	})

	When("no provider is configured", func() {
		BeforeEach(func() {
			converter = NewConverter(nil)
		})

		It("falls back", func() {
			Expect(result.Degraded).To(BeTrue())
			Expect(result.Amount).To(Equal(100.0))
		})
	})
})

var _ = Describe("ValidCode", func() {
	It("accepts ISO 4217 codes in any case", func() {
		Expect(ValidCode("EUR")).To(BeTrue())
		Expect(ValidCode(" jpy ")).To(BeTrue())
	})

	It("rejects malformed codes", func() {
		Expect(ValidCode("")).To(BeFalse())
		Expect(ValidCode("EURO")).To(BeFalse())
		Expect(ValidCode("€")).To(BeFalse())
		Expect(ValidCode("QQQ")).To(BeFalse())
	})
})
