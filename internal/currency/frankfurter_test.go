package currency

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Frankfurter", func() {
	var (
		server   *ghttp.Server
		provider *Frankfurter
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		provider = NewFrankfurter(server.URL()+"/", 5*time.Second)
	})

	AfterEach(func() {
		server.Close()
	})

	When("the API returns a rate", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", "/latest", "from=EUR&to=USD"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"amount": 1.0,
					"base":   "EUR",
					"date":   "2024-03-15",
					"rates":  map[string]float64{"USD": 1.08},
				}),
			))
		})

		It("returns the rate", func() {
			rate, err := provider.Rate(context.Background(), "EUR", "USD")
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(Equal(1.08))
		})
	})

	When("the API answers for a different base amount", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"amount": 10.0,
				"base":   "EUR",
				"rates":  map[string]float64{"USD": 10.8},
			}))
		})

		It("returns the per-unit rate", func() {
			rate, err := provider.Rate(context.Background(), "EUR", "USD")
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(BeNumerically("~", 1.08, 1e-9))
		})
	})

	When("the API returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, `{"message":"not found"}`))
		})

		It("returns an error", func() {
			_, err := provider.Rate(context.Background(), "EUR", "XXX")
			Expect(err).To(MatchError(ContainSubstring("status 404")))
		})
	})

	When("the target currency is missing from the response", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"amount": 1.0,
				"rates":  map[string]float64{"GBP": 0.85},
			}))
		})

		It("returns an error", func() {
			_, err := provider.Rate(context.Background(), "EUR", "USD")
			Expect(err).To(MatchError(ContainSubstring("no rate for USD")))
		})
	})

	When("plugged into a Converter", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"amount": 1.0,
				"rates":  map[string]float64{"USD": 1.08},
			}))
		})

		It("converts using the live rate", func() {
			result := NewConverter(provider).Convert(context.Background(), 25, "EUR", "USD")
			Expect(result).To(Equal(Conversion{Amount: 27, Rate: 1.08}))
		})
	})
})
