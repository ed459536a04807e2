package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultFrankfurterURL is the public Frankfurter API base URL
const DefaultFrankfurterURL = "https://api.frankfurter.app"

// Frankfurter implements RateProvider using the Frankfurter exchange-rate API
type Frankfurter struct {
	baseURL string
	client  *http.Client
}

// NewFrankfurter creates a new Frankfurter rate provider
func NewFrankfurter(baseURL string, timeout time.Duration) *Frankfurter {
	if baseURL == "" {
		baseURL = DefaultFrankfurterURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Frankfurter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// frankfurterResponse is the body returned by GET /latest
type frankfurterResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// Rate returns the latest rate for converting one unit of from into to
func (f *Frankfurter) Rate(ctx context.Context, from, to string) (float64, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling rates API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("rates API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var body frankfurterResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}

	rate, ok := body.Rates[to]
	if !ok {
		return 0, fmt.Errorf("no rate for %s in response", to)
	}

	// The API answers for body.Amount units of the base currency
	if body.Amount > 0 && body.Amount != 1 {
		rate = rate / body.Amount
	}

	return rate, nil
}
