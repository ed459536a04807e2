package expense

import (
	"errors"
	"time"

	"github.com/zombor/expense-tracker/internal/category"
)

var (
	// ErrNotFound is returned when an expense does not exist or belongs to another user
	ErrNotFound = errors.New("expense not found")

	// ErrInvalidExpense is returned when expense input fails validation
	ErrInvalidExpense = errors.New("invalid expense")

	// ErrUnsupportedCurrency is returned when a preferred currency is not selectable
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// DefaultUser is the identity used when basic auth is disabled
const DefaultUser = "default"

// SupportedCurrencies are the currencies a user may pick as their preference
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "INR", "JPY", "CNY", "CAD", "AUD"}

// Expense is a confirmed expense owned by a single user
type Expense struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Date        string            `json:"date"` // YYYY-MM-DD
	Category    category.Category `json:"category"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Input is the client payload for creating an expense
type Input struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Currency    string  `json:"currency,omitempty"`
}
