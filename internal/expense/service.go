package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/expense-tracker/internal/category"
	"github.com/zombor/expense-tracker/internal/currency"
	"github.com/zombor/expense-tracker/internal/invoice"
)

// InvoiceProcessor turns an uploaded invoice into a converted suggestion
type InvoiceProcessor interface {
	Process(ctx context.Context, upload invoice.Upload, targetCurrency string) (*invoice.ConvertedInvoice, error)
}

// IDGenerator generates unique IDs for expenses
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles expense and invoice operations
type Service struct {
	db              DB
	invoices        InvoiceProcessor
	defaultCurrency string
	idGenerator     IDGenerator
	timeSource      TimeSource
}

// NewService creates a new Service with a uuid generator and the system clock
func NewService(db DB, invoices InvoiceProcessor, defaultCurrency string) *Service {
	return NewServiceWithDeps(db, invoices, defaultCurrency, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, invoices InvoiceProcessor, defaultCurrency string, idGen IDGenerator, timeSrc TimeSource) *Service {
	defaultCurrency = currency.NormalizeCode(defaultCurrency)
	if defaultCurrency == "" {
		defaultCurrency = invoice.DefaultCurrency
	}
	return &Service{
		db:              db,
		invoices:        invoices,
		defaultCurrency: defaultCurrency,
		idGenerator:     idGen,
		timeSource:      timeSrc,
	}
}

// ProcessInvoice runs an upload through the invoice pipeline. An empty
// targetCurrency falls back to the user's preference, then the default.
func (s *Service) ProcessInvoice(ctx context.Context, userID string, upload invoice.Upload, targetCurrency string) (*invoice.ConvertedInvoice, error) {
	target := currency.NormalizeCode(targetCurrency)
	if target == "" {
		target = s.PreferredCurrency(userID)
	}

	result, err := s.invoices.Process(ctx, upload, target)
	if err != nil {
		return nil, err
	}

	slog.Info("Processed invoice",
		"user", userID,
		"filename", upload.Filename,
		"summary", result.Summary(),
		"converted", result.Converted(),
	)
	return result, nil
}

// PreferredCurrency returns the user's stored currency or the default.
// Lookup failures are logged and fall back to the default.
func (s *Service) PreferredCurrency(userID string) string {
	code, err := s.db.GetCurrency(userID)
	if err != nil {
		slog.Warn("Failed to load currency preference", "user", userID, "error", err)
		return s.defaultCurrency
	}
	if code == "" {
		return s.defaultCurrency
	}
	return code
}

// SetPreferredCurrency stores the user's preferred currency
func (s *Service) SetPreferredCurrency(userID, code string) (string, error) {
	code = currency.NormalizeCode(code)
	if !slices.Contains(SupportedCurrencies, code) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	if err := s.db.SaveCurrency(userID, code); err != nil {
		return "", fmt.Errorf("saving currency preference: %w", err)
	}
	return code, nil
}

// validateInput checks the fields shared by create and update and returns
// the trimmed description and normalized currency code. An empty currency
// is returned as is.
func validateInput(input Input) (string, string, error) {
	if input.Amount <= 0 {
		return "", "", fmt.Errorf("%w: amount must be greater than zero", ErrInvalidExpense)
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return "", "", fmt.Errorf("%w: description is required", ErrInvalidExpense)
	}

	if _, err := time.Parse(invoice.DateLayout, input.Date); err != nil {
		return "", "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidExpense)
	}

	code := currency.NormalizeCode(input.Currency)
	if code != "" && !currency.ValidCode(code) {
		return "", "", fmt.Errorf("%w: unknown currency %q", ErrInvalidExpense, code)
	}

	return description, code, nil
}

// CreateExpense validates input and saves a new expense for userID
func (s *Service) CreateExpense(userID string, input Input) (*Expense, error) {
	description, code, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	if code == "" {
		code = s.PreferredCurrency(userID)
	}
	if !currency.ValidCode(code) {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrInvalidExpense, code)
	}

	now := s.timeSource.Now()
	expense := &Expense{
		ID:          s.idGenerator.Generate(),
		UserID:      userID,
		Amount:      input.Amount,
		Currency:    code,
		Description: description,
		Date:        input.Date,
		Category:    category.Normalize(input.Category),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveExpense(expense); err != nil {
		return nil, fmt.Errorf("saving expense: %w", err)
	}

	return expense, nil
}

// UpdateExpense replaces the editable fields of one of the user's expenses.
// An empty currency keeps the stored one.
func (s *Service) UpdateExpense(userID, id string, input Input) (*Expense, error) {
	description, code, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.GetExpense(userID, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Amount = input.Amount
	updated.Description = description
	updated.Date = input.Date
	updated.Category = category.Normalize(input.Category)
	if code != "" {
		updated.Currency = code
	}
	updated.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveExpense(&updated); err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}

	return &updated, nil
}

// GetExpense retrieves one of the user's expenses by ID
func (s *Service) GetExpense(userID, id string) (*Expense, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	if expense.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return expense, nil
}

// ListExpenses returns the user's expenses, newest first
func (s *Service) ListExpenses(userID string) ([]*Expense, error) {
	expenses, err := s.db.ListExpenses(userID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes one of the user's expenses
func (s *Service) DeleteExpense(userID, id string) error {
	if _, err := s.GetExpense(userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("getting expense for deletion: %w", err)
	}

	if err := s.db.DeleteExpense(id); err != nil {
		return fmt.Errorf("deleting expense from database: %w", err)
	}
	return nil
}
