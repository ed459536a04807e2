package expense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/zombor/expense-tracker/internal/invoice"
)

// uploadFields are the multipart field names accepted for an invoice file
var uploadFields = []string{"invoice", "file"}

// writeJSON writes v as a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body with the given status code
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.config.Version,
	})
}

// handleProcessInvoice extracts and converts an uploaded invoice. Nothing is saved.
func (s *Server) handleProcessInvoice(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context())
	maxSize := s.config.MaxUploadBytes

	// Leave headroom for the other form fields and multipart boundaries
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))
	if err := r.ParseMultipartForm(maxSize); err != nil {
		logger.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, tooLargeMessage(maxSize))
			return
		}
		writeError(w, http.StatusBadRequest, invoice.ErrUploadMalformed.Error())
		return
	}

	f, header, err := formFile(r, uploadFields...)
	if err != nil {
		logger.Error("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, "No file was selected. Please choose an invoice image to upload.")
		return
	}
	defer f.Close()

	if header.Size > maxSize {
		writeError(w, http.StatusBadRequest, tooLargeMessage(maxSize))
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		logger.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusBadRequest, invoice.ErrUploadMalformed.Error())
		return
	}

	upload := invoice.Upload{
		Filename:    header.Filename,
		ContentType: invoice.ContentTypeFor(header.Header.Get("Content-Type"), header.Filename),
		Data:        data,
	}

	ctx := r.Context()
	if s.config.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ProviderTimeout)
		defer cancel()
	}

	result, err := s.service.ProcessInvoice(ctx, userFrom(r.Context()), upload, r.FormValue("targetCurrency"))
	if err != nil {
		code, message := invoiceErrorResponse(err)
		logger.Error("Error processing invoice",
			"filename", header.Filename,
			fieldStatusCode, code,
			"error", err,
		)
		writeError(w, code, message)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// formFile returns the first file found under any of the given field names
func formFile(r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range fields {
		f, header, err := r.FormFile(field)
		if err == nil {
			return f, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, err
		}
	}
	return nil, nil, http.ErrMissingFile
}

func tooLargeMessage(maxSize int64) string {
	return fmt.Sprintf("File is too large. Maximum size is %dMB. Please compress or resize your image.", maxSize>>20)
}

// invoiceErrorResponse maps a pipeline error to a status code and client message
func invoiceErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, invoice.ErrUploadMalformed):
		return http.StatusBadRequest, invoice.ErrUploadMalformed.Error()
	case errors.Is(err, invoice.ErrInvalidImage):
		return http.StatusBadRequest, invoice.ErrInvalidImage.Error()
	case errors.Is(err, invoice.ErrEmptyExtraction):
		return http.StatusBadRequest, invoice.ErrEmptyExtraction.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, "Invoice processing timed out. Please try again."
	case errors.Is(err, invoice.ErrExtractionFailed):
		return http.StatusInternalServerError, invoice.ErrExtractionFailed.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// handleCreateExpense saves a confirmed expense
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := s.service.CreateExpense(userFrom(r.Context()), input)
	if err != nil {
		if errors.Is(err, ErrInvalidExpense) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		loggerFrom(r.Context()).Error("Error creating expense", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}

// handleUpdateExpense edits one of the caller's expenses
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := s.service.UpdateExpense(userFrom(r.Context()), r.PathValue("id"), input)
	if err != nil {
		if errors.Is(err, ErrInvalidExpense) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeLookupError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// handleListExpenses returns the caller's expenses
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.service.ListExpenses(userFrom(r.Context()))
	if err != nil {
		loggerFrom(r.Context()).Error("Error listing expenses", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Ensure we always return an array, not nil
	if expenses == nil {
		expenses = []*Expense{}
	}

	writeJSON(w, http.StatusOK, expenses)
}

// handleGetExpense returns a single expense
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.service.GetExpense(userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// handleDeleteExpense deletes an expense
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteExpense(userFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeLookupError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Expense not found")
		return
	}
	loggerFrom(r.Context()).Error("Error loading expense", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

type currencyPreference struct {
	Currency string `json:"currency"`
}

// handleGetCurrency returns the caller's preferred currency
func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currencyPreference{
		Currency: s.service.PreferredCurrency(userFrom(r.Context())),
	})
}

// handleSetCurrency updates the caller's preferred currency
func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyPreference
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	code, err := s.service.SetPreferredCurrency(userFrom(r.Context()), req.Currency)
	if err != nil {
		if errors.Is(err, ErrUnsupportedCurrency) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Currency must be one of %s", strings.Join(SupportedCurrencies, ", ")))
			return
		}
		loggerFrom(r.Context()).Error("Error saving currency preference", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, currencyPreference{Currency: code})
}
