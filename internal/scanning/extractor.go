package scanning

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// RawExtraction contains the unvalidated fields extracted from an invoice.
// None of the values are guaranteed to be well formed.
type RawExtraction struct {
	Date          string  `json:"date"`
	CategoryLabel string  `json:"type"`
	Amount        float64 `json:"amount"`
	CurrencyCode  string  `json:"currency"`
	Description   string  `json:"description"`
}

// Extractor turns an invoice image into a RawExtraction
type Extractor interface {
	// Extract analyzes the image and returns the raw invoice fields
	Extract(ctx context.Context, imageData []byte, contentType string) (*RawExtraction, error)
}

// OCR recognizes text in an image
type OCR interface {
	Recognize(ctx context.Context, imageData []byte) (string, error)
}

// VisionModel is a language model that reads an image and answers with JSON
type VisionModel interface {
	CompleteVision(ctx context.Context, imageData []byte, mimeType, instructions string) (string, error)
}

// StructuredModel is a language model whose output is constrained to a JSON schema
type StructuredModel interface {
	CompleteStructured(ctx context.Context, instructions, text string, schema jsonschema.Definition) (string, error)
}

// ErrNoText is returned when OCR finds no text in the image
var ErrNoText = errors.New("no text could be extracted from the image")

// ExtractionError reports which extraction stage failed
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extraction stages
const (
	StagePrepare  = "prepare"
	StageOCR      = "ocr"
	StageModel    = "model"
	StageValidate = "validate"
)

func stageError(stage string, err error) error {
	return &ExtractionError{Stage: stage, Err: err}
}
