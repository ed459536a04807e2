package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TwoStageExtractor runs OCR over the image and then asks a structured-output
// model to pull the invoice fields out of the recognized text.
type TwoStageExtractor struct {
	ocr   OCR
	model StructuredModel
}

// NewTwoStageExtractor creates a new OCR-then-parse extractor
func NewTwoStageExtractor(ocr OCR, model StructuredModel) *TwoStageExtractor {
	return &TwoStageExtractor{ocr: ocr, model: model}
}

// Extract implements Extractor
func (t *TwoStageExtractor) Extract(ctx context.Context, imageData []byte, contentType string) (*RawExtraction, error) {
	finalImageData, _, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, stageError(StagePrepare, err)
	}

	text, err := t.ocr.Recognize(ctx, finalImageData)
	if err != nil {
		return nil, stageError(StageOCR, fmt.Errorf("recognizing text: %w", err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, stageError(StageOCR, ErrNoText)
	}

	slog.Debug("Extracted text", "characters", len(text))

	response, err := t.model.CompleteStructured(ctx, textInstructions(), text, requestSchema())
	if err != nil {
		return nil, stageError(StageModel, fmt.Errorf("calling structured model: %w", err))
	}

	data, err := parseRawExtraction(response)
	if err != nil {
		slog.Debug("Structured model returned unusable response", "response", response)
		return nil, stageError(StageValidate, err)
	}

	return data, nil
}
