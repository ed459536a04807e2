package scanning

import (
	"context"
	"fmt"
	"log/slog"
)

// VisionExtractor sends the invoice image straight to a vision-capable model
type VisionExtractor struct {
	model VisionModel
}

// NewVisionExtractor creates a new single-stage extractor
func NewVisionExtractor(model VisionModel) *VisionExtractor {
	return &VisionExtractor{model: model}
}

// Extract implements Extractor
func (v *VisionExtractor) Extract(ctx context.Context, imageData []byte, contentType string) (*RawExtraction, error) {
	finalImageData, mimeType, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, stageError(StagePrepare, err)
	}

	text, err := v.model.CompleteVision(ctx, finalImageData, mimeType, visionInstructions())
	if err != nil {
		return nil, stageError(StageModel, fmt.Errorf("calling vision model: %w", err))
	}

	data, err := parseRawExtraction(text)
	if err != nil {
		slog.Debug("Vision model returned unusable response", "response", text)
		return nil, stageError(StageValidate, err)
	}

	return data, nil
}
