package scanning

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// CloudVision implements OCR using the Google Cloud Vision text detection API
type CloudVision struct {
	service *vision.Service
}

// NewCloudVision creates a new Cloud Vision OCR client
func NewCloudVision(ctx context.Context, opts ...option.ClientOption) (*CloudVision, error) {
	service, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision service: %w", err)
	}
	return &CloudVision{service: service}, nil
}

// Recognize returns all text detected in the image
func (c *CloudVision) Recognize(ctx context.Context, imageData []byte) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{
				Content: base64.StdEncoding.EncodeToString(imageData),
			},
			Features: []*vision.Feature{{
				Type: "DOCUMENT_TEXT_DETECTION",
			}},
		}},
	}

	resp, err := c.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotating image: %w", err)
	}

	if len(resp.Responses) == 0 {
		return "", nil
	}

	result := resp.Responses[0]
	if result.Error != nil && result.Error.Message != "" {
		return "", fmt.Errorf("vision API error (code %d): %s", result.Error.Code, result.Error.Message)
	}

	if result.FullTextAnnotation != nil {
		return result.FullTextAnnotation.Text, nil
	}

	// Fall back to the first text annotation, which holds the whole block
	if len(result.TextAnnotations) > 0 {
		return result.TextAnnotations[0].Description, nil
	}

	return "", nil
}
