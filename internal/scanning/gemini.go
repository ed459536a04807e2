package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/api/option"
)

// Gemini implements VisionModel and StructuredModel using Google Gemini
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates a new Gemini client
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:    client,
		modelName: modelName,
	}, nil
}

// model returns a fresh model handle so per-call settings never leak between
// concurrent requests
func (g *Gemini) model() *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0)
	return model
}

// CompleteVision sends the image and instructions to Gemini
func (g *Gemini) CompleteVision(ctx context.Context, imageData []byte, mimeType, instructions string) (string, error) {
	model := g.model()
	model.ResponseMIMEType = "application/json"

	// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
	format := strings.TrimPrefix(mimeType, "image/")

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, imageData),
		genai.Text(instructions),
	)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	return responseText(resp)
}

// CompleteStructured asks Gemini to answer with JSON matching schema
func (g *Gemini) CompleteStructured(ctx context.Context, instructions, text string, schema jsonschema.Definition) (string, error) {
	model := g.model()
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instructions)}}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = toGeminiSchema(schema)

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	return responseText(resp)
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return strings.TrimSpace(responseText.String()), nil
}

// toGeminiSchema converts a JSON schema definition to Gemini's schema type.
// Gemini has no equivalent of additionalProperties, so it is dropped.
func toGeminiSchema(def jsonschema.Definition) *genai.Schema {
	schema := &genai.Schema{
		Description: def.Description,
		Enum:        def.Enum,
		Required:    def.Required,
	}

	switch def.Type {
	case jsonschema.Object:
		schema.Type = genai.TypeObject
	case jsonschema.Array:
		schema.Type = genai.TypeArray
	case jsonschema.String:
		schema.Type = genai.TypeString
	case jsonschema.Number:
		schema.Type = genai.TypeNumber
	case jsonschema.Integer:
		schema.Type = genai.TypeInteger
	case jsonschema.Boolean:
		schema.Type = genai.TypeBoolean
	}

	if len(def.Enum) > 0 && schema.Type == genai.TypeString {
		schema.Format = "enum"
	}

	if len(def.Properties) > 0 {
		schema.Properties = make(map[string]*genai.Schema, len(def.Properties))
		for name, prop := range def.Properties {
			schema.Properties[name] = toGeminiSchema(prop)
		}
	}

	if def.Items != nil {
		schema.Items = toGeminiSchema(*def.Items)
	}

	return schema
}
