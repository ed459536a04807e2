package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

const ollamaSystemPrompt = "You are an expert at reading and extracting information from receipts and invoices. You must carefully read all text and extract accurate information."

// Ollama implements VisionModel and StructuredModel using a local Ollama server
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama client
// Recommended vision models for invoice scanning (in order of recommendation):
//   - llava:1.6 (best balance of accuracy and speed)
//   - qwen2.5vl (good OCR capabilities)
//   - llama3.2-vision
//
// Text-only models such as llama3.1 work for the structured stage.
func NewOllama(baseURL string, modelName string, timeout time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second // Ollama can be slow, especially for vision models
	}

	return &Ollama{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   modelName,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   any             `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// CompleteVision sends the image to an Ollama vision model
func (o *Ollama) CompleteVision(ctx context.Context, imageData []byte, mimeType, instructions string) (string, error) {
	return o.chat(ctx, ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: "json",
		Messages: []ollamaMessage{
			{Role: "system", Content: ollamaSystemPrompt},
			{
				Role:    "user",
				Content: instructions,
				Images:  []string{base64.StdEncoding.EncodeToString(imageData)},
			},
		},
		Options: map[string]any{"temperature": 0},
	})
}

// CompleteStructured constrains the Ollama response to schema
func (o *Ollama) CompleteStructured(ctx context.Context, instructions, text string, schema jsonschema.Definition) (string, error) {
	return o.chat(ctx, ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: schema,
		Messages: []ollamaMessage{
			{Role: "system", Content: instructions},
			{Role: "user", Content: text},
		},
		Options: map[string]any{"temperature": 0},
	})
}

func (o *Ollama) chat(ctx context.Context, reqBody ollamaChatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return strings.TrimSpace(chatResp.Message.Content), nil
}
