// Package app builds the invoice pipeline from command-line configuration.
// Both binaries share it so provider selection behaves the same everywhere.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/peterbourgon/ff/v4"
	"google.golang.org/api/option"

	"github.com/zombor/expense-tracker/internal/currency"
	"github.com/zombor/expense-tracker/internal/invoice"
	"github.com/zombor/expense-tracker/internal/scanning"
)

// EnvVarPrefix is the prefix for environment variables that mirror flags
const EnvVarPrefix = "EXPENSE_TRACKER"

// Extraction strategies
const (
	ExtractorVision = "vision"
	ExtractorOCR    = "ocr"
)

// Model providers
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// PipelineConfig holds everything needed to build the invoice pipeline
type PipelineConfig struct {
	Extractor       string
	VisionProvider  string
	TextProvider    string
	GeminiKey       string
	GeminiModel     string
	OllamaURL       string
	OllamaModel     string
	OpenAIKey       string
	OpenAIModel     string
	OpenAIURL       string
	VisionAPIKey    string
	RatesURL        string
	DefaultCurrency string
	ProviderTimeout time.Duration
}

// RegisterPipelineFlags defines the pipeline flags on fs
func RegisterPipelineFlags(fs *ff.FlagSet) *PipelineConfig {
	cfg := &PipelineConfig{}
	fs.StringVar(&cfg.Extractor, 0, "extractor", ExtractorVision, "Extraction strategy: 'vision' (multimodal model) or 'ocr' (Cloud Vision OCR + structured model)")
	fs.StringVar(&cfg.VisionProvider, 0, "vision-provider", ProviderGemini, "Vision model provider: 'gemini', 'ollama' or 'openai'")
	fs.StringVar(&cfg.TextProvider, 0, "text-provider", ProviderOpenAI, "Structured model provider for the ocr strategy: 'openai', 'gemini' or 'ollama'")
	fs.StringVar(&cfg.GeminiKey, 0, "gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
	fs.StringVar(&cfg.GeminiModel, 0, "gemini-model", "gemini-2.5-flash", "Google Gemini model name")
	fs.StringVar(&cfg.OllamaURL, 0, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	fs.StringVar(&cfg.OllamaModel, 0, "ollama-model", "llava", "Ollama model name (e.g., llava, qwen2.5vl, llama3.2-vision)")
	fs.StringVar(&cfg.OpenAIKey, 0, "openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	fs.StringVar(&cfg.OpenAIModel, 0, "openai-model", "gpt-4o-mini", "OpenAI model name")
	fs.StringVar(&cfg.OpenAIURL, 0, "openai-url", "", "OpenAI-compatible API base URL (optional)")
	fs.StringVar(&cfg.VisionAPIKey, 0, "vision-api-key", "", "Google Cloud Vision API key (optional, defaults to application credentials)")
	fs.StringVar(&cfg.RatesURL, 0, "rates-url", currency.DefaultFrankfurterURL, "Frankfurter exchange-rate API base URL")
	fs.StringVar(&cfg.DefaultCurrency, 0, "default-currency", invoice.DefaultCurrency, "Currency used when the user has no preference")
	fs.DurationVar(&cfg.ProviderTimeout, 0, "provider-timeout", 2*time.Minute, "Maximum time for a single invoice run")
	return cfg
}

// Pipeline is a built pipeline plus the provider clients it owns
type Pipeline struct {
	*invoice.Pipeline

	closers []func() error
}

// Close releases provider clients
func (p *Pipeline) Close() error {
	var errs []error
	for _, closeFn := range p.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

// BuildPipeline constructs the configured extractor, converter and pipeline
func BuildPipeline(ctx context.Context, cfg *PipelineConfig) (*Pipeline, error) {
	p := &Pipeline{}
	built := map[string]chatModel{}

	var extractor scanning.Extractor
	switch cfg.Extractor {
	case ExtractorVision:
		model, err := p.buildModel(cfg, cfg.VisionProvider, built)
		if err != nil {
			return nil, err
		}
		slog.Info("Using vision extractor", "provider", cfg.VisionProvider)
		extractor = scanning.NewVisionExtractor(model)
	case ExtractorOCR:
		var opts []option.ClientOption
		if cfg.VisionAPIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.VisionAPIKey))
		}
		ocr, err := scanning.NewCloudVision(ctx, opts...)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("initializing cloud vision: %w", err)
		}
		model, err := p.buildModel(cfg, cfg.TextProvider, built)
		if err != nil {
			return nil, err
		}
		slog.Info("Using OCR extractor", "provider", cfg.TextProvider)
		extractor = scanning.NewTwoStageExtractor(ocr, model)
	default:
		return nil, fmt.Errorf("invalid extractor %q: want %q or %q", cfg.Extractor, ExtractorVision, ExtractorOCR)
	}

	rates := currency.NewFrankfurter(cfg.RatesURL, 10*time.Second)
	p.Pipeline = invoice.NewPipeline(extractor, currency.NewConverter(rates))
	return p, nil
}

// chatModel is a provider client able to serve both extraction strategies
type chatModel interface {
	scanning.VisionModel
	scanning.StructuredModel
}

// buildModel creates the client for the named provider, reusing one already
// built for the other stage
func (p *Pipeline) buildModel(cfg *PipelineConfig, provider string, built map[string]chatModel) (chatModel, error) {
	if m, ok := built[provider]; ok {
		return m, nil
	}

	var (
		m   chatModel
		err error
	)
	switch provider {
	case ProviderGemini:
		apiKey := firstNonEmpty(cfg.GeminiKey, os.Getenv("GEMINI_API_KEY"))
		if apiKey == "" {
			err = fmt.Errorf("gemini api key is required: set --gemini-key or GEMINI_API_KEY")
			break
		}
		slog.Info("Initializing Gemini...", "model", cfg.GeminiModel)
		var g *scanning.Gemini
		g, err = scanning.NewGemini(apiKey, cfg.GeminiModel)
		if err == nil {
			p.closers = append(p.closers, g.Close)
			m = g
		}
	case ProviderOllama:
		slog.Info("Initializing Ollama...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		m, err = scanning.NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.ProviderTimeout)
	case ProviderOpenAI:
		apiKey := firstNonEmpty(cfg.OpenAIKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			err = fmt.Errorf("openai api key is required: set --openai-key or OPENAI_API_KEY")
			break
		}
		slog.Info("Initializing OpenAI...", "model", cfg.OpenAIModel)
		m, err = scanning.NewOpenAI(apiKey, cfg.OpenAIModel, cfg.OpenAIURL)
	default:
		err = fmt.Errorf("invalid provider %q: want gemini, ollama or openai", provider)
	}

	if err != nil {
		p.Close()
		return nil, fmt.Errorf("initializing %s: %w", provider, err)
	}

	built[provider] = m
	return m, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
