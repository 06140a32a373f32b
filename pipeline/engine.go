package pipeline

import (
	"context"
	"fmt"
)

// Recognizer extracts text from a single image file.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// EngineConfig carries the settings the recognition engines need.
type EngineConfig struct {
	// Languages is the tesseract language set, e.g. "ukr+rus+eng".
	Languages string
	// LanguageHints are the Vision API language hints.
	LanguageHints []string
	// GeminiAPIKey and GeminiModel configure the Gemini engine.
	GeminiAPIKey string
	GeminiModel  string
	// OpenAIAPIKey and OpenAIModel configure the OpenAI engine.
	OpenAIAPIKey string
	OpenAIModel  string
}

// NewRecognizer builds the recognition engine selected by name. Supported
// engines: tesseract, vision, gemini, openai.
func NewRecognizer(name string, cfg EngineConfig) (Recognizer, error) {
	switch name {
	case "", "tesseract":
		return NewTesseractRecognizer(cfg.Languages), nil
	case "vision":
		return NewVisionRecognizer(cfg.LanguageHints), nil
	case "gemini":
		return NewGeminiRecognizer(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case "openai":
		return NewOpenAIRecognizer(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", name)
	}
}
