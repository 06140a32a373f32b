package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiTranscribePrompt = "Transcribe all text visible in this image exactly as it appears. " +
	"Return only the transcribed text, with the original line breaks, and nothing else."

// GeminiRecognizer extracts text by asking a Gemini multimodal model to
// transcribe the page image.
type GeminiRecognizer struct {
	apiKey string
	model  string
}

// NewGeminiRecognizer creates a Gemini-backed recognizer.
func NewGeminiRecognizer(apiKey, model string) *GeminiRecognizer {
	return &GeminiRecognizer{apiKey: apiKey, model: model}
}

func (g *GeminiRecognizer) Name() string { return "gemini" }

// Recognize sends the image with a transcription prompt and concatenates the
// text parts of the response.
func (g *GeminiRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %v", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(imagePath), imageData),
		genai.Text(geminiTranscribePrompt),
	)
	if err != nil {
		return "", fmt.Errorf("Gemini request failed: %v", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

// imageFormat maps a file extension to the format label the Gemini API
// expects.
func imageFormat(path string) string {
	switch {
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "jpeg"
	case strings.HasSuffix(path, ".webp"):
		return "webp"
	default:
		return "png"
	}
}
