package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	openai "github.com/openai/openai-go"
	openaiOption "github.com/openai/openai-go/option"
	shared "github.com/openai/openai-go/shared"
)

const openaiTranscribePrompt = "Transcribe all text visible in this image exactly as it appears. " +
	"Return only the transcribed text, with the original line breaks, and nothing else."

// OpenAIRecognizer extracts text by asking an OpenAI multimodal model to
// transcribe the page image.
type OpenAIRecognizer struct {
	apiKey string
	model  string
}

// NewOpenAIRecognizer creates an OpenAI-backed recognizer.
func NewOpenAIRecognizer(apiKey, model string) *OpenAIRecognizer {
	return &OpenAIRecognizer{apiKey: apiKey, model: model}
}

func (o *OpenAIRecognizer) Name() string { return "openai" }

// Recognize sends the image as a base64 data URL with a transcription prompt
// and returns the first choice's content.
func (o *OpenAIRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %v", err)
	}

	dataURL := fmt.Sprintf("data:image/%s;base64,%s",
		imageFormat(imagePath), base64.StdEncoding.EncodeToString(imageData))

	client := openai.NewClient(openaiOption.WithAPIKey(o.apiKey))

	parts := []openai.ChatCompletionContentPartUnionParam{
		{OfText: &openai.ChatCompletionContentPartTextParam{Text: openaiTranscribePrompt}},
		{OfImageURL: &openai.ChatCompletionContentPartImageParam{
			ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
		}},
	}
	messages := []openai.ChatCompletionMessageParamUnion{
		{OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts},
		}},
	}

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(o.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI request failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
