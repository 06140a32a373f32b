package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// VisionRecognizer extracts text with the Google Cloud Vision document text
// detection feature. Credentials come from the standard
// GOOGLE_APPLICATION_CREDENTIALS environment.
type VisionRecognizer struct {
	languageHints []string
}

// NewVisionRecognizer creates a Vision-backed recognizer with the given
// language hints.
func NewVisionRecognizer(languageHints []string) *VisionRecognizer {
	return &VisionRecognizer{languageHints: languageHints}
}

func (v *VisionRecognizer) Name() string { return "vision" }

// Recognize sends the image to the Vision API and returns the full text
// annotation.
func (v *VisionRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %v", err)
	}

	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create Vision client: %v", err)
	}
	defer client.Close()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{
			Content: imageData,
		},
		Features: []*visionpb.Feature{
			{
				Type:       visionpb.Feature_DOCUMENT_TEXT_DETECTION,
				MaxResults: 1,
			},
		},
		ImageContext: &visionpb.ImageContext{
			LanguageHints: v.languageHints,
		},
	}

	resp, err := client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return "", fmt.Errorf("failed to detect text: %v", err)
	}

	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}
	if resp.Responses[0].Error != nil {
		return "", fmt.Errorf("API error: %v", resp.Responses[0].Error.Message)
	}

	fullTextAnnotation := resp.Responses[0].FullTextAnnotation
	if fullTextAnnotation == nil {
		log.Println("No text found in the image")
		return "", nil
	}

	return fullTextAnnotation.Text, nil
}
