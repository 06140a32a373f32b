package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// TesseractRecognizer runs the tesseract binary on an image file and captures
// the recognized text from stdout. The command is invoked with an argument
// vector, never through a shell.
type TesseractRecognizer struct {
	languages string
}

// NewTesseractRecognizer creates a recognizer for the given language set
// (tesseract "+"-joined notation, e.g. "ukr+rus+eng").
func NewTesseractRecognizer(languages string) *TesseractRecognizer {
	return &TesseractRecognizer{languages: languages}
}

func (t *TesseractRecognizer) Name() string { return "tesseract" }

// Recognize runs tesseract with stdout output. The context deadline bounds
// the subprocess; on expiry the process is killed and the page fails.
func (t *TesseractRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "tesseract", imagePath, "stdout", "-l", t.languages)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("tesseract timed out: %v", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("tesseract failed: %s", msg)
	}

	return stdout.String(), nil
}
