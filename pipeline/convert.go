package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Converter turns a DOC/DOCX file into a PDF at outputPath.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}

// GotenbergConverter converts office documents through Gotenberg's
// LibreOffice route.
type GotenbergConverter struct {
	baseURL string
	client  *http.Client
}

// NewGotenbergConverter creates a converter for the Gotenberg instance at
// baseURL. timeout bounds the whole conversion round trip.
func NewGotenbergConverter(baseURL string, timeout time.Duration) *GotenbergConverter {
	return &GotenbergConverter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Convert uploads the input file as a multipart form and writes the returned
// PDF to outputPath. A non-2xx response, an empty body, or a timeout all fail
// the conversion.
func (g *GotenbergConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input for conversion: %v", err)
	}
	defer input.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", filepath.Base(inputPath))
	if err != nil {
		return fmt.Errorf("failed to build conversion request: %v", err)
	}
	if _, err := io.Copy(part, input); err != nil {
		return fmt.Errorf("failed to read input for conversion: %v", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize conversion request: %v", err)
	}

	url := g.baseURL + "/forms/libreoffice/convert"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to create conversion request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("conversion request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("converter returned status %d: %s", resp.StatusCode, msg)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create converted PDF: %v", err)
	}
	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write converted PDF: %v", err)
	}
	if written == 0 {
		return fmt.Errorf("converter did not produce output PDF")
	}

	log.Printf("Converted %s to PDF (%d bytes)", filepath.Base(inputPath), written)
	return nil
}
