package pipeline

import (
	"context"
	"fmt"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/gen2brain/go-fitz"
)

// Rasterizer turns each page of a PDF into an image file on disk. The
// returned paths carry zero-padded page suffixes so their lexicographic sort
// matches page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outBase string) ([]string, error)
}

// pageDPI is the fixed rasterization resolution for recognition input.
const pageDPI = 300

// FitzRasterizer renders PDF pages to PNG files with MuPDF.
type FitzRasterizer struct{}

// NewFitzRasterizer creates a FitzRasterizer.
func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

// Rasterize renders every page of the PDF at outBase-NNN.png. Opening the
// document is retried a few times because MuPDF occasionally fails on a file
// that was written moments ago.
func (r *FitzRasterizer) Rasterize(ctx context.Context, pdfPath, outBase string) ([]string, error) {
	var doc *fitz.Document
	var openErr error

	for attempts := 0; attempts < 3; attempts++ {
		doc, openErr = fitz.New(pdfPath)
		if openErr == nil {
			break
		}
		log.Printf("Failed to open PDF (attempt %d): %v", attempts+1, openErr)
		time.Sleep(100 * time.Millisecond)
	}
	if openErr != nil {
		return nil, fmt.Errorf("failed to open PDF after retries: %v", openErr)
	}
	defer doc.Close()

	totalPages := doc.NumPage()
	paths := make([]string, 0, totalPages)

	for idx := 0; idx < totalPages; idx++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		img, err := doc.ImageDPI(idx, pageDPI)
		if err != nil {
			return paths, fmt.Errorf("failed to render page %d: %v", idx+1, err)
		}

		pagePath := fmt.Sprintf("%s-%03d.png", outBase, idx+1)
		file, err := os.Create(pagePath)
		if err != nil {
			return paths, fmt.Errorf("failed to create image for page %d: %v", idx+1, err)
		}
		if err := png.Encode(file, img); err != nil {
			file.Close()
			return paths, fmt.Errorf("failed to encode page %d: %v", idx+1, err)
		}
		if err := file.Close(); err != nil {
			return paths, fmt.Errorf("failed to write page %d: %v", idx+1, err)
		}
		paths = append(paths, pagePath)
	}

	return paths, nil
}
