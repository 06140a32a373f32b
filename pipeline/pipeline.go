// Package pipeline drives the per-kind processing sequence for an uploaded
// document: images go straight to recognition, PDFs are rasterized first, and
// DOC/DOCX files are converted to PDF before taking the PDF path. All
// temporary artifacts are reclaimed when processing finishes, on every exit
// path.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docingest/ocr-server/detect"
	"github.com/docingest/ocr-server/store"
)

// Pipeline orchestrates content detection, temp storage, the external
// collaborators, and result assembly.
type Pipeline struct {
	store      *store.Store
	converter  Converter
	rasterizer Rasterizer
	engine     Recognizer

	pageTimeout    time.Duration
	convertTimeout time.Duration
}

// New creates a Pipeline with the given collaborators and timeouts.
func New(st *store.Store, converter Converter, rasterizer Rasterizer, engine Recognizer,
	pageTimeout, convertTimeout time.Duration) *Pipeline {
	return &Pipeline{
		store:          st,
		converter:      converter,
		rasterizer:     rasterizer,
		engine:         engine,
		pageTimeout:    pageTimeout,
		convertTimeout: convertTimeout,
	}
}

// Process classifies the payload, persists it, and runs the kind-specific
// sequence. Pipeline-level failures (conversion, rasterization, zero pages)
// return an error; per-page recognition failures are recorded in the page
// list and do not fail the instance. fileName is the caller-supplied name and
// may be empty.
func (p *Pipeline) Process(ctx context.Context, data []byte, fileName string) (*Result, error) {
	kind := detect.Sniff(data)
	ext := detect.Ext(kind, data)

	inst := p.store.NewInstance()
	defer inst.Reclaim()

	inputPath, err := inst.Persist(data, ext)
	if err != nil {
		return nil, err
	}
	if fileName == "" {
		fileName = filepath.Base(inputPath)
	}
	log.Printf("Instance %s: saved %s (%d bytes, kind=%s)", inst.ID(), inputPath, len(data), kind)

	switch kind {
	case detect.KindPDF:
		return p.processPDF(ctx, inst, inputPath, fileName, len(data))
	case detect.KindDOC, detect.KindDOCX:
		pdfPath, err := p.convert(ctx, inst, inputPath)
		if err != nil {
			return nil, err
		}
		return p.processPDF(ctx, inst, pdfPath, filepath.Base(pdfPath), len(data))
	default:
		return p.processImage(ctx, inputPath, fileName, len(data)), nil
	}
}

// convert produces a PDF from a DOC/DOCX input. The converted file is tracked
// before the attempt so partial output is reclaimed too.
func (p *Pipeline) convert(ctx context.Context, inst *store.Instance, inputPath string) (string, error) {
	outputPath := inst.ConvertedPath()
	inst.Track(outputPath)

	convertCtx, cancel := context.WithTimeout(ctx, p.convertTimeout)
	defer cancel()

	if err := p.converter.Convert(convertCtx, inputPath, outputPath); err != nil {
		return "", fmt.Errorf("conversion failed: %v", err)
	}
	return outputPath, nil
}

// processPDF rasterizes the PDF and recognizes each page in ascending page
// order. A failed page contributes an empty-text entry with the error and
// does not abort its siblings.
func (p *Pipeline) processPDF(ctx context.Context, inst *store.Instance, pdfPath, fileName string, inputSize int) (*Result, error) {
	pagePaths, rasterErr := p.rasterizer.Rasterize(ctx, pdfPath, inst.PageBase())
	for _, path := range pagePaths {
		inst.Track(path)
	}
	if rasterErr != nil {
		return nil, fmt.Errorf("rasterization failed: %v", rasterErr)
	}
	if len(pagePaths) == 0 {
		return nil, fmt.Errorf("no images produced from PDF")
	}

	// Page files carry zero-padded suffixes, so the lexicographic sort is
	// the page order.
	sort.Strings(pagePaths)

	log.Printf("Instance %s: created %d image(s), running OCR...", inst.ID(), len(pagePaths))

	var allText strings.Builder
	pages := make([]PageResult, 0, len(pagePaths))
	processed := 0

	for i, pagePath := range pagePaths {
		pageNumber := i + 1
		text, err := p.recognizePage(ctx, pagePath)
		if err != nil {
			log.Printf("Instance %s: OCR error for page %d: %v", inst.ID(), pageNumber, err)
			pages = append(pages, PageResult{
				PageNumber: pageNumber,
				Text:       "",
				TextLength: 0,
				Error:      err.Error(),
				ImageFile:  filepath.Base(pagePath),
			})
			continue
		}

		clean := strings.TrimSpace(text)
		allText.WriteString(clean)
		allText.WriteString("\n\n")
		pages = append(pages, PageResult{
			PageNumber: pageNumber,
			Text:       clean,
			TextLength: len(clean),
			ImageFile:  filepath.Base(pagePath),
		})
		processed++
	}

	fullText := strings.TrimSpace(allText.String())
	log.Printf("Instance %s: OCR completed, total text length %d, pages %d", inst.ID(), len(fullText), len(pages))

	return &Result{
		Success:        true,
		Text:           fullText,
		Pages:          pages,
		FileName:       fileName,
		TextLength:     len(fullText),
		InputSize:      inputSize,
		PagesProcessed: processed,
		TotalPages:     len(pages),
	}, nil
}

// processImage recognizes a single image file as a one-page result. A
// recognition failure is recorded on the page and the instance still reports
// success, matching the PDF path's page-level recovery.
func (p *Pipeline) processImage(ctx context.Context, imagePath, fileName string, inputSize int) *Result {
	text, err := p.recognizePage(ctx, imagePath)

	var pages []PageResult
	allText := ""
	processed := 0
	if err != nil {
		log.Printf("OCR error (image %s): %v", fileName, err)
		pages = append(pages, PageResult{
			PageNumber: 1,
			Text:       "",
			TextLength: 0,
			Error:      err.Error(),
			ImageFile:  fileName,
		})
	} else {
		allText = strings.TrimSpace(text)
		pages = append(pages, PageResult{
			PageNumber: 1,
			Text:       allText,
			TextLength: len(allText),
			ImageFile:  fileName,
		})
		processed = 1
	}

	return &Result{
		Success:        true,
		Text:           allText,
		Pages:          pages,
		FileName:       fileName,
		TextLength:     len(allText),
		InputSize:      inputSize,
		PagesProcessed: processed,
		TotalPages:     len(pages),
	}
}

func (p *Pipeline) recognizePage(ctx context.Context, imagePath string) (string, error) {
	pageCtx, cancel := context.WithTimeout(ctx, p.pageTimeout)
	defer cancel()
	return p.engine.Recognize(pageCtx, imagePath)
}
