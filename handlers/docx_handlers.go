package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docingest/ocr-server/detect"
	"github.com/docingest/ocr-server/docx"
	"github.com/docingest/ocr-server/pipeline"
)

// DocxHandlers contains handlers for direct DOCX text extraction, which
// bypasses OCR entirely.
type DocxHandlers struct{}

// NewDocxHandlers creates a new DocxHandlers instance
func NewDocxHandlers() *DocxHandlers {
	return &DocxHandlers{}
}

// ExtractDocx handles multipart uploads on /extract-docx.
func (h *DocxHandlers) ExtractDocx(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultipartBody)

	data, fileName, ok := firstFormFile(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No file uploaded",
		})
		return
	}

	h.handleExtract(c, data, fileName)
}

// ExtractDocxBinary handles raw-body uploads on /extract-docx-binary.
func (h *DocxHandlers) ExtractDocxBinary(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBinaryBody)

	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No binary data received",
		})
		return
	}

	h.handleExtract(c, data, "document.docx")
}

func (h *DocxHandlers) handleExtract(c *gin.Context, data []byte, fileName string) {
	if len(data) < detect.MinSniffLen || !detect.IsZIP(data) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "File is not a DOCX (ZIP) package",
		})
		return
	}

	text, err := docx.Extract(data)
	if err != nil {
		log.Printf("DOCX extraction error for %s: %v", fileName, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	// Single-page result, same shape as the OCR path.
	c.JSON(http.StatusOK, pipeline.Result{
		Success: true,
		Text:    text,
		Pages: []pipeline.PageResult{
			{PageNumber: 1, Text: text, TextLength: len(text)},
		},
		FileName:       fileName,
		TextLength:     len(text),
		InputSize:      len(data),
		PagesProcessed: 1,
		TotalPages:     1,
	})
}
