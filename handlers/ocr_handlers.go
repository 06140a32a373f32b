package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docingest/ocr-server/detect"
	"github.com/docingest/ocr-server/jobs"
	"github.com/docingest/ocr-server/pipeline"
	"github.com/docingest/ocr-server/utils"
)

// maxBinaryBody bounds raw uploads; multipart uploads get a tighter limit.
const (
	maxBinaryBody    = 50 << 20
	maxMultipartBody = 20 << 20
)

// Processor runs the document processing pipeline for one payload.
type Processor interface {
	Process(ctx context.Context, data []byte, fileName string) (*pipeline.Result, error)
}

// OCRHandlers contains handlers for OCR upload operations
type OCRHandlers struct {
	processor  Processor
	jobs       *jobs.Table
	jobTimeout time.Duration
}

// NewOCRHandlers creates a new OCRHandlers instance. jobTimeout is the hard
// deadline a detached job execution gets before it is force-failed.
func NewOCRHandlers(processor Processor, table *jobs.Table, jobTimeout time.Duration) *OCRHandlers {
	return &OCRHandlers{
		processor:  processor,
		jobs:       table,
		jobTimeout: jobTimeout,
	}
}

// OCRUpload handles multipart uploads on /ocr. The first file of any field
// name is taken.
func (h *OCRHandlers) OCRUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultipartBody)

	data, fileName, ok := firstFormFile(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No file uploaded",
		})
		return
	}
	if len(data) < detect.MinSniffLen {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No data received",
		})
		return
	}

	h.handleOCR(c, data, fileName)
}

// OCRBinary handles raw-body uploads on /ocr-binary.
func (h *OCRHandlers) OCRBinary(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBinaryBody)

	data, err := c.GetRawData()
	if err != nil || len(data) < detect.MinSniffLen {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No binary data received",
		})
		return
	}

	log.Printf("Binary OCR request: %d bytes", len(data))
	h.handleOCR(c, data, "")
}

// handleOCR runs the pipeline inline, or detaches it as a job when the
// request carries the async flag.
func (h *OCRHandlers) handleOCR(c *gin.Context, data []byte, fileName string) {
	isAsync := utils.IsTruthy(c.Query("async")) || utils.IsTruthy(c.GetHeader("X-Async"))

	if isAsync {
		jobID := h.jobs.Create()
		log.Printf("Async mode enabled, jobId=%s", jobID)
		c.JSON(http.StatusAccepted, gin.H{
			"success":  true,
			"accepted": true,
			"jobId":    jobID,
		})

		go h.runJob(jobID, data, fileName)
		return
	}

	result, err := h.processor.Process(c.Request.Context(), data, fileName)
	if err != nil {
		log.Printf("OCR error: %v", err)
		// OCR-path failures keep HTTP 200 with success:false so callers
		// always parse the same JSON shape.
		c.JSON(http.StatusOK, gin.H{
			"success":  false,
			"error":    err.Error(),
			"text":     "",
			"fileName": fileName,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// runJob is the detached unit of work bound to one job id. It always reaches
// a terminal job table write: success, failure, or the hard timeout.
func (h *OCRHandlers) runJob(jobID string, data []byte, fileName string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.jobTimeout)
	defer cancel()

	result, err := h.processor.Process(ctx, data, fileName)
	if err != nil {
		log.Printf("Async OCR error for %s: %v", jobID, err)
		h.jobs.Fail(jobID, err.Error())
		return
	}
	h.jobs.Complete(jobID, result)
}

// TestEcho echoes request metadata back for connectivity checks.
func (h *OCRHandlers) TestEcho(c *gin.Context) {
	data, _ := c.GetRawData()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Test endpoint works",
		"bodySize":  len(data),
		"timestamp": time.Now().UnixMilli(),
	})
}

// firstFormFile reads the first file of any field name from a multipart
// form.
func firstFormFile(c *gin.Context) ([]byte, string, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, "", false
	}
	for _, files := range form.File {
		if len(files) == 0 {
			continue
		}
		header := files[0]
		file, err := header.Open()
		if err != nil {
			return nil, "", false
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", false
		}
		return data, header.Filename, true
	}
	return nil, "", false
}
