package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docingest/ocr-server/jobs"
	"github.com/docingest/ocr-server/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubProcessor returns a canned result or error without touching the real
// pipeline.
type stubProcessor struct {
	result *pipeline.Result
	err    error
}

func (s *stubProcessor) Process(ctx context.Context, data []byte, fileName string) (*pipeline.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := *s.result
	if result.FileName == "" {
		result.FileName = fileName
	}
	result.InputSize = len(data)
	return &result, nil
}

func singlePageResult(text string) *pipeline.Result {
	return &pipeline.Result{
		Success: true,
		Text:    text,
		Pages: []pipeline.PageResult{
			{PageNumber: 1, Text: text, TextLength: len(text)},
		},
		TextLength:     len(text),
		PagesProcessed: 1,
		TotalPages:     1,
	}
}

func newRouter(processor Processor, table *jobs.Table) *gin.Engine {
	router := gin.New()

	ocr := NewOCRHandlers(processor, table, time.Minute)
	docx := NewDocxHandlers()
	job := NewJobHandlers(table)

	router.POST("/ocr", ocr.OCRUpload)
	router.POST("/ocr-binary", ocr.OCRBinary)
	router.POST("/extract-docx-binary", docx.ExtractDocxBinary)
	router.POST("/test", ocr.TestEcho)
	router.GET("/result/:jobId", job.GetResult)
	router.GET("/result/:jobId/export", job.ExportResult)

	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHealthHandlers("http://localhost:3000", "tesseract", t.TempDir())
	defer h.StopHealthChecker()

	router := gin.New()
	router.GET("/health", h.Health)

	w := doRequest(t, router, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "OCR API", body["service"])
	assert.NotEmpty(t, body["time"])
}

func TestOCRBinaryEmptyBody(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, jobs.NewTable(time.Hour))

	w := doRequest(t, router, http.MethodPost, "/ocr-binary", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No binary data received", body["error"])
}

func TestOCRBinarySync(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("recognized text")}, jobs.NewTable(time.Hour))

	w := doRequest(t, router, http.MethodPost, "/ocr-binary", []byte("%PDF-1.4 data"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "recognized text", body["text"])
	assert.Equal(t, float64(1), body["totalPages"])
	assert.Equal(t, float64(1), body["pagesProcessed"])
	assert.Equal(t, float64(len("%PDF-1.4 data")), body["inputSize"])

	pages, ok := body["pages"].([]any)
	require.True(t, ok)
	require.Len(t, pages, 1)
}

func TestOCRBinarySyncErrorKeepsHTTP200(t *testing.T) {
	router := newRouter(&stubProcessor{err: errors.New("rasterization failed")}, jobs.NewTable(time.Hour))

	w := doRequest(t, router, http.MethodPost, "/ocr-binary", []byte("%PDF-1.4 data"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "rasterization failed", body["error"])
	assert.Equal(t, "", body["text"])
}

func TestOCRUploadMultipart(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("from upload")}, jobs.NewTable(time.Hour))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scan.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(t, router, http.MethodPost, "/ocr", buf.Bytes(), map[string]string{
		"Content-Type": mw.FormDataContentType(),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "scan.png", body["fileName"])
}

func TestOCRUploadNoFile(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, jobs.NewTable(time.Hour))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	w := doRequest(t, router, http.MethodPost, "/ocr", buf.Bytes(), map[string]string{
		"Content-Type": mw.FormDataContentType(),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "No file uploaded", body["error"])
}

func TestAsyncAcceptAndPoll(t *testing.T) {
	table := jobs.NewTable(time.Hour)
	router := newRouter(&stubProcessor{result: singlePageResult("async text")}, table)

	w := doRequest(t, router, http.MethodPost, "/ocr-binary?async=1", []byte("%PDF-1.4 data"), nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["accepted"])
	jobID, ok := body["jobId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, jobID)

	// The job runs in a detached goroutine; poll until it reaches done.
	deadline := time.Now().Add(5 * time.Second)
	var last *httptest.ResponseRecorder
	for time.Now().Before(deadline) {
		last = doRequest(t, router, http.MethodGet, "/result/"+jobID, nil, nil)
		if last.Code == http.StatusOK {
			break
		}
		require.Equal(t, http.StatusAccepted, last.Code)
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, http.StatusOK, last.Code)

	final := decodeJSON(t, last)
	assert.Equal(t, true, final["success"])
	assert.Equal(t, "done", final["status"])
	result, ok := final["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "async text", result["text"])
}

func TestAsyncViaHeader(t *testing.T) {
	table := jobs.NewTable(time.Hour)
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, table)

	w := doRequest(t, router, http.MethodPost, "/ocr-binary", []byte("%PDF-1.4 data"), map[string]string{
		"X-Async": "true",
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestAsyncFailureSurfacesInPolling(t *testing.T) {
	table := jobs.NewTable(time.Hour)
	router := newRouter(&stubProcessor{err: errors.New("conversion failed")}, table)

	w := doRequest(t, router, http.MethodPost, "/ocr-binary?async=true", []byte("%PDF-1.4 data"), nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	jobID := decodeJSON(t, w)["jobId"].(string)

	deadline := time.Now().Add(5 * time.Second)
	var last *httptest.ResponseRecorder
	for time.Now().Before(deadline) {
		last = doRequest(t, router, http.MethodGet, "/result/"+jobID, nil, nil)
		if last.Code == http.StatusOK {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, http.StatusOK, last.Code)

	body := decodeJSON(t, last)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "conversion failed", body["error"])
}

func TestGetResultUnknownJob(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, jobs.NewTable(time.Hour))

	w := doRequest(t, router, http.MethodGet, "/result/job_123_deadbeef", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Job not found", body["error"])
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractDocxBinary(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, jobs.NewTable(time.Hour))

	payload := buildDocx(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Direct</w:t></w:r><w:r><w:t>extraction</w:t></w:r></w:p></w:body>
</w:document>`)

	w := doRequest(t, router, http.MethodPost, "/extract-docx-binary", payload, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Direct extraction", body["text"])
	assert.Equal(t, float64(1), body["totalPages"])
	assert.Equal(t, float64(1), body["pagesProcessed"])
	assert.Equal(t, float64(len(payload)), body["inputSize"])
}

func TestExtractDocxBinaryParseFailure(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, jobs.NewTable(time.Hour))

	// Valid ZIP signature but no word/document.xml part.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	w := doRequest(t, router, http.MethodPost, "/extract-docx-binary", buf.Bytes(), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, false, body["success"])
}

func TestExtractDocxBinaryRejectsNonZip(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, jobs.NewTable(time.Hour))

	w := doRequest(t, router, http.MethodPost, "/extract-docx-binary", []byte("%PDF-1.4 data"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, false, body["success"])
}

func TestExportResultStatuses(t *testing.T) {
	table := jobs.NewTable(time.Hour)
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, table)

	w := doRequest(t, router, http.MethodGet, "/result/job_0_unknown/export", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	pending := table.Create()
	w = doRequest(t, router, http.MethodGet, "/result/"+pending+"/export", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	done := table.Create()
	result := singlePageResult("exported text")
	result.FileName = "scan.pdf"
	table.Complete(done, result)

	w = doRequest(t, router, http.MethodGet, "/result/"+done+"/export", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "scan.pdf.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestTestEcho(t *testing.T) {
	router := newRouter(&stubProcessor{result: singlePageResult("x")}, jobs.NewTable(time.Hour))

	w := doRequest(t, router, http.MethodPost, "/test", []byte("ping"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Test endpoint works", body["message"])
	assert.Equal(t, float64(4), body["bodySize"])
}
