package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/docingest/ocr-server/jobs"
	"github.com/docingest/ocr-server/utils"
)

// JobHandlers contains handlers for polling and exporting async job results.
type JobHandlers struct {
	jobs *jobs.Table
}

// NewJobHandlers creates a new JobHandlers instance
func NewJobHandlers(table *jobs.Table) *JobHandlers {
	return &JobHandlers{jobs: table}
}

// GetResult reports the state of an async job. Unknown (or already evicted)
// ids get 404, in-flight jobs get 202, terminal jobs get 200 with the result
// or error attached.
func (h *JobHandlers) GetResult(c *gin.Context) {
	jobID := c.Param("jobId")

	job, ok := h.jobs.Lookup(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Job not found",
		})
		return
	}

	if job.Status == jobs.StatusProcessing {
		c.JSON(http.StatusAccepted, gin.H{
			"success": true,
			"jobId":   job.ID,
			"status":  job.Status,
		})
		return
	}

	response := gin.H{
		"success": true,
		"jobId":   job.ID,
		"status":  job.Status,
	}
	if job.Result != nil {
		response["result"] = job.Result
	}
	if job.Error != "" {
		response["error"] = job.Error
	}
	c.JSON(http.StatusOK, response)
}

// ExportResult downloads a completed job's per-page text as an XLSX workbook.
func (h *JobHandlers) ExportResult(c *gin.Context) {
	jobID := c.Param("jobId")

	job, ok := h.jobs.Lookup(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Job not found",
		})
		return
	}
	if job.Status != jobs.StatusDone || job.Result == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Job is not done (status: %s)", job.Status),
		})
		return
	}

	f := excelize.NewFile()
	sheetName := "Pages"
	f.SetSheetName("Sheet1", sheetName)

	headers := []string{"Page", "Text", "Length", "Error"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDDDDD"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", "D1", headerStyle)

	for i, page := range job.Result.Pages {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), page.PageNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), page.Text)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), page.TextLength)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), page.Error)
	}

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 80)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		log.Printf("Failed to write Excel file for %s: %v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to generate Excel file",
		})
		return
	}

	exportName := utils.SafeFilename(job.Result.FileName)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", exportName))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
