package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/docingest/ocr-server/config"
	"github.com/docingest/ocr-server/handlers"
	"github.com/docingest/ocr-server/jobs"
	"github.com/docingest/ocr-server/pipeline"
	"github.com/docingest/ocr-server/store"
	"github.com/docingest/ocr-server/utils"
)

var logFile *os.File

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or could not be loaded")
	}

	// Set up logging
	logFile = utils.SetupLogging()
}

func cleanup() {
	if logFile != nil {
		log.Println("Closing log file")
		logFile.Close()
	}
}

func main() {
	// Set up cleanup on exit
	defer cleanup()

	gin.SetMode(gin.ReleaseMode)

	// Create a custom gin instance with the logger configuration
	// that logs only requests to both console and file
	router := gin.New()
	router.Use(gin.LoggerWithWriter(io.MultiWriter(os.Stdout, logFile)))
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Async")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Bound every request so a hung collaborator cannot hold a connection
	// open indefinitely.
	requestTimeout := config.GetRequestTimeout()
	router.Use(func(c *gin.Context) {
		// WebSocket connections stay open past any request deadline.
		if c.Request.URL.Path == "/health/ws" {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	artifacts, err := store.New(config.GetUploadDir())
	if err != nil {
		log.Fatalf("Failed to initialize working directory: %v", err)
	}

	engineName := config.GetOCREngine()
	engine, err := pipeline.NewRecognizer(engineName, pipeline.EngineConfig{
		Languages:     config.GetOCRLanguages(),
		LanguageHints: config.GetVisionLanguageHints(),
		GeminiAPIKey:  config.GetGeminiAPIKey(),
		GeminiModel:   config.GetGeminiModel(),
		OpenAIAPIKey:  config.GetOpenAIAPIKey(),
		OpenAIModel:   config.GetOpenAIModel(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize OCR engine: %v", err)
	}
	log.Printf("Using OCR engine: %s", engine.Name())

	converter := pipeline.NewGotenbergConverter(config.GetGotenbergURL(), config.GetConvertTimeout())
	rasterizer := pipeline.NewFitzRasterizer()
	proc := pipeline.New(artifacts, converter, rasterizer, engine,
		config.GetPageTimeout(), config.GetConvertTimeout())

	jobTable := jobs.NewTable(config.GetJobRetention())
	sweepStop := make(chan struct{})
	defer close(sweepStop)
	jobTable.StartSweeper(config.GetJobSweepInterval(), sweepStop)

	// Initialize handlers
	ocrHandlers := handlers.NewOCRHandlers(proc, jobTable, config.GetRequestTimeout())
	docxHandlers := handlers.NewDocxHandlers()
	jobHandlers := handlers.NewJobHandlers(jobTable)
	healthHandlers := handlers.NewHealthHandlers(config.GetGotenbergURL(), engineName, artifacts.Dir())
	defer healthHandlers.StopHealthChecker()

	// API routes
	router.POST("/ocr", ocrHandlers.OCRUpload)
	router.POST("/ocr-binary", ocrHandlers.OCRBinary)
	router.POST("/extract-docx", docxHandlers.ExtractDocx)
	router.POST("/extract-docx-binary", docxHandlers.ExtractDocxBinary)
	router.POST("/test", ocrHandlers.TestEcho)

	router.GET("/result/:jobId", jobHandlers.GetResult)
	router.GET("/result/:jobId/export", jobHandlers.ExportResult)

	router.GET("/health", healthHandlers.Health)
	router.GET("/health/status", healthHandlers.GetHealthStatus)
	router.GET("/health/ws", healthHandlers.HealthWebSocketHandler)

	addr := config.GetPort()
	log.Printf("OCR API listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
