package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// HealthStatus represents the health status of system components
type HealthStatus struct {
	Backend    ComponentHealth `json:"backend"`
	Converter  ComponentHealth `json:"converter"`
	Recognizer ComponentHealth `json:"recognizer"`
	WorkDir    ComponentHealth `json:"workDir"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ComponentHealth represents the health of a single system component
type ComponentHealth struct {
	Status       string `json:"status"` // "healthy", "degraded", or "unhealthy"
	Message      string `json:"message"`
	ResponseTime int64  `json:"responseTime"` // in milliseconds
}

// HealthHandlers contains handlers for health check operations
type HealthHandlers struct {
	converterURL      string
	engineName        string
	workDir           string
	healthClients     map[*websocket.Conn]bool
	healthMutex       sync.Mutex
	healthBroadcast   chan []byte
	healthCheckTicker *time.Ticker
	stopChan          chan struct{}
	httpClient        *http.Client
}

// HealthUpgrader configures the WebSocket upgrader for health status
var healthUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// NewHealthHandlers creates a new HealthHandlers instance
func NewHealthHandlers(converterURL, engineName, workDir string) *HealthHandlers {
	h := &HealthHandlers{
		converterURL:    converterURL,
		engineName:      engineName,
		workDir:         workDir,
		healthClients:   make(map[*websocket.Conn]bool),
		healthBroadcast: make(chan []byte),
		stopChan:        make(chan struct{}),
		httpClient:      &http.Client{Timeout: 2 * time.Second},
	}

	// Start the broadcaster and health checker goroutines
	go h.healthBroadcaster()
	h.startHealthChecker(10 * time.Second)

	return h
}

// Health answers liveness probes with a small fixed payload.
func (h *HealthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "OCR API",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// GetHealthStatus returns the current health status of all components
func (h *HealthHandlers) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.checkHealth())
}

// HealthWebSocketHandler handles WebSocket connections for health status updates
func (h *HealthHandlers) HealthWebSocketHandler(c *gin.Context) {
	ws, err := healthUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading to health websocket: %v", err)
		return
	}

	// Register new client
	h.healthMutex.Lock()
	h.healthClients[ws] = true
	h.healthMutex.Unlock()

	log.Printf("New health WebSocket client connected. Total clients: %d", len(h.healthClients))

	// Handle disconnection
	defer func() {
		h.healthMutex.Lock()
		delete(h.healthClients, ws)
		h.healthMutex.Unlock()
		ws.Close()
		log.Printf("Health WebSocket client disconnected. Total clients: %d", len(h.healthClients))
	}()

	// Send initial health status immediately
	status := h.checkHealth()
	data, err := json.Marshal(status)
	if err == nil {
		ws.WriteMessage(websocket.TextMessage, data)
	}

	// Keep connection alive by reading messages (not used, but needed to detect disconnection)
	for {
		_, _, err := ws.ReadMessage()
		if err != nil {
			break
		}
	}
}

// healthBroadcaster sends health status to all connected clients
func (h *HealthHandlers) healthBroadcaster() {
	for {
		msg := <-h.healthBroadcast

		h.healthMutex.Lock()
		for client := range h.healthClients {
			err := client.WriteMessage(websocket.TextMessage, msg)
			if err != nil {
				log.Printf("Error broadcasting health status to client: %v", err)
				client.Close()
				delete(h.healthClients, client)
			}
		}
		h.healthMutex.Unlock()
	}
}

// startHealthChecker periodically checks health and broadcasts updates
func (h *HealthHandlers) startHealthChecker(interval time.Duration) {
	h.healthCheckTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-h.healthCheckTicker.C:
				status := h.checkHealth()
				data, err := json.Marshal(status)
				if err != nil {
					log.Printf("Error marshalling health status: %v", err)
					continue
				}

				// Only broadcast if there are clients
				h.healthMutex.Lock()
				clientCount := len(h.healthClients)
				h.healthMutex.Unlock()

				if clientCount > 0 {
					h.healthBroadcast <- data
				}
			case <-h.stopChan:
				h.healthCheckTicker.Stop()
				return
			}
		}
	}()
}

// StopHealthChecker stops the health check ticker
func (h *HealthHandlers) StopHealthChecker() {
	close(h.stopChan)
}

// checkHealth performs health checks on all components
func (h *HealthHandlers) checkHealth() HealthStatus {
	status := HealthStatus{
		Timestamp: time.Now(),
	}

	status.Backend = ComponentHealth{
		Status:       "healthy",
		Message:      "Backend service is running",
		ResponseTime: 1,
	}

	converterStart := time.Now()
	converterHealth := h.checkConverterHealth()
	status.Converter = ComponentHealth{
		Status:       converterHealth.Status,
		Message:      converterHealth.Message,
		ResponseTime: time.Since(converterStart).Milliseconds(),
	}

	recognizerStart := time.Now()
	recognizerHealth := h.checkRecognizerHealth()
	status.Recognizer = ComponentHealth{
		Status:       recognizerHealth.Status,
		Message:      recognizerHealth.Message,
		ResponseTime: time.Since(recognizerStart).Milliseconds(),
	}

	workDirStart := time.Now()
	workDirHealth := h.checkWorkDirHealth()
	status.WorkDir = ComponentHealth{
		Status:       workDirHealth.Status,
		Message:      workDirHealth.Message,
		ResponseTime: time.Since(workDirStart).Milliseconds(),
	}

	return status
}

// checkConverterHealth checks whether the document conversion service answers.
func (h *HealthHandlers) checkConverterHealth() ComponentHealth {
	health := ComponentHealth{
		Status:  "unhealthy",
		Message: "Failed to reach conversion service",
	}

	resp, err := h.httpClient.Get(h.converterURL + "/health")
	if err != nil {
		return health
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		health.Status = "degraded"
		health.Message = "Conversion service responded with status " + resp.Status
		return health
	}

	health.Status = "healthy"
	health.Message = "Conversion service is reachable and operational"
	return health
}

// checkRecognizerHealth checks that the configured recognition engine is
// usable. Local engines need the binary on PATH; API engines are assumed
// reachable once configured.
func (h *HealthHandlers) checkRecognizerHealth() ComponentHealth {
	if h.engineName == "tesseract" || h.engineName == "" {
		if _, err := exec.LookPath("tesseract"); err != nil {
			return ComponentHealth{
				Status:  "unhealthy",
				Message: "tesseract binary not found on PATH",
			}
		}
		return ComponentHealth{
			Status:  "healthy",
			Message: "tesseract binary is available",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Message: "Recognition engine configured: " + h.engineName,
	}
}

// checkWorkDirHealth verifies the artifact directory is writable.
func (h *HealthHandlers) checkWorkDirHealth() ComponentHealth {
	health := ComponentHealth{
		Status:  "unhealthy",
		Message: "Working directory is not writable",
	}

	probe := filepath.Join(h.workDir, "health_"+uuid.New().String()[:8])
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return health
	}
	os.Remove(probe)

	health.Status = "healthy"
	health.Message = "Working directory is writable"
	return health
}
