package config

import (
	"os"
	"strings"
	"time"
)

// GetEnv retrieves environment variables with defaults
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvDuration retrieves a duration environment variable with a default
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// GetPort returns the HTTP listen address
func GetPort() string {
	return ":" + GetEnv("PORT", "3001")
}

// GetUploadDir returns the working directory for uploads and intermediate
// artifacts
func GetUploadDir() string {
	return GetEnv("UPLOAD_DIR", "files/uploads")
}

// GetGotenbergURL returns the base URL of the document conversion service
func GetGotenbergURL() string {
	return GetEnv("GOTENBERG_URL", "http://gotenberg:3000")
}

// GetOCREngine returns the selected recognition engine
// (tesseract, vision, gemini, or openai)
func GetOCREngine() string {
	return GetEnv("OCR_ENGINE", "tesseract")
}

// GetOCRLanguages returns the tesseract language set
func GetOCRLanguages() string {
	return GetEnv("OCR_LANGUAGES", "ukr+rus+eng")
}

// GetVisionLanguageHints returns the Vision API language hints
func GetVisionLanguageHints() []string {
	return strings.Split(GetEnv("VISION_LANGUAGE_HINTS", "uk,ru,en"), ",")
}

// GetPageTimeout returns the per-page recognition timeout
func GetPageTimeout() time.Duration {
	return GetEnvDuration("OCR_PAGE_TIMEOUT", 30*time.Second)
}

// GetConvertTimeout returns the document conversion timeout
func GetConvertTimeout() time.Duration {
	return GetEnvDuration("CONVERT_TIMEOUT", 60*time.Second)
}

// GetRequestTimeout returns the whole-request processing timeout
func GetRequestTimeout() time.Duration {
	return GetEnvDuration("REQUEST_TIMEOUT", 5*time.Minute)
}

// GetJobRetention returns how long finished or stuck jobs are kept
func GetJobRetention() time.Duration {
	return GetEnvDuration("JOB_RETENTION", time.Hour)
}

// GetJobSweepInterval returns how often stale jobs are evicted
func GetJobSweepInterval() time.Duration {
	return GetEnvDuration("JOB_SWEEP_INTERVAL", 15*time.Minute)
}

// GetGeminiAPIKey returns the Gemini API key
func GetGeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// GetGeminiModel returns the Gemini model name
func GetGeminiModel() string {
	return GetEnv("GEMINI_MODEL", "gemini-2.0-flash")
}

// GetOpenAIAPIKey returns the OpenAI API key
func GetOpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// GetOpenAIModel returns the OpenAI model name
func GetOpenAIModel() string {
	return GetEnv("OPENAI_MODEL", "gpt-4o-mini")
}
