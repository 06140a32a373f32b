package utils

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// SetupLogging initializes logging to a dated file under ./logs and returns
// the file so the caller can mirror request logs to it.
func SetupLogging() *os.File {
	logDir := "./logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	file, err := openLogFile(logDir)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime)
	log.Printf("Logging to file: %s", file.Name())

	go rotateDaily(logDir, file)

	return file
}

func openLogFile(logDir string) (*os.File, error) {
	name := filepath.Join(logDir, time.Now().Format("2006-01-02")+".log")
	return os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// rotateDaily switches the standard logger to a fresh dated file at every
// midnight.
func rotateDaily(logDir string, current *os.File) {
	for {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
		time.Sleep(time.Until(midnight))

		file, err := openLogFile(logDir)
		if err != nil {
			// Can't log to the file, so report on stdout and keep the old one.
			log.New(os.Stdout, "", log.Ldate|log.Ltime).Printf("Failed to rotate log file: %v", err)
			continue
		}

		log.SetOutput(file)
		log.Printf("Rotated log file to: %s", file.Name())

		if current != nil {
			current.Close()
		}
		current = file
	}
}
