// Package logging provides an optional debug log file, recording
// the details of every conversion without cluttering the console output.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	debugLogger *log.Logger
	logFile     io.Closer
	mu          sync.Mutex
)

// SetupLogger opens (or creates) the log file at logFilePath and directs the debug output to it.
// Calling it again while a log file is open is a no-op.
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		return nil
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	debugLogger = log.New(f, "", log.LstdFlags)
	debugLogger.Printf("--- imgtensor debug log started at %s ---", time.Now().Format(time.RFC3339))

	return nil
}

// SetOutput directs the debug output to w. A nil writer disables debug logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if w == nil {
		debugLogger = nil
		return
	}
	debugLogger = log.New(w, "", 0)
}

// CloseLogger closes the log file opened by SetupLogger.
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		debugLogger.Printf("--- imgtensor debug log closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
	}
	debugLogger = nil
}

// DebugLog logs a message if debug logging is enabled.
func DebugLog(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf(format, args...)
	}
}

// LogError logs an error message if debug logging is enabled.
func LogError(format string, args ...any) {
	DebugLog("ERROR: "+format, args...)
}

// LogImageProcessed records the outcome of an image conversion.
func LogImageProcessed(path, output string, success bool, errMsg string) {
	if success {
		DebugLog("PROCESSED: %s -> %s", path, output)
		return
	}
	DebugLog("FAILED: %s - Error: %s", path, errMsg)
}
