package httpserver

import "github.com/vtttools/mediastore/internal/logger"

// GetLogger returns the HTTP server logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("httpserver")
}
