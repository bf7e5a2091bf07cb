package observability

import "github.com/vtttools/mediastore/internal/logger"

// GetLogger returns the metrics module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
