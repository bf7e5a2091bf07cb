package conf

import "github.com/vtttools/mediastore/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// The logger is fetched from the global logger each time so it follows
// the central logger installed at startup.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
