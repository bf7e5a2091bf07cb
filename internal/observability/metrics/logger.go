package metrics

import "github.com/vtttools/mediastore/internal/logger"

func getLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
