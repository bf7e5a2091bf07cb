// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/vtttools/mediastore/internal/logger"
)

// Default values shared with the command line flags.
const (
	DefaultAssetsRoot   = "data/assets"
	DefaultEntitiesRoot = "data/images"
	DefaultGenre        = "Fantasy"
	DefaultListen       = "127.0.0.1:8088"
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("storage.assets.root", DefaultAssetsRoot)
	v.SetDefault("storage.entities.root", DefaultEntitiesRoot)
	v.SetDefault("storage.entities.strict", true)
	v.SetDefault("storage.entities.defaultgenre", DefaultGenre)

	v.SetDefault("logging.default_level", logger.DefaultLogLevel)
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", logger.DefaultLogPath)

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")
	v.SetDefault("telemetry.dsn_file", "")

	v.SetDefault("server.listen", DefaultListen)
	v.SetDefault("server.readtimeout", 10*time.Second)
	v.SetDefault("server.writetimeout", 30*time.Second)
	v.SetDefault("server.shutdowntimeout", 5*time.Second)
}
