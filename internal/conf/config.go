// Package conf loads mediastore settings from a YAML file, environment
// variables and command line flags.
package conf

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
)

// ConfigName is the base name of the configuration file.
const ConfigName = "mediastore"

// Settings is the complete mediastore configuration.
type Settings struct {
	Storage   StorageSettings      `yaml:"storage" mapstructure:"storage"`
	Logging   logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Metrics   MetricsSettings      `yaml:"metrics" mapstructure:"metrics"`
	Telemetry TelemetrySettings    `yaml:"telemetry" mapstructure:"telemetry"`
	Server    ServerSettings       `yaml:"server" mapstructure:"server"`
}

// StorageSettings holds the roots of both stores.
type StorageSettings struct {
	Assets   AssetStoreSettings  `yaml:"assets" mapstructure:"assets"`
	Entities EntityStoreSettings `yaml:"entities" mapstructure:"entities"`
}

// AssetStoreSettings configures the suffix-policy asset store.
type AssetStoreSettings struct {
	Root string `yaml:"root" mapstructure:"root"` // directory holding kind folders
}

// EntityStoreSettings configures the directory-policy entity store.
type EntityStoreSettings struct {
	Root         string `yaml:"root" mapstructure:"root"`                 // directory holding genre folders
	Strict       bool   `yaml:"strict" mapstructure:"strict"`             // reject unsafe path components
	DefaultGenre string `yaml:"defaultgenre" mapstructure:"defaultgenre"` // genre for entities without one
}

// MetricsSettings toggles the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// TelemetrySettings configures optional error reporting.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"` // may reference ${VAR}
	DSNFile string `yaml:"dsn_file" mapstructure:"dsn_file"` // takes precedence over DSN
}

// ServerSettings configures the read-only HTTP API.
type ServerSettings struct {
	Listen          string        `yaml:"listen" mapstructure:"listen"`
	ReadTimeout     time.Duration `yaml:"readtimeout" mapstructure:"readtimeout"`
	WriteTimeout    time.Duration `yaml:"writetimeout" mapstructure:"writetimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdowntimeout" mapstructure:"shutdowntimeout"`
}

// NewViper returns a viper instance carrying the default configuration.
// Callers may bind command line flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaultConfig(v)
	return v
}

// Load reads configFile, or searches the default config paths when it is
// empty, applies environment overrides and validates the result. A missing
// config file in the default paths is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if err := initViper(v, configFile); err != nil {
		return nil, err
	}

	if err := bindEnvVars(v); err != nil {
		return nil, configError(err, "bind-env")
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, configError(err, "unmarshal")
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	if used := v.ConfigFileUsed(); used != "" {
		GetLogger().Debug("loaded configuration", logger.String("path", used))
	}
	return settings, nil
}

// initViper points v at configFile or the default search paths and reads it.
func initViper(v *viper.Viper, configFile string) error {
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return configError(err, "read-config")
		}
		return nil
	}

	v.SetConfigName(ConfigName)
	for _, path := range GetDefaultConfigPaths() {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Debug("no configuration file found, using defaults")
			return nil
		}
		return configError(err, "read-config")
	}
	return nil
}

// GetDefaultConfigPaths returns the directories searched for the config
// file, most specific first.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return paths
	}

	switch runtime.GOOS {
	case "windows":
		paths = append(paths, filepath.Join(homeDir, "AppData", "Roaming", ConfigName))
	default:
		paths = append(paths, filepath.Join(homeDir, ".config", ConfigName))
	}
	return paths
}

func configError(err error, operation string) error {
	return errors.New(err).
		Component("conf").
		Category(errors.CategoryConfiguration).
		Context("operation", operation).
		Build()
}
