// env.go - Environment variable configuration and validation for mediastore
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/vtttools/mediastore/internal/logger"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// Storage
		{"storage.assets.root", "MEDIASTORE_ASSETS_ROOT", validateEnvPath},
		{"storage.entities.root", "MEDIASTORE_ENTITIES_ROOT", validateEnvPath},
		{"storage.entities.strict", "MEDIASTORE_ENTITIES_STRICT", validateEnvBool},
		{"storage.entities.defaultgenre", "MEDIASTORE_DEFAULT_GENRE", nil},

		// Logging
		{"logging.default_level", "MEDIASTORE_LOG_LEVEL", validateEnvLogLevel},

		// Observability
		{"metrics.enabled", "MEDIASTORE_METRICS_ENABLED", validateEnvBool},
		{"telemetry.enabled", "MEDIASTORE_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.dsn", "MEDIASTORE_TELEMETRY_DSN", validateEnvDSN},
		{"telemetry.dsn_file", "MEDIASTORE_TELEMETRY_DSN_FILE", validateEnvPath},

		// HTTP server
		{"server.listen", "MEDIASTORE_LISTEN", validateListenAddress},
	}
}

// bindEnvVars binds every environment variable to v and validates the
// values that are set.
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f, TRUE/FALSE, T/F", value)
	}
	return nil
}

func validateEnvPath(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("path must not be blank")
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("path must not contain NUL bytes")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	if !logger.ValidLevel(value) {
		return fmt.Errorf("must be one of: trace, debug, info, warn, error")
	}
	return nil
}

func validateEnvDSN(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid DSN: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("DSN must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("DSN must include a host")
	}
	return nil
}
