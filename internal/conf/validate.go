// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/sanitize"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateStorageSettings(&settings.Storage); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateLoggingSettings(&settings.Logging); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateTelemetrySettings(&settings.Telemetry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateServerSettings(&settings.Server); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "validate").
			Build()
	}
	return nil
}

func validateStorageSettings(s *StorageSettings) error {
	var problems []string

	if strings.TrimSpace(s.Assets.Root) == "" {
		problems = append(problems, "storage.assets.root must not be empty")
	}
	if strings.TrimSpace(s.Entities.Root) == "" {
		problems = append(problems, "storage.entities.root must not be empty")
	}
	if len(problems) == 0 && sameDir(s.Assets.Root, s.Entities.Root) {
		problems = append(problems, "storage.assets.root and storage.entities.root must differ")
	}
	if sanitize.Folder(s.Entities.DefaultGenre, "") == "" {
		problems = append(problems, fmt.Sprintf("storage.entities.defaultgenre %q has no usable characters", s.Entities.DefaultGenre))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func validateLoggingSettings(l *logger.LoggingConfig) error {
	if l.DefaultLevel != "" && !logger.ValidLevel(l.DefaultLevel) {
		return fmt.Errorf("logging.default_level %q is not a valid level", l.DefaultLevel)
	}
	if l.Console != nil && l.Console.Level != "" && !logger.ValidLevel(l.Console.Level) {
		return fmt.Errorf("logging.console.level %q is not a valid level", l.Console.Level)
	}
	if l.FileOutput != nil && l.FileOutput.Enabled && strings.TrimSpace(l.FileOutput.Path) == "" {
		return fmt.Errorf("logging.file_output.path is required when file output is enabled")
	}
	for module, level := range l.ModuleLevels {
		if !logger.ValidLevel(level) {
			return fmt.Errorf("logging.module_levels.%s %q is not a valid level", module, level)
		}
	}
	return nil
}

func validateTelemetrySettings(t *TelemetrySettings) error {
	if !t.Enabled {
		return nil
	}
	if t.DSNFile != "" {
		return nil
	}
	if t.DSN == "" {
		return fmt.Errorf("telemetry.dsn is required when telemetry is enabled")
	}
	// References are checked once resolved.
	if strings.Contains(t.DSN, "${") {
		return nil
	}
	if err := validateEnvDSN(t.DSN); err != nil {
		return fmt.Errorf("telemetry.dsn: %w", err)
	}
	return nil
}

func validateServerSettings(s *ServerSettings) error {
	if err := validateListenAddress(s.Listen); err != nil {
		return fmt.Errorf("server.listen: %w", err)
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	return nil
}

// validateListenAddress accepts host:port pairs where the host may be
// empty and the port is numeric.
func validateListenAddress(value string) error {
	_, port, err := net.SplitHostPort(value)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", value, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q: must be between 0 and 65535", port)
	}
	return nil
}
