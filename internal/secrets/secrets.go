// Package secrets resolves credentials such as the telemetry DSN from
// mounted secret files or environment variable references, so they need
// not be written into the config file.
//
// Secret values are never logged.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
)

// maxSecretFileSize bounds secret file reads. Secrets are tokens, not
// documents.
const maxSecretFileSize = 64 * 1024

// ExpandString replaces ${VAR} and ${VAR:-fallback} references with the
// environment. A reference to an unset variable without a fallback is an
// error naming the variable, never its value.
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", secretError(
			fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", ")),
			"expand")
	}
	return expanded, nil
}

// ReadFile reads a secret from a regular file such as /run/secrets/<name>.
// Trailing newlines are trimmed. Files readable by group or others are
// accepted with a warning.
func ReadFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.InvalidArgument("path", "secret file path is empty")
	}
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf("secret file not found: %s", cleanPath).
				Component("secrets").
				Category(errors.CategoryNotFound).
				Context("operation", "read_file").
				Build()
		}
		return "", secretError(fmt.Errorf("stat secret file %s: %w", cleanPath, err), "read_file")
	}
	if !info.Mode().IsRegular() {
		return "", secretError(fmt.Errorf("secret path is not a regular file: %s", cleanPath), "read_file")
	}
	if info.Size() > maxSecretFileSize {
		return "", secretError(fmt.Errorf("secret file too large (max %d bytes): %s", maxSecretFileSize, cleanPath), "read_file")
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		GetLogger().Warn("secret file is readable by group or others",
			logger.String("path", cleanPath),
			logger.String("mode", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(cleanPath) //nolint:gosec // operator-supplied secret path
	if err != nil {
		return "", secretError(fmt.Errorf("read secret file %s: %w", cleanPath, err), "read_file")
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", secretError(fmt.Errorf("secret file is empty: %s", cleanPath), "read_file")
	}
	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded. Both empty yields "".
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return ExpandString(value)
}

// GetLogger returns the secrets module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("secrets")
}

func secretError(err error, operation string) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Context("operation", operation).
		Build()
}
