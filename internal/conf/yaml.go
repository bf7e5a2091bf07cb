package conf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes settings to w as YAML.
func WriteYAML(w io.Writer, settings *Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return enc.Close()
}

// SaveYAMLConfig writes settings to configPath, replacing any existing
// file. It overwrites the file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return configError(err, "create-config-dir")
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), ConfigName+"-*.yaml")
	if err != nil {
		return configError(err, "create-temp-config")
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if err := WriteYAML(tempFile, settings); err != nil {
		tempFile.Close()
		return configError(err, "write-config")
	}
	if err := tempFile.Close(); err != nil {
		return configError(err, "write-config")
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return configError(err, "replace-config")
	}
	return nil
}
