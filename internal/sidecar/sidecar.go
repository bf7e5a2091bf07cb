// Package sidecar stores the information path normalization destroys,
// chiefly the original display name, in a small JSON file next to the data.
//
// Reads are best-effort: a missing, malformed or incomplete sidecar yields
// the caller's fallback. Genuine I/O failures are still returned.
package sidecar

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/securefs"
)

// File names used by the stores.
const (
	AssetFileName    = ".asset.json"
	MetadataFileName = "metadata.json"
)

// NameKey is the field holding the original display name.
const NameKey = "Name"

// GetLogger returns the sidecar package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("sidecar")
}

type nameDocument struct {
	Name string `json:"Name"`
}

// SaveName writes {"Name": name} to dir/fileName, replacing any existing
// sidecar.
func SaveName(root *securefs.Root, dir, fileName, name string) error {
	data, err := json.MarshalIndent(nameDocument{Name: name}, "", "  ")
	if err != nil {
		return err
	}
	return root.WriteFile(filepath.Join(dir, fileName), data, securefs.FilePerm)
}

// EnsureName writes a name sidecar only when dir/fileName does not exist.
func EnsureName(root *securefs.Root, dir, fileName, name string) (bool, error) {
	exists, err := root.Exists(filepath.Join(dir, fileName))
	if err != nil || exists {
		return false, err
	}
	return true, SaveName(root, dir, fileName, name)
}

// LoadName returns the display name stored in dir/fileName, or fallback
// when the sidecar is missing, is not a JSON object, or has no string Name.
func LoadName(root *securefs.Root, dir, fileName, fallback string) (string, error) {
	data, err := root.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		if securefs.IsNotFound(err) {
			return fallback, nil
		}
		return "", err
	}

	obj, err := jason.NewObjectFromBytes(data)
	if err != nil {
		GetLogger().Debug("malformed sidecar, using directory name",
			logger.String("file", fileName),
			logger.String("fallback", fallback),
			logger.Error(err))
		return fallback, nil
	}

	if name, ok := lookupName(obj); ok {
		return name, nil
	}

	GetLogger().Debug("sidecar has no name field, using directory name",
		logger.String("file", fileName),
		logger.String("fallback", fallback))
	return fallback, nil
}

// lookupName finds a non-empty string Name, preferring the exact key.
func lookupName(obj *jason.Object) (string, bool) {
	if name, err := obj.GetString(NameKey); err == nil && name != "" {
		return name, true
	}
	for key, value := range obj.Map() {
		if !strings.EqualFold(key, NameKey) {
			continue
		}
		if name, err := value.String(); err == nil && name != "" {
			return name, true
		}
	}
	return "", false
}

// ValidateRaw reports whether payload is a JSON object.
func ValidateRaw(payload string) error {
	if _, err := jason.NewObjectFromBytes([]byte(payload)); err != nil {
		return errors.InvalidArgument("metadata", "must be a JSON object: %v", err)
	}
	return nil
}

// SaveRawKeepingName writes a caller-supplied JSON object verbatim, except
// that when payload carries no Name and the sidecar it replaces does, that
// name is added to the written object. It returns what was written.
func SaveRawKeepingName(root *securefs.Root, dir, fileName, payload string) (string, error) {
	obj, err := jason.NewObjectFromBytes([]byte(payload))
	if err != nil {
		return "", errors.InvalidArgument("metadata", "must be a JSON object: %v", err)
	}

	if _, ok := lookupName(obj); !ok {
		previous, err := LoadName(root, dir, fileName, "")
		if err != nil {
			return "", err
		}
		if previous != "" {
			if payload, err = withName(payload, previous); err != nil {
				return "", err
			}
		}
	}

	if err := root.WriteFile(filepath.Join(dir, fileName), []byte(payload), securefs.FilePerm); err != nil {
		return "", err
	}
	return payload, nil
}

// withName sets the Name field of a JSON object, keeping every other field
// as encoded.
func withName(payload, name string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}
	encoded, err := json.Marshal(name)
	if err != nil {
		return "", err
	}
	fields[NameKey] = encoded

	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

// LoadRaw returns the sidecar contents verbatim. found is false when the
// file does not exist.
func LoadRaw(root *securefs.Root, dir, fileName string) (payload string, found bool, err error) {
	data, err := root.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		if securefs.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", fileName, err)
	}
	return string(data), true, nil
}
