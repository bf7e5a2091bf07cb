package securefs

import (
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// windowsMaxPath is the legacy MAX_PATH limit.
	windowsMaxPath = 260

	extendedPrefix    = `\\?\`
	extendedUNCPrefix = `\\?\UNC\`
)

// ForPlatform prepares path for an OS call. On Windows the path is made
// absolute and, when longer than MAX_PATH, given the extended-length
// prefix. Everywhere else it is returned unchanged.
func ForPlatform(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}
	full, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return prefixLongPath(full)
}

// prefixLongPath adds the extended-length marker to an absolute Windows
// path that exceeds MAX_PATH. UNC paths use the \\?\UNC\ form.
func prefixLongPath(full string) string {
	if len(full) <= windowsMaxPath || strings.HasPrefix(full, extendedPrefix) {
		return full
	}
	if strings.HasPrefix(full, `\\`) {
		return extendedUNCPrefix + strings.TrimPrefix(full, `\\`)
	}
	return extendedPrefix + full
}

// stripLongPath removes the extended-length marker so paths can be
// compared against the configured base.
func stripLongPath(path string) string {
	if rest, ok := strings.CutPrefix(path, extendedUNCPrefix); ok {
		return `\\` + rest
	}
	return strings.TrimPrefix(path, extendedPrefix)
}
