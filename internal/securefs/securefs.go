package securefs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
)

// Default permissions for directories and files created under a Root.
const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)

// GetLogger returns the securefs package logger scoped to the securefs module.
// The logger is fetched from the global logger each time so that it follows
// the centralized logger once it has been configured.
func GetLogger() logger.Logger {
	return logger.Global().Module("securefs")
}

// Root restricts filesystem operations to a base directory.
//
// Unlike os.Root it does not hold the base open and does not require the
// base to exist: a missing base behaves as an empty tree for reads and is
// created on the first write. Containment is checked lexically for every
// path and, for paths that exist, again after resolving symlinks.
type Root struct {
	base string
}

// New returns a Root for baseDir. The directory is not created.
func New(baseDir string) (*Root, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New(fmt.Errorf("%w: base directory is empty", ErrInvalidPath)).
			Component("securefs").
			Category(errors.CategoryValidation).
			Build()
	}

	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to resolve base path: %w", err)).
			Component("securefs").
			Category(errors.CategoryFileIO).
			Build()
	}

	return &Root{base: filepath.Clean(absPath)}, nil
}

// Base returns the absolute base directory.
func (r *Root) Base() string {
	return r.base
}

// Join joins segments onto the base and verifies the result stays within it.
// Empty segments are skipped, so an absent subtype collapses its level.
func (r *Root) Join(segments ...string) (string, error) {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, r.base)
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}

	joined := filepath.Join(parts...)
	if !isPathPrefix(r.base, joined) {
		return "", traversalError(joined)
	}
	return joined, nil
}

// Rel returns path relative to the base, using forward slashes.
func (r *Root) Rel(path string) (string, error) {
	clean, err := r.check(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.base, clean)
	if err != nil {
		return "", fmt.Errorf("failed to make path relative: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// isPathPrefix checks if target is within or equal to base
func isPathPrefix(absBase, absTarget string) bool {
	return strings.HasPrefix(absTarget, absBase+string(filepath.Separator)) || absTarget == absBase
}

// resolveSymlinks returns path with symlinks evaluated, or path itself when
// it cannot be resolved (e.g. it does not exist yet).
func resolveSymlinks(path string) string {
	resolved, err := filepath.EvalSymlinks(ForPlatform(path))
	if err != nil {
		return path
	}
	return filepath.Clean(stripLongPath(resolved))
}

// check cleans path and verifies it lies within the base, both lexically
// and after symlink resolution.
func (r *Root) check(path string) (string, error) {
	clean := filepath.Clean(stripLongPath(path))
	if !filepath.IsAbs(clean) {
		clean = filepath.Join(r.base, clean)
	}
	if !isPathPrefix(r.base, clean) {
		return "", traversalError(clean)
	}

	if resolved := resolveSymlinks(clean); resolved != clean {
		if !isPathPrefix(resolveSymlinks(r.base), resolved) {
			return "", traversalError(clean)
		}
	}
	return clean, nil
}

func traversalError(path string) error {
	return errors.New(fmt.Errorf("%w: %s", ErrPathTraversal, filepath.Base(path))).
		Component("securefs").
		Category(errors.CategoryValidation).
		Build()
}

// IsNotFound reports whether err means the path, or one of its parents,
// does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// Stat returns file info for path. found is false, with a nil error, when
// the path does not exist.
func (r *Root) Stat(path string) (info fs.FileInfo, found bool, err error) {
	clean, err := r.check(path)
	if err != nil {
		return nil, false, err
	}

	info, err = os.Stat(ForPlatform(clean))
	switch {
	case err == nil:
		return info, true, nil
	case IsNotFound(err):
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// Exists reports whether path exists.
func (r *Root) Exists(path string) (bool, error) {
	_, found, err := r.Stat(path)
	return found, err
}

// IsDir reports whether path exists and is a directory.
func (r *Root) IsDir(path string) (bool, error) {
	info, found, err := r.Stat(path)
	if err != nil || !found {
		return false, err
	}
	return info.IsDir(), nil
}

// IsFile reports whether path exists and is a regular file.
func (r *Root) IsFile(path string) (bool, error) {
	info, found, err := r.Stat(path)
	if err != nil || !found {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// ReadDir lists a directory sorted by name. A missing directory yields an
// empty listing rather than an error.
func (r *Root) ReadDir(path string) ([]fs.DirEntry, error) {
	clean, err := r.check(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ForPlatform(clean))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

// ReadFile reads a file. Unlike the probes, a missing file is returned as
// an error wrapping fs.ErrNotExist so callers can choose their fallback.
func (r *Root) ReadFile(path string) ([]byte, error) {
	clean, err := r.check(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(ForPlatform(clean)) //nolint:gosec // path confined by check
}

// MkdirAll creates path and its parents. It is idempotent.
func (r *Root) MkdirAll(path string) error {
	clean, err := r.check(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(ForPlatform(clean), DirPerm)
}

// WriteFile writes data to a uniquely named temporary file next to path and
// renames it into place, so readers never observe a partially written file.
// Concurrent writers to the same path resolve as last-writer-wins.
func (r *Root) WriteFile(path string, data []byte, perm os.FileMode) error {
	clean, err := r.check(path)
	if err != nil {
		return err
	}
	if clean == r.base {
		return errors.New(fmt.Errorf("%w: cannot write to the base directory", ErrInvalidPath)).
			Component("securefs").
			Category(errors.CategoryValidation).
			Build()
	}

	target := ForPlatform(clean)
	tmp := ForPlatform(filepath.Join(filepath.Dir(clean), "."+filepath.Base(clean)+"."+uuid.NewString()+".tmp"))

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !IsNotFound(rmErr) {
			GetLogger().Warn("failed to remove temporary file",
				logger.String("file", filepath.Base(tmp)),
				logger.Error(rmErr))
		}
		return err
	}
	return nil
}
