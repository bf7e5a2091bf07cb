// Package securefs confines filesystem access to a single base directory
// and adapts paths for platform length limits before every OS call.
package securefs

import (
	"github.com/vtttools/mediastore/internal/errors"
)

// Sentinel errors for the securefs package.
var (
	// ErrPathTraversal indicates a path that resolves outside the base directory.
	ErrPathTraversal = errors.NewStd("security error: path attempts to traverse outside base directory")

	// ErrInvalidPath indicates an unusable path specification, such as an empty base.
	ErrInvalidPath = errors.NewStd("security error: invalid path specification")
)
