package securefs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtttools/mediastore/internal/errors"
)

// setupRoot creates a Root over a fresh temporary directory.
func setupRoot(t *testing.T) (root *Root, base string) {
	t.Helper()

	base = t.TempDir()
	root, err := New(base)
	require.NoError(t, err, "Failed to create Root")

	return root, base
}

func TestNewDoesNotCreateBase(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "missing")
	root, err := New(base)
	require.NoError(t, err)

	_, statErr := os.Stat(base)
	assert.True(t, os.IsNotExist(statErr), "base must not be created by New")

	exists, err := root.Exists(base)
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := root.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewRejectsEmptyBase(t *testing.T) {
	t.Parallel()

	_, err := New("  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestJoin(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	p, err := root.Join("creature", "humanoid", "", "goblin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "creature", "humanoid", "goblin"), p)

	_, err = root.Join("..", "..", "etc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathTraversal)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	p, err = root.Join("a", "..", "b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "b"), p)
}

func TestWriteFileCreatesAndReplaces(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	dir := filepath.Join(base, "kind", "name")
	require.NoError(t, root.MkdirAll(dir))
	require.NoError(t, root.MkdirAll(dir), "MkdirAll must be idempotent")

	target := filepath.Join(dir, "topdown.png")
	require.NoError(t, root.WriteFile(target, []byte("first"), FilePerm))
	require.NoError(t, root.WriteFile(target, []byte("second"), FilePerm))

	data, err := root.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	entries, err := root.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "topdown.png", entries[0].Name())
}

func TestWriteFileMissingParent(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	err := root.WriteFile(filepath.Join(base, "nope", "file.md"), []byte("x"), FilePerm)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestWriteFileRejectsOutsideBase(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	outside := filepath.Join(filepath.Dir(base), "escape.txt")
	err := root.WriteFile(outside, []byte("x"), FilePerm)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, statErr := os.Stat(outside)
	assert.True(t, os.IsNotExist(statErr))

	err = root.WriteFile(base, []byte("x"), FilePerm)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestProbes(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	file := filepath.Join(base, "a.png")
	require.NoError(t, os.WriteFile(file, []byte("png"), 0o600))

	isFile, err := root.IsFile(file)
	require.NoError(t, err)
	assert.True(t, isFile)

	isDir, err := root.IsDir(file)
	require.NoError(t, err)
	assert.False(t, isDir)

	isDir, err = root.IsDir(base)
	require.NoError(t, err)
	assert.True(t, isDir)

	// A path below a regular file is "not found", not an error.
	exists, err := root.Exists(filepath.Join(file, "child"))
	require.NoError(t, err)
	assert.False(t, exists)

	info, found, err := root.Stat(file)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(3), info.Size())
}

func TestRelativePathsResolveUnderBase(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	require.NoError(t, root.MkdirAll("creature/humanoid"))
	isDir, err := root.IsDir(filepath.Join(base, "creature", "humanoid"))
	require.NoError(t, err)
	assert.True(t, isDir)

	rel, err := root.Rel(filepath.Join(base, "creature", "humanoid"))
	require.NoError(t, err)
	assert.Equal(t, "creature/humanoid", rel)

	_, err = root.Rel("../outside")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestSymlinkEscapeRejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevated privileges on Windows")
	}
	t.Parallel()
	root, base := setupRoot(t)

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("s"), 0o600))
	require.NoError(t, os.Symlink(outside, filepath.Join(base, "link")))

	_, err := root.ReadFile(filepath.Join(base, "link", "secret"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestPrefixLongPath(t *testing.T) {
	t.Parallel()

	long := `C:\` + strings.Repeat(`segment\`, 40) + "topdown.png"
	require.Greater(t, len(long), windowsMaxPath)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short path unchanged", `C:\assets\goblin\topdown.png`, `C:\assets\goblin\topdown.png`},
		{"long path prefixed", long, `\\?\` + long},
		{"already prefixed", `\\?\` + long, `\\?\` + long},
		{"unc path", `\\server\share\` + long[3:], `\\?\UNC\server\share\` + long[3:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, prefixLongPath(tt.in))
		})
	}
}

func TestStripLongPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `C:\a`, stripLongPath(`\\?\C:\a`))
	assert.Equal(t, `\\srv\share\a`, stripLongPath(`\\?\UNC\srv\share\a`))
	assert.Equal(t, "/srv/a", stripLongPath("/srv/a"))
}

func TestForPlatformIdentityOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("identity only holds off Windows")
	}
	t.Parallel()

	long := "/" + strings.Repeat("segment/", 60) + "topdown.png"
	assert.Equal(t, long, ForPlatform(long))
	assert.Equal(t, "relative/path", ForPlatform("relative/path"))
}
