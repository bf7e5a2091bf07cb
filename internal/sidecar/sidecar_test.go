package sidecar

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/securefs"
)

func setupRoot(t *testing.T) (*securefs.Root, string) {
	t.Helper()
	base := t.TempDir()
	root, err := securefs.New(base)
	require.NoError(t, err)
	return root, base
}

func TestSaveAndLoadName(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	require.NoError(t, SaveName(root, base, AssetFileName, "Fire, Water, and Earth"))

	raw, err := os.ReadFile(filepath.Join(base, AssetFileName))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Name":"Fire, Water, and Earth"}`, string(raw))

	name, err := LoadName(root, base, AssetFileName, "fire_water_and_earth")
	require.NoError(t, err)
	assert.Equal(t, "Fire, Water, and Earth", name)
}

func TestLoadNameFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content *string
		want    string
	}{
		{"missing file", nil, "goblin"},
		{"malformed json", strPtr("{not json"), "goblin"},
		{"array document", strPtr(`["Goblin"]`), "goblin"},
		{"missing field", strPtr(`{"Other":"x"}`), "goblin"},
		{"non-string name", strPtr(`{"Name":42}`), "goblin"},
		{"empty name", strPtr(`{"Name":""}`), "goblin"},
		{"lower-case key", strPtr(`{"name":"Goblin King"}`), "Goblin King"},
		{"extra fields", strPtr(`{"Name":"Goblin","Pose":"idle"}`), "Goblin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root, base := setupRoot(t)
			if tt.content != nil {
				require.NoError(t, os.WriteFile(filepath.Join(base, AssetFileName), []byte(*tt.content), 0o600))
			}

			got, err := LoadName(root, base, AssetFileName, "goblin")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadNamePropagatesIOErrors(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	t.Parallel()
	root, base := setupRoot(t)

	path := filepath.Join(base, AssetFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"Name":"Goblin"}`), 0o000))

	_, err := LoadName(root, base, AssetFileName, "goblin")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestEnsureName(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	written, err := EnsureName(root, base, MetadataFileName, "Goblin")
	require.NoError(t, err)
	assert.True(t, written)

	written, err = EnsureName(root, base, MetadataFileName, "Other")
	require.NoError(t, err)
	assert.False(t, written)

	name, err := LoadName(root, base, MetadataFileName, "")
	require.NoError(t, err)
	assert.Equal(t, "Goblin", name)
}

func TestSaveAndLoadRaw(t *testing.T) {
	t.Parallel()
	root, base := setupRoot(t)

	_, found, err := LoadRaw(root, base, MetadataFileName)
	require.NoError(t, err)
	assert.False(t, found)

	payload := `{"test": "data"}`
	written, err := SaveRawKeepingName(root, base, MetadataFileName, payload)
	require.NoError(t, err)
	assert.Equal(t, payload, written)

	got, found, err := LoadRaw(root, base, MetadataFileName)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload, got)

	_, err = SaveRawKeepingName(root, base, MetadataFileName, `[1,2]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestSaveRawKeepsRecordedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		previous string
		payload  string
		wantName string
		verbatim bool
	}{
		{name: "name carried over", previous: `{"Name":"Goblin Chief"}`, payload: `{"pose":"idle"}`, wantName: "Goblin Chief"},
		{name: "payload name wins", previous: `{"Name":"Goblin Chief"}`, payload: `{"Name":"Hobgoblin"}`, wantName: "Hobgoblin", verbatim: true},
		{name: "no previous sidecar", payload: `{"pose":"idle"}`, verbatim: true},
		{name: "previous without name", previous: `{"pose":"run"}`, payload: `{"pose":"idle"}`, verbatim: true},
		{name: "malformed previous", previous: `{broken`, payload: `{"pose":"idle"}`, verbatim: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root, base := setupRoot(t)
			if tt.previous != "" {
				require.NoError(t, os.WriteFile(filepath.Join(base, MetadataFileName), []byte(tt.previous), 0o644))
			}

			written, err := SaveRawKeepingName(root, base, MetadataFileName, tt.payload)
			require.NoError(t, err)
			if tt.verbatim {
				assert.Equal(t, tt.payload, written)
			} else {
				assert.JSONEq(t, `{"Name":"Goblin Chief","pose":"idle"}`, written)
			}

			stored, err := os.ReadFile(filepath.Join(base, MetadataFileName))
			require.NoError(t, err)
			assert.Equal(t, written, string(stored))

			name, err := LoadName(root, base, MetadataFileName, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func strPtr(s string) *string { return &s }
