package conf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vtttools/mediastore/internal/errors"
)

// isolateConfigSearch points the default search paths at empty directories.
func isolateConfigSearch(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mediastore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolateConfigSearch(t)

	settings, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultAssetsRoot, settings.Storage.Assets.Root)
	assert.Equal(t, DefaultEntitiesRoot, settings.Storage.Entities.Root)
	assert.True(t, settings.Storage.Entities.Strict)
	assert.Equal(t, DefaultGenre, settings.Storage.Entities.DefaultGenre)
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.False(t, settings.Metrics.Enabled)
	assert.False(t, settings.Telemetry.Enabled)
	assert.Equal(t, DefaultListen, settings.Server.Listen)
	assert.Equal(t, 10*time.Second, settings.Server.ReadTimeout)
}

func TestLoadSearchesWorkingDirectory(t *testing.T) {
	isolateConfigSearch(t)
	require.NoError(t, os.WriteFile("mediastore.yaml", []byte("storage:\n  assets:\n    root: found/here\n"), 0o600))

	settings, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "found/here", settings.Storage.Assets.Root)
	assert.Equal(t, DefaultEntitiesRoot, settings.Storage.Entities.Root)
}

func TestLoadConfigFile(t *testing.T) {
	isolateConfigSearch(t)
	path := writeConfig(t, `
storage:
  assets:
    root: /srv/media/assets
  entities:
    root: /srv/media/images
    strict: false
    defaultgenre: Sci Fi
logging:
  default_level: debug
  module_levels:
    assetstore: trace
metrics:
  enabled: true
server:
  listen: ":9000"
  readtimeout: 15s
`)

	settings, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/media/assets", settings.Storage.Assets.Root)
	assert.Equal(t, "/srv/media/images", settings.Storage.Entities.Root)
	assert.False(t, settings.Storage.Entities.Strict)
	assert.Equal(t, "Sci Fi", settings.Storage.Entities.DefaultGenre)
	assert.Equal(t, "debug", settings.Logging.DefaultLevel)
	assert.Equal(t, "trace", settings.Logging.ModuleLevels["assetstore"])
	assert.True(t, settings.Metrics.Enabled)
	assert.Equal(t, ":9000", settings.Server.Listen)
	assert.Equal(t, 15*time.Second, settings.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, settings.Server.WriteTimeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolateConfigSearch(t)

	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestLoadMalformedFile(t *testing.T) {
	isolateConfigSearch(t)
	path := writeConfig(t, "storage: [unclosed\n")

	_, err := Load(NewViper(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestEnvironmentOverrides(t *testing.T) {
	isolateConfigSearch(t)
	path := writeConfig(t, "storage:\n  assets:\n    root: from/file\n")

	t.Setenv("MEDIASTORE_ASSETS_ROOT", "/from/env")
	t.Setenv("MEDIASTORE_ENTITIES_STRICT", "false")
	t.Setenv("MEDIASTORE_LOG_LEVEL", "warn")
	t.Setenv("MEDIASTORE_LISTEN", "0.0.0.0:8181")

	settings, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", settings.Storage.Assets.Root)
	assert.False(t, settings.Storage.Entities.Strict)
	assert.Equal(t, "warn", settings.Logging.DefaultLevel)
	assert.Equal(t, "0.0.0.0:8181", settings.Server.Listen)
}

func TestEnvironmentValidation(t *testing.T) {
	isolateConfigSearch(t)
	t.Setenv("MEDIASTORE_ENTITIES_STRICT", "sometimes")
	t.Setenv("MEDIASTORE_LOG_LEVEL", "loud")

	_, err := Load(NewViper(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEDIASTORE_ENTITIES_STRICT")
	assert.Contains(t, err.Error(), "MEDIASTORE_LOG_LEVEL")
}

func TestFlagsOverrideFile(t *testing.T) {
	isolateConfigSearch(t)
	path := writeConfig(t, "storage:\n  entities:\n    root: from/file\n")

	v := NewViper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("entities-root", "", "")
	require.NoError(t, v.BindPFlag("storage.entities.root", flags.Lookup("entities-root")))
	require.NoError(t, flags.Parse([]string{"--entities-root", "from/flag"}))

	settings, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "from/flag", settings.Storage.Entities.Root)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	isolateConfigSearch(t)

	settings, err := Load(NewViper(), "")
	require.NoError(t, err)
	settings.Storage.Assets.Root = "/custom/assets"

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, settings))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "storage")
	assert.Contains(t, buf.String(), "root: /custom/assets")

	path := filepath.Join(t.TempDir(), "nested", "mediastore.yaml")
	require.NoError(t, SaveYAMLConfig(path, settings))

	reloaded, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, settings.Storage, reloaded.Storage)
	assert.Equal(t, settings.Server, reloaded.Server)
}
