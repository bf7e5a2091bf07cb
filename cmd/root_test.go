package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtttools/mediastore/cmd/plan"
	"github.com/vtttools/mediastore/internal/buildinfo"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

type harness struct {
	base     string
	assets   string
	entities string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	base := t.TempDir()
	return &harness{
		base:     base,
		assets:   filepath.Join(base, "assets"),
		entities: filepath.Join(base, "images"),
	}
}

// run executes the CLI with the harness roots and returns stdout.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := RootCommand(buildinfo.NewContext("1.2.3", "2026-01-01", "abc123"))

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--assets-root", h.assets,
		"--entities-root", h.entities,
		"--log-level", "error",
	}, args...))

	err := root.ExecuteContext(t.Context())
	return stdout.String(), err
}

func (h *harness) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := h.run(t, stdin, args...)
	require.NoError(t, err)
	return out
}

func (h *harness) saveDragon(t *testing.T, extra ...string) string {
	t.Helper()
	args := append([]string{"save",
		"--kind", "creature",
		"--category", "Monsters",
		"--type", "Dragons",
		"--subtype", "Chromatic",
		"--name", "Red Dragon",
	}, extra...)
	return strings.TrimSpace(h.mustRun(t, "png-bytes", append(args, "-")...))
}

func TestSaveAndList(t *testing.T) {
	h := newHarness(t)

	path := h.saveDragon(t)
	rel, err := filepath.Rel(h.assets, path)
	require.NoError(t, err)
	assert.Equal(t, "creature/monsters/dragons/chromatic/red_dragon/topdown.png", filepath.ToSlash(rel))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	out := h.mustRun(t, "", "list", "--output", "json")
	var assets []taxonomy.Asset
	require.NoError(t, json.Unmarshal([]byte(out), &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "Red Dragon", assets[0].Name)
	assert.Equal(t, taxonomy.KindCreature, assets[0].Classification.Kind)

	out = h.mustRun(t, "", "list", "--kind", "object")
	assert.Contains(t, out, "KIND")
	assert.NotContains(t, out, "Red Dragon")

	out = h.mustRun(t, "", "list")
	assert.Contains(t, out, "Red Dragon")
	assert.Contains(t, out, "chromatic")
}

func TestSaveRejectsUnknownKind(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "x", "save", "--kind", "vehicle", "--category", "a", "--type", "b", "--name", "c", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown asset kind")

	_, statErr := os.Stat(h.assets)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFind(t *testing.T) {
	h := newHarness(t)
	h.saveDragon(t)
	h.mustRun(t, "a red dragon", "save", "--kind", "creature", "--category", "Monsters",
		"--type", "Dragons", "--subtype", "Chromatic", "--name", "Red Dragon", "--prompt", "-")

	out := h.mustRun(t, "", "find", "red dragon", "-o", "yaml")
	assert.Contains(t, out, "name: Red Dragon")
	assert.Contains(t, out, "topdown.png")
	assert.Contains(t, out, "topdown.md")

	_, err := h.run(t, "", "find", "tarrasque")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPlan(t *testing.T) {
	h := newHarness(t)
	h.saveDragon(t)

	defs := filepath.Join(h.base, "definitions.json")
	require.NoError(t, os.WriteFile(defs, []byte(`[
		{"name": "Red Dragon", "classification": {"kind": "Creature", "category": "Monsters", "type": "Dragons", "subtype": "Chromatic"}},
		{"name": "Longsword", "classification": {"kind": "Object", "category": "Items", "type": "Weapons"}}
	]`), 0o600))

	out := h.mustRun(t, "", "plan", defs, "--all", "-o", "json")
	var items []plan.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 5)
	assert.Equal(t, "TopDown", items[0].ImageType)
	assert.True(t, items[0].HasImage)
	assert.False(t, items[0].HasPrompt)
	assert.False(t, items[4].HasImage)

	out = h.mustRun(t, "", "plan", defs, "--name", "longsword")
	assert.Contains(t, out, "2 of 2 renderings incomplete")
	assert.NotContains(t, out, "Red Dragon")

	_, err := h.run(t, "", "plan", defs, "--name", "Tarrasque")
	require.Error(t, err)
}

func TestPosesSummaryAndInfo(t *testing.T) {
	h := newHarness(t)

	for _, role := range []string{"TopDown", "Portrait"} {
		h.mustRun(t, "png", "save-pose", "--category", "Creatures", "--type", "Monsters",
			"--subtype", "Humanoids", "--name", "Goblin", "--variant-id", "male-warrior",
			"--image-type", role, "-")
	}
	path := strings.TrimSpace(h.mustRun(t, `{"size":"small"}`, "save-pose", "--category", "Creatures",
		"--type", "Monsters", "--subtype", "Humanoids", "--name", "Goblin",
		"--variant-id", "male-warrior", "--metadata", "-"))
	assert.Equal(t, "metadata.json", filepath.Base(path))

	out := h.mustRun(t, "", "summary", "--genre", "fantasy", "-o", "json")
	var summaries []taxonomy.EntitySummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Goblin", summaries[0].Name)
	assert.Equal(t, 2, summaries[0].TotalPoseCount)

	out = h.mustRun(t, "", "info", "Creatures", "Monsters", "Humanoids", "Goblin", "-o", "json")
	var info taxonomy.EntityInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Len(t, info.Variants, 1)
	require.Len(t, info.Variants[0].Poses, 2)
	assert.Equal(t, 1, info.Variants[0].Poses[0].PoseNumber)
	assert.Equal(t, 4, info.Variants[0].Poses[1].PoseNumber)

	_, err := h.run(t, "", "info", "Creatures", "Monsters", "Humanoids", "Orc")
	require.Error(t, err)
}

func TestPrintConfig(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "", "--print-config")
	assert.Contains(t, out, h.assets)
	assert.Contains(t, out, "default_level: error")
}

func TestWriteConfig(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.base, "conf", "mediastore.yaml")

	out := h.mustRun(t, "", "--write-config", path)
	assert.Equal(t, path, strings.TrimSpace(out))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), h.entities)

	// The written file round-trips as an explicit config.
	root := RootCommand(buildinfo.NewContext("1.2.3", "2026-01-01", "abc123"))
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "--print-config"})
	require.NoError(t, root.ExecuteContext(t.Context()))
	assert.Contains(t, stdout.String(), h.assets)
	assert.Contains(t, stdout.String(), "default_level: error")
}

func TestInvalidOutputFormat(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
