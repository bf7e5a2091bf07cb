package assetstore

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/imagetype"
	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/observability/metrics"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func newTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "assets")
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	s, err := New(base, opts...)
	require.NoError(t, err)
	return s, base
}

func goblin() *taxonomy.Asset {
	return &taxonomy.Asset{
		Name: "Goblin",
		Classification: taxonomy.Classification{
			Kind:     taxonomy.KindCreature,
			Category: "Humanoid",
			Type:     "Goblinoid",
			Subtype:  "Common",
		},
	}
}

func TestExampleScenario(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := t.Context()

	path, err := s.SaveImage(ctx, imagetype.TopDown, goblin(), 0, pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filepath.ToSlash(path), "creature/humanoid/goblinoid/common/goblin/topdown.png"), path)

	assets, err := s.GetAssets(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Goblin", assets[0].Name)
	assert.Empty(t, assets[0].Tokens)

	_, err = s.SaveImage(ctx, imagetype.TopDown, goblin(), 1, pngBytes)
	require.NoError(t, err)

	found, err := s.FindAsset(ctx, "goblin")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Tokens, 1)
	assert.Equal(t, 1, found.Tokens[0].Index)
}

func TestSaveFindRoundTrip(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	payloads := map[int][]byte{0: pngBytes, 3: []byte("third"), 12: {}}
	for idx, data := range payloads {
		_, err := s.SaveImage(t.Context(), "Portrait", goblin(), idx, data)
		require.NoError(t, err)
	}

	for idx, data := range payloads {
		path, found, err := s.FindImageFile("portrait", goblin(), idx)
		require.NoError(t, err)
		require.True(t, found)
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, data, got, "variant %d", idx)
	}
}

func TestTraversalNeutralized(t *testing.T) {
	t.Parallel()
	s, base := newTestStore(t)

	asset := goblin()
	asset.Classification.Category = "../../../etc"
	asset.Name = `..\..\passwd`

	path, err := s.SaveImage(t.Context(), "../../TopDown", asset, 0, pngBytes)
	require.NoError(t, err)

	rel, err := filepath.Rel(base, path)
	require.NoError(t, err)
	rel = filepath.ToSlash(rel)
	assert.False(t, strings.HasPrefix(rel, ".."))
	for _, seg := range strings.Split(rel, "/") {
		assert.NotEqual(t, "..", seg)
	}
	assert.Contains(t, strings.Split(rel, "/"), "etc")
	assert.Equal(t, "creature/etc/goblinoid/common/passwd/topdown.png", rel)
}

func TestCaseInsensitiveFind(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	zombie := &taxonomy.Asset{
		Name:           "Zombie",
		Classification: taxonomy.Classification{Kind: taxonomy.KindCreature, Category: "Undead", Type: "Walker", Subtype: "Rotting"},
	}
	_, err := s.SaveImage(t.Context(), imagetype.TopDown, zombie, 0, pngBytes)
	require.NoError(t, err)

	for _, query := range []string{"zombie", "Zombie", "ZOMBIE", " zombie "} {
		found, err := s.FindAsset(t.Context(), query)
		require.NoError(t, err, query)
		require.NotNil(t, found, query)
		assert.Equal(t, "Zombie", found.Name)
		assert.Equal(t, "undead", found.Classification.Category)
		assert.Equal(t, "rotting", found.Classification.Subtype)
	}

	lower := &taxonomy.Asset{
		Name:           "ghoul",
		Classification: taxonomy.Classification{Kind: taxonomy.KindCreature, Category: "Undead", Type: "Walker", Subtype: "Rotting"},
	}
	_, err = s.SaveImage(t.Context(), imagetype.TopDown, lower, 0, pngBytes)
	require.NoError(t, err)

	found, err := s.FindAsset(t.Context(), "GHOUL")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ghoul", found.Name)
}

func TestVariantIndexing(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	var paths []string
	for _, idx := range []int{2, 0, 1} {
		p, err := s.SaveImage(t.Context(), imagetype.TopDown, goblin(), idx, pngBytes)
		require.NoError(t, err)
		paths = append(paths, filepath.Base(p))
	}
	assert.Equal(t, []string{"topdown_02.png", "topdown.png", "topdown_01.png"}, paths)

	for _, idx := range []int{0, 1, 2} {
		ok, err := s.ImageFileExists(imagetype.TopDown, goblin(), idx)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	found, err := s.FindAsset(t.Context(), "Goblin")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Tokens, 2)
	assert.Equal(t, 1, found.Tokens[0].Index)
	assert.Equal(t, 2, found.Tokens[1].Index)
	assert.Equal(t, "01", found.Tokens[0].Description)
}

func TestTokensIgnoreMalformedSuffixes(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	path, err := s.SaveImage(t.Context(), imagetype.TopDown, goblin(), 0, pngBytes)
	require.NoError(t, err)
	dir := filepath.Dir(path)
	for _, name := range []string{"topdown_ab.png", "topdown_00.png", "topdown_-1.png", "closeup_03.png", "topdown_04.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), pngBytes, 0o644))
	}

	found, err := s.FindAsset(t.Context(), "goblin")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Tokens, 1)
	assert.Equal(t, 3, found.Tokens[0].Index)
}

func TestFilterIntersection(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := t.Context()

	fixtures := []taxonomy.Asset{
		{Name: "Goblin", Classification: taxonomy.Classification{Kind: taxonomy.KindCreature, Category: "Humanoid", Type: "Goblinoid", Subtype: "Common"}},
		{Name: "Orc", Classification: taxonomy.Classification{Kind: taxonomy.KindCreature, Category: "Humanoid", Type: "Orcish", Subtype: "Brute"}},
		{Name: "Wolf", Classification: taxonomy.Classification{Kind: taxonomy.KindCreature, Category: "Beast", Type: "Canine", Subtype: "Wild"}},
		{Name: "Knight", Classification: taxonomy.Classification{Kind: taxonomy.KindCharacter, Category: "Humanoid", Type: "Human", Subtype: "Fighter"}},
	}
	for i := range fixtures {
		_, err := s.SaveImage(ctx, imagetype.TopDown, &fixtures[i], 0, pngBytes)
		require.NoError(t, err)
	}

	creature := taxonomy.KindCreature
	assets, err := s.GetAssets(ctx, Filter{Kind: &creature, Category: "HUMANOID"})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "Goblin", assets[0].Name)
	assert.Equal(t, "Orc", assets[1].Name)
	for _, a := range assets {
		assert.Equal(t, taxonomy.KindCreature, a.Classification.Kind)
		assert.Equal(t, "humanoid", a.Classification.Category)
	}

	effect := taxonomy.KindEffect
	assets, err = s.GetAssets(ctx, Filter{Kind: &effect, Category: "Humanoid"})
	require.NoError(t, err)
	assert.NotNil(t, assets)
	assert.Empty(t, assets)

	assets, err = s.GetAssets(ctx, Filter{Name: "wolf"})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Wolf", assets[0].Name)

	assets, err = s.GetAssets(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, assets, 4)
}

func TestMissingRootTolerance(t *testing.T) {
	t.Parallel()
	s, base := newTestStore(t)
	ctx := t.Context()

	assets, err := s.GetAssets(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, assets)

	found, err := s.FindAsset(ctx, "goblin")
	require.NoError(t, err)
	assert.Nil(t, found)

	ok, err := s.ImageFileExists(imagetype.TopDown, goblin(), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.HasImageFiles(goblin(), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.HasPromptFiles(goblin(), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	path, ok, err := s.FindPromptFile(imagetype.TopDown, goblin(), 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)

	files, err := s.GetExistingImageFiles(goblin(), 0)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = os.Stat(base)
	assert.True(t, os.IsNotExist(err), "probes must not create the root")
}

func TestValidationBeforeIO(t *testing.T) {
	t.Parallel()
	s, base := newTestStore(t)
	ctx := t.Context()

	blankName := goblin()
	blankName.Name = "!!!"
	badKind := goblin()
	badKind.Classification.Kind = taxonomy.Kind(42)

	tests := []struct {
		name string
		call func() error
	}{
		{"nil asset", func() error { _, err := s.SaveImage(ctx, imagetype.TopDown, nil, 0, pngBytes); return err }},
		{"nil content", func() error { _, err := s.SaveImage(ctx, imagetype.TopDown, goblin(), 0, nil); return err }},
		{"blank image type", func() error { _, err := s.SaveImage(ctx, "  ", goblin(), 0, pngBytes); return err }},
		{"unrepresentable image type", func() error { _, err := s.SaveImage(ctx, "???", goblin(), 0, pngBytes); return err }},
		{"negative variant", func() error { _, err := s.SaveImage(ctx, imagetype.TopDown, goblin(), -1, pngBytes); return err }},
		{"blank prompt", func() error { _, err := s.SavePrompt(ctx, imagetype.TopDown, goblin(), 0, "\n\t"); return err }},
		{"name normalizes empty", func() error { _, err := s.SaveImage(ctx, imagetype.TopDown, blankName, 0, pngBytes); return err }},
		{"unknown kind", func() error { _, err := s.SaveImage(ctx, imagetype.TopDown, badKind, 0, pngBytes); return err }},
		{"probe nil asset", func() error { _, err := s.ImageFileExists(imagetype.TopDown, nil, 0); return err }},
		{"blank find", func() error { _, err := s.FindAsset(ctx, " "); return err }},
	}

	for _, tt := range tests {
		err := tt.call()
		require.Error(t, err, tt.name)
		assert.ErrorIs(t, err, ErrInvalidArgument, tt.name)
		assert.True(t, errors.IsInvalidArgument(err), tt.name)
	}

	_, err := os.Stat(base)
	assert.True(t, os.IsNotExist(err), "validation failures must not touch the disk")
}

func TestPrompts(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	path, err := s.SavePrompt(t.Context(), imagetype.CloseUp, goblin(), 1, "A green goblin, close-up token.")
	require.NoError(t, err)
	assert.Equal(t, "closeup_01.md", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A green goblin, close-up token.", string(content))

	ok, err := s.PromptFileExists(imagetype.CloseUp, goblin(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasPromptFiles(goblin(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasImageFiles(goblin(), 1)
	require.NoError(t, err)
	assert.False(t, ok, "a prompt is not an image")
}

func TestGetExistingFilesRegistryOrder(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	for _, role := range []string{imagetype.Portrait, imagetype.TopDown} {
		_, err := s.SaveImage(t.Context(), role, goblin(), 0, pngBytes)
		require.NoError(t, err)
	}

	files, err := s.GetExistingImageFiles(goblin(), 0)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "topdown.png", filepath.Base(files[0]))
	assert.Equal(t, "portrait.png", filepath.Base(files[1]))

	prompts, err := s.GetExistingPromptFiles(goblin(), 0)
	require.NoError(t, err)
	assert.Empty(t, prompts)
}

func TestEffectKindHasNoGeneratedRoles(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	fireball := &taxonomy.Asset{Name: "Fireball", Classification: taxonomy.Classification{Kind: taxonomy.KindEffect, Category: "Spell", Type: "Fire"}}
	_, err := s.SaveImage(t.Context(), imagetype.TopDown, fireball, 0, pngBytes)
	require.NoError(t, err)

	ok, err := s.HasImageFiles(fireball, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.ImageTypes(taxonomy.KindEffect))
}

func TestCustomImageTypeFallback(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	path, err := s.SaveImage(t.Context(), "Battle Map & Grid", goblin(), 0, pngBytes)
	require.NoError(t, err)
	assert.Equal(t, "battle-map+grid.png", filepath.Base(path))

	ok, err := s.ImageFileExists("battle map & grid", goblin(), 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubtypeLessAssets(t *testing.T) {
	t.Parallel()
	s, base := newTestStore(t)
	ctx := t.Context()

	stool := &taxonomy.Asset{Name: "Old Stool", Classification: taxonomy.Classification{Kind: taxonomy.KindObject, Category: "Furniture", Type: "Seating"}}
	path, err := s.SaveImage(ctx, imagetype.TopDown, stool, 0, pngBytes)
	require.NoError(t, err)

	rel, err := filepath.Rel(base, path)
	require.NoError(t, err)
	assert.Equal(t, "object/furniture/seating/old_stool/topdown.png", filepath.ToSlash(rel))

	assets, err := s.GetAssets(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Old Stool", assets[0].Name)
	assert.Empty(t, assets[0].Classification.Subtype)

	found, err := s.FindAsset(ctx, "old stool")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "seating", found.Classification.Type)
	assert.Empty(t, found.Classification.Subtype)
}

func TestFindAssetSkipsSubtypeNamedLikeAsset(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	asset := &taxonomy.Asset{Name: "Goblin", Classification: taxonomy.Classification{Kind: taxonomy.KindCreature, Category: "Humanoid", Type: "Goblinoid", Subtype: "Goblin"}}
	_, err := s.SaveImage(t.Context(), imagetype.TopDown, asset, 0, pngBytes)
	require.NoError(t, err)

	found, err := s.FindAsset(t.Context(), "goblin")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "goblin", found.Classification.Subtype)
}

func TestSidecarFallbackAndCrashTolerance(t *testing.T) {
	t.Parallel()
	s, base := newTestStore(t)

	path, err := s.SaveImage(t.Context(), imagetype.TopDown, goblin(), 0, pngBytes)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".asset.json"), []byte("{broken"), 0o644))

	found, err := s.FindAsset(t.Context(), "goblin")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "goblin", found.Name)

	// A save interrupted after the sidecar leaves an entity with no data.
	partial := filepath.Join(base, "creature", "beast", "canine", "wild", "wolf")
	require.NoError(t, os.MkdirAll(partial, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(partial, ".asset.json"), []byte(`{"Name":"Dire Wolf"}`), 0o644))

	assets, err := s.GetAssets(t.Context(), Filter{Category: "beast"})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Dire Wolf", assets[0].Name)
	assert.Empty(t, assets[0].Tokens)
}

func TestEmptyDirectoriesAreNotAssets(t *testing.T) {
	t.Parallel()
	s, base := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, os.MkdirAll(filepath.Join(base, "creature", "humanoid", "goblinoid", "common", "ghost"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "object", "furniture", "seating", "stool"), 0o755))

	assets, err := s.GetAssets(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, assets)

	for _, name := range []string{"ghost", "stool"} {
		found, err := s.FindAsset(ctx, name)
		require.NoError(t, err)
		assert.Nil(t, found, name)
	}

	ghost := &taxonomy.Asset{Name: "Ghost", Classification: taxonomy.Classification{Kind: taxonomy.KindCreature, Category: "Undead", Type: "Spirit", Subtype: "Lesser"}}
	_, err = s.SaveImage(ctx, imagetype.TopDown, ghost, 0, pngBytes)
	require.NoError(t, err)

	assets, err = s.GetAssets(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "undead", assets[0].Classification.Category)

	found, err := s.FindAsset(ctx, "ghost")
	require.NoError(t, err)
	require.NotNil(t, found, "an empty directory earlier in the walk must not hide a stored asset")
	assert.Equal(t, "undead", found.Classification.Category)
}

func TestUnknownKindDirectoriesSkipped(t *testing.T) {
	t.Parallel()
	s, base := newTestStore(t)

	stray := filepath.Join(base, "vehicle", "land", "cart", "farm", "wagon")
	require.NoError(t, os.MkdirAll(stray, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stray, "topdown.png"), pngBytes, 0o644))

	assets, err := s.GetAssets(t.Context(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, assets)

	found, err := s.FindAsset(t.Context(), "wagon")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSidecarLastWriterWins(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	first := goblin()
	second := goblin()
	second.Name = "GOBLIN"

	_, err := s.SaveImage(t.Context(), imagetype.TopDown, first, 0, pngBytes)
	require.NoError(t, err)
	_, err = s.SaveImage(t.Context(), imagetype.Portrait, second, 0, pngBytes)
	require.NoError(t, err)

	found, err := s.FindAsset(t.Context(), "goblin")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "GOBLIN", found.Name)
}

func TestCancellation(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	_, err := s.SaveImage(t.Context(), imagetype.TopDown, goblin(), 0, pngBytes)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = s.GetAssets(ctx, Filter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.FindAsset(ctx, "goblin")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.SaveImage(ctx, imagetype.Portrait, goblin(), 0, pngBytes)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIOErrorsPropagate(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	t.Parallel()
	s, base := newTestStore(t)

	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.Chmod(base, 0o500))
	t.Cleanup(func() { _ = os.Chmod(base, 0o755) })

	_, err := s.SaveImage(t.Context(), imagetype.TopDown, goblin(), 0, pngBytes)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestMetricsRecorded(t *testing.T) {
	t.Parallel()
	m, err := metrics.NewStoreMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	s, _ := newTestStore(t, WithRecorder(m))

	_, err = s.SaveImage(t.Context(), imagetype.TopDown, goblin(), 0, pngBytes)
	require.NoError(t, err)
	_, err = s.SavePrompt(t.Context(), imagetype.TopDown, goblin(), 0, "prompt")
	require.NoError(t, err)
	_, err = s.ImageFileExists(imagetype.Portrait, goblin(), 0)
	require.NoError(t, err)
	_, err = s.GetAssets(t.Context(), Filter{})
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Saves.WithLabelValues(metrics.StoreAssets, metrics.KindImage)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Saves.WithLabelValues(metrics.StoreAssets, metrics.KindPrompt)), 0)
	assert.InDelta(t, float64(len(pngBytes)+len("prompt")), testutil.ToFloat64(m.BytesWritten.WithLabelValues(metrics.StoreAssets)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Probes.WithLabelValues(metrics.StoreAssets, metrics.ResultMiss)), 0)
	assert.InDelta(t, 1, m.LastDiscovered(metrics.StoreAssets), 0)
}
