package assetstore

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/hierarchy"
	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/observability/metrics"
	"github.com/vtttools/mediastore/internal/pathcodec"
	"github.com/vtttools/mediastore/internal/sanitize"
	"github.com/vtttools/mediastore/internal/sidecar"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

// subtypeLevel is the optional level of the asset layout.
const subtypeLevel = 3

// Filter narrows GetAssets. Empty fields and a nil Kind match everything;
// set fields are normalized and matched exactly.
type Filter struct {
	Kind     *taxonomy.Kind
	Category string
	Type     string
	Subtype  string
	Name     string
}

func (f Filter) segments() []string {
	kind := ""
	if f.Kind != nil {
		kind = pathcodec.KindSegment(*f.Kind)
	}
	return []string{
		kind,
		sanitize.Folder(f.Category, ""),
		sanitize.Folder(f.Type, ""),
		sanitize.Folder(f.Subtype, ""),
		sanitize.Folder(f.Name, ""),
	}
}

// GetAssets walks the tree and returns every asset matching filter, ordered
// by path. Missing directories at any level yield fewer results, never an
// error.
func (s *Store) GetAssets(ctx context.Context, filter Filter) ([]taxonomy.Asset, error) {
	start := time.Now()

	nodes, err := hierarchy.Walk(ctx, s.root, hierarchy.WalkOptions{
		Filters:  filter.segments(),
		Collapse: &hierarchy.Collapse{Level: subtypeLevel},
	})
	if err != nil {
		return nil, s.walkError(err)
	}

	assets := make([]taxonomy.Asset, 0, len(nodes))
	for _, node := range nodes {
		asset, ok, err := s.buildAsset(node)
		if err != nil {
			return nil, err
		}
		if ok {
			assets = append(assets, asset)
		}
	}

	s.recorder.RecordDiscovery(metrics.StoreAssets, metrics.OpList, time.Since(start).Seconds(), len(assets))
	return assets, nil
}

// FindAsset returns the first asset whose normalized name matches name, in
// depth-first lexical order, or nil when none exists.
func (s *Store) FindAsset(ctx context.Context, name string) (*taxonomy.Asset, error) {
	target := sanitize.Folder(name, "")
	if target == "" {
		return nil, errors.InvalidArgument("name", "must not be blank")
	}
	start := time.Now()

	node, found, err := hierarchy.Search(ctx, s.root, hierarchy.SearchOptions{
		Name:     target,
		MaxDepth: pathcodec.AssetDepth,
		Accept:   s.isAssetDir,
	})
	if err != nil {
		return nil, s.walkError(err)
	}

	discovered := 0
	var result *taxonomy.Asset
	if found {
		asset, ok, err := s.buildAsset(node)
		if err != nil {
			return nil, err
		}
		if ok {
			result = &asset
			discovered = 1
		}
	}

	s.recorder.RecordDiscovery(metrics.StoreAssets, metrics.OpFind, time.Since(start).Seconds(), discovered)
	return result, nil
}

// isAssetDir accepts directories below a known kind that directly hold
// files. An empty directory is indistinguishable from a missing one.
func (s *Store) isAssetDir(node hierarchy.Node) (bool, error) {
	if _, _, ok := pathcodec.DecodeAsset(node.Segments); !ok {
		return false, nil
	}
	return hierarchy.HoldsFiles(s.root, node.Path)
}

// buildAsset reconstructs an asset from its directory. ok is false for
// directories under an unrecognized kind and for directories holding no
// files.
func (s *Store) buildAsset(node hierarchy.Node) (taxonomy.Asset, bool, error) {
	class, dirName, ok := pathcodec.DecodeAsset(node.Segments)
	if !ok {
		s.log.Debug("skipping directory outside the asset taxonomy",
			logger.String("path", s.rel(node.Path)))
		return taxonomy.Asset{}, false, nil
	}

	entries, err := s.root.ReadDir(node.Path)
	if err != nil {
		return taxonomy.Asset{}, false, s.ioError(err, "list", node.Path)
	}
	if !slices.ContainsFunc(entries, func(e fs.DirEntry) bool { return e.Type().IsRegular() }) {
		s.log.Debug("skipping empty asset directory",
			logger.String("path", s.rel(node.Path)))
		return taxonomy.Asset{}, false, nil
	}

	name, err := sidecar.LoadName(s.root, node.Path, sidecar.AssetFileName, dirName)
	if err != nil {
		return taxonomy.Asset{}, false, s.ioError(err, "read_sidecar", node.Path)
	}

	refs := s.addressing.Scan(entries, ImageExt)
	tokens := make([]taxonomy.Resource, len(refs))
	for i, ref := range refs {
		tokens[i] = taxonomy.Resource{
			Index:       ref.Index,
			Description: fmt.Sprintf("%02d", ref.Index),
		}
	}

	return taxonomy.Asset{
		Name:           name,
		Classification: class,
		Tokens:         tokens,
	}, true, nil
}

func (s *Store) walkError(err error) error {
	if errors.IsCategory(err, errors.CategoryCancellation) || errors.IsInvalidArgument(err) {
		return err
	}
	return s.ioError(err, "walk", s.root.Base())
}
