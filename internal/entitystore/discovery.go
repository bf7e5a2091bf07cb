package entitystore

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/hierarchy"
	"github.com/vtttools/mediastore/internal/observability/metrics"
	"github.com/vtttools/mediastore/internal/pathcodec"
	"github.com/vtttools/mediastore/internal/sanitize"
	"github.com/vtttools/mediastore/internal/securefs"
	"github.com/vtttools/mediastore/internal/sidecar"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

// Filter narrows GetEntitySummaries. Empty fields match everything.
type Filter struct {
	Genre    string
	Category string
	Type     string
	Subtype  string
	Name     string
}

func (f Filter) segments() []string {
	name := sanitize.Folder(f.Name, "")
	return []string{
		sanitize.Folder(f.Genre, ""),
		sanitize.Folder(f.Category, ""),
		sanitize.Folder(f.Type, ""),
		sanitize.Folder(f.Subtype, ""),
		pathcodec.Letter(name),
		name,
	}
}

// GetEntitySummaries walks the tree and returns one summary per entity,
// counting variant directories and registered poses. Results are ordered
// by path.
func (s *Store) GetEntitySummaries(ctx context.Context, filter Filter) ([]taxonomy.EntitySummary, error) {
	start := time.Now()

	nodes, err := hierarchy.Walk(ctx, s.root, hierarchy.WalkOptions{Filters: filter.segments()})
	if err != nil {
		return nil, s.walkError(err)
	}

	summaries := make([]taxonomy.EntitySummary, 0, len(nodes))
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, errors.Cancelled(err, "summaries")
		}

		key, ok := pathcodec.DecodeEntity(node.Segments)
		if !ok {
			continue
		}

		variants, present, err := s.entityContents(node.Path)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}

		summary := taxonomy.EntitySummary{
			Genre:        key.Genre,
			Category:     key.Category,
			Type:         key.Type,
			Subtype:      key.Subtype,
			Name:         key.Name,
			VariantCount: len(variants),
		}
		for _, dir := range variants {
			poses, err := s.countPoses(dir)
			if err != nil {
				return nil, err
			}
			summary.TotalPoseCount += poses
		}
		if summary.Name, err = s.displayName(variants, key.Name); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	s.recorder.RecordDiscovery(metrics.StoreEntities, metrics.OpSummary, time.Since(start).Seconds(), len(summaries))
	return summaries, nil
}

// GetEntityInfo enumerates every variant and pose of one entity, or
// returns nil when the entity directory does not exist or is empty.
func (s *Store) GetEntityInfo(ctx context.Context, genre, category, typ, subtype, name string) (*taxonomy.EntityInfo, error) {
	key, err := s.entityKey(taxonomy.EntityDefinition{
		Name:     name,
		Genre:    genre,
		Category: category,
		Type:     typ,
		Subtype:  subtype,
	})
	if err != nil {
		return nil, err
	}
	start := time.Now()

	dir, err := s.root.Join(key.Segments()...)
	if err != nil {
		return nil, err
	}
	isDir, err := s.root.IsDir(dir)
	if err != nil {
		return nil, s.ioError(err, "probe", dir)
	}
	var variants []string
	present := false
	if isDir {
		if variants, present, err = s.entityContents(dir); err != nil {
			return nil, err
		}
	}
	if !present {
		s.recorder.RecordDiscovery(metrics.StoreEntities, metrics.OpInfo, time.Since(start).Seconds(), 0)
		return nil, nil
	}

	info := &taxonomy.EntityInfo{
		Genre:    key.Genre,
		Category: key.Category,
		Type:     key.Type,
		Subtype:  key.Subtype,
		Variants: make([]taxonomy.VariantInfo, 0, len(variants)),
	}
	for _, variantDir := range variants {
		if err := ctx.Err(); err != nil {
			return nil, errors.Cancelled(err, "entity info")
		}
		poses, err := s.poses(variantDir)
		if err != nil {
			return nil, err
		}
		info.Variants = append(info.Variants, taxonomy.VariantInfo{
			VariantID: filepath.Base(variantDir),
			Poses:     poses,
		})
	}
	if info.Name, err = s.displayName(variants, name); err != nil {
		return nil, err
	}

	s.recorder.RecordDiscovery(metrics.StoreEntities, metrics.OpInfo, time.Since(start).Seconds(), 1)
	return info, nil
}

// entityContents returns the variant directories of an entity. present is
// false when the directory holds neither variants nor files, which
// discovery treats as no entity at all.
func (s *Store) entityContents(entityDir string) (variants []string, present bool, err error) {
	if variants, err = s.variantDirs(entityDir); err != nil {
		return nil, false, err
	}
	if len(variants) > 0 {
		return variants, true, nil
	}
	holdsFiles, err := hierarchy.HoldsFiles(s.root, entityDir)
	if err != nil {
		return nil, false, s.ioError(err, "list", entityDir)
	}
	return variants, holdsFiles, nil
}

// variantDirs returns the variant directories of an entity that hold
// files, sorted by id.
func (s *Store) variantDirs(entityDir string) ([]string, error) {
	entries, err := s.root.ReadDir(entityDir)
	if err != nil {
		return nil, s.ioError(err, "list", entityDir)
	}

	refs := s.addressing.Scan(entries, ImageExt)
	dirs := make([]string, 0, len(refs))
	for _, ref := range refs {
		if strings.HasPrefix(ref.ID, ".") {
			continue
		}
		dir := filepath.Join(entityDir, ref.ID)
		holdsFiles, err := hierarchy.HoldsFiles(s.root, dir)
		if err != nil {
			return nil, s.ioError(err, "list", dir)
		}
		if holdsFiles {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// countPoses counts the files in dir named after a registered role.
func (s *Store) countPoses(dir string) (int, error) {
	entries, err := s.root.ReadDir(dir)
	if err != nil {
		return 0, s.ioError(err, "list", dir)
	}

	count := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if s.isPoseFile(e.Name()) {
			count++
		}
	}
	return count, nil
}

// isPoseFile matches name against the registered pose file names,
// ignoring case.
func (s *Store) isPoseFile(name string) bool {
	stem, ok := strings.CutSuffix(strings.ToLower(name), ImageExt)
	if !ok {
		return false
	}
	for _, e := range s.images.Entries() {
		if stem == e.FileName {
			return true
		}
	}
	return false
}

// poses lists the registered poses stored in dir in registry order.
func (s *Store) poses(dir string) ([]taxonomy.PoseInfo, error) {
	poses := []taxonomy.PoseInfo{}
	for _, e := range s.images.Entries() {
		path := filepath.Join(dir, e.FileName+ImageExt)
		info, found, err := s.root.Stat(path)
		if err != nil {
			return nil, s.ioError(err, "stat", path)
		}
		if !found || !info.Mode().IsRegular() {
			continue
		}
		poses = append(poses, taxonomy.PoseInfo{
			PoseNumber: s.images.Index(e.Role),
			ImageType:  e.Role,
			Path:       securefs.ForPlatform(path),
			Size:       info.Size(),
			ModTime:    info.ModTime().UTC(),
		})
	}
	return poses, nil
}

// displayName returns the first Name recorded in a variant's metadata, or
// fallback when none has one.
func (s *Store) displayName(variantDirs []string, fallback string) (string, error) {
	for _, dir := range variantDirs {
		name, err := sidecar.LoadName(s.root, dir, sidecar.MetadataFileName, "")
		if err != nil {
			return "", s.ioError(err, "read_metadata", dir)
		}
		if name != "" {
			return name, nil
		}
	}
	return fallback, nil
}

func (s *Store) walkError(err error) error {
	if errors.IsCategory(err, errors.CategoryCancellation) || errors.IsInvalidArgument(err) {
		return err
	}
	return s.ioError(err, "walk", s.root.Base())
}
