package assetstore

import (
	"path/filepath"

	"github.com/vtttools/mediastore/internal/imagetype"
	"github.com/vtttools/mediastore/internal/observability/metrics"
	"github.com/vtttools/mediastore/internal/securefs"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

// ImageFileExists reports whether the imageType image of the variant exists.
func (s *Store) ImageFileExists(imageType string, asset *taxonomy.Asset, variantIndex int) (bool, error) {
	_, found, err := s.find(imageType, asset, variantIndex, ImageExt)
	return found, err
}

// PromptFileExists reports whether the imageType prompt of the variant exists.
func (s *Store) PromptFileExists(imageType string, asset *taxonomy.Asset, variantIndex int) (bool, error) {
	_, found, err := s.find(imageType, asset, variantIndex, PromptExt)
	return found, err
}

// FindImageFile returns the path of the imageType image, if present.
func (s *Store) FindImageFile(imageType string, asset *taxonomy.Asset, variantIndex int) (string, bool, error) {
	return s.find(imageType, asset, variantIndex, ImageExt)
}

// FindPromptFile returns the path of the imageType prompt, if present.
func (s *Store) FindPromptFile(imageType string, asset *taxonomy.Asset, variantIndex int) (string, bool, error) {
	return s.find(imageType, asset, variantIndex, PromptExt)
}

// HasImageFiles reports whether any image role generated for the asset's
// kind exists for the variant.
func (s *Store) HasImageFiles(asset *taxonomy.Asset, variantIndex int) (bool, error) {
	files, err := s.existing(asset, variantIndex, ImageExt, true)
	return len(files) > 0, err
}

// HasPromptFiles reports whether any prompt for the asset's kind exists.
func (s *Store) HasPromptFiles(asset *taxonomy.Asset, variantIndex int) (bool, error) {
	files, err := s.existing(asset, variantIndex, PromptExt, true)
	return len(files) > 0, err
}

// GetExistingImageFiles returns the paths of the images present for the
// variant, in registry order.
func (s *Store) GetExistingImageFiles(asset *taxonomy.Asset, variantIndex int) ([]string, error) {
	return s.existing(asset, variantIndex, ImageExt, false)
}

// GetExistingPromptFiles returns the paths of the prompts present for the
// variant, in registry order.
func (s *Store) GetExistingPromptFiles(asset *taxonomy.Asset, variantIndex int) ([]string, error) {
	return s.existing(asset, variantIndex, PromptExt, false)
}

// ImageTypes returns the image roles generated for kind.
func (s *Store) ImageTypes(kind taxonomy.Kind) []string {
	return imagetype.ForKind(kind)
}

func (s *Store) find(imageType string, asset *taxonomy.Asset, variantIndex int, ext string) (string, bool, error) {
	dir, fileName, err := s.locate(imageType, asset, variantIndex, ext)
	if err != nil {
		return "", false, err
	}

	path := filepath.Join(dir, fileName)
	found, err := s.root.IsFile(path)
	if err != nil {
		return "", false, s.ioError(err, "probe", path)
	}
	s.recorder.RecordProbe(metrics.StoreAssets, metrics.ProbeResult(found))
	if !found {
		return "", false, nil
	}
	return securefs.ForPlatform(path), true, nil
}

// existing probes every role of the asset's kind. With first set it stops
// at the first hit.
func (s *Store) existing(asset *taxonomy.Asset, variantIndex int, ext string, first bool) ([]string, error) {
	dir, err := s.assetDir(asset)
	if err != nil {
		return nil, err
	}

	isDir, err := s.root.IsDir(dir)
	if err != nil {
		return nil, s.ioError(err, "probe", dir)
	}
	if !isDir {
		s.recorder.RecordProbe(metrics.StoreAssets, metrics.ResultMiss)
		return []string{}, nil
	}

	files := []string{}
	for _, role := range imagetype.ForKind(asset.Classification.Kind) {
		path, found, err := s.find(role, asset, variantIndex, ext)
		if err != nil {
			return nil, err
		}
		if found {
			files = append(files, path)
			if first {
				break
			}
		}
	}
	return files, nil
}
