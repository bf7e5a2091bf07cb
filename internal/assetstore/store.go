// Package assetstore persists generated asset media under a five-level
// taxonomy tree and rediscovers assets by walking it.
//
// Layout:
//
//	<root>/<kind>/<category>/<type>/[<subtype>/]<name>/
//	    topdown.png       variant 0
//	    topdown_01.png    variant 1
//	    topdown.md        prompt, same suffix rule
//	    .asset.json       {"Name": "<original name>"}
//
// The filesystem is the only index. Every call performs live filesystem
// operations; nothing is cached between calls.
package assetstore

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/imagetype"
	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/observability/metrics"
	"github.com/vtttools/mediastore/internal/pathcodec"
	"github.com/vtttools/mediastore/internal/securefs"
	"github.com/vtttools/mediastore/internal/sidecar"
	"github.com/vtttools/mediastore/internal/taxonomy"
	"github.com/vtttools/mediastore/internal/variant"
)

// File extensions by role.
const (
	ImageExt  = ".png"
	PromptExt = ".md"
)

// ErrInvalidArgument is matched by every argument validation failure.
var ErrInvalidArgument = errors.ErrInvalidArgument

// Store is the suffix-policy asset store. It is safe for concurrent use;
// concurrent writes to the same file resolve as last-writer-wins.
type Store struct {
	root       *securefs.Root
	addressing variant.Addressing
	images     *imagetype.Registry
	log        logger.Logger
	recorder   metrics.Recorder
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecorder records store operations, typically into StoreMetrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) {
		s.recorder = metrics.OrNop(r)
	}
}

// New returns a store rooted at rootPath. The directory need not exist;
// it is created on the first save.
func New(rootPath string, opts ...Option) (*Store, error) {
	root, err := securefs.New(rootPath)
	if err != nil {
		return nil, err
	}

	s := &Store{
		root:       root,
		addressing: variant.Suffix{},
		images:     imagetype.Assets,
		log:        logger.Global().Module("assetstore"),
		recorder:   metrics.NopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute store root.
func (s *Store) Root() string {
	return s.root.Base()
}

// SaveImage writes content as the imageType image of the given variant and
// returns the platform-adapted path of the written file.
func (s *Store) SaveImage(ctx context.Context, imageType string, asset *taxonomy.Asset, variantIndex int, content []byte) (string, error) {
	if content == nil {
		return "", errors.InvalidArgument("content", "must not be nil")
	}
	return s.save(ctx, metrics.KindImage, ImageExt, imageType, asset, variantIndex, content)
}

// SavePrompt writes prompt as the markdown prompt for imageType.
func (s *Store) SavePrompt(ctx context.Context, imageType string, asset *taxonomy.Asset, variantIndex int, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.InvalidArgument("prompt", "must not be blank")
	}
	return s.save(ctx, metrics.KindPrompt, PromptExt, imageType, asset, variantIndex, []byte(prompt))
}

func (s *Store) save(ctx context.Context, kind, ext, imageType string, asset *taxonomy.Asset, variantIndex int, data []byte) (string, error) {
	dir, fileName, err := s.locate(imageType, asset, variantIndex, ext)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", errors.Cancelled(err, "save")
	}

	if err := s.root.MkdirAll(dir); err != nil {
		return "", s.ioError(err, "create_directory", dir)
	}
	if err := sidecar.SaveName(s.root, dir, sidecar.AssetFileName, asset.Name); err != nil {
		return "", s.ioError(err, "write_sidecar", dir)
	}

	path := filepath.Join(dir, fileName)
	if err := s.root.WriteFile(path, data, securefs.FilePerm); err != nil {
		return "", s.ioError(err, "write_"+kind, path)
	}

	s.recorder.RecordSave(metrics.StoreAssets, kind, len(data))
	s.log.Debug("saved asset file",
		logger.String("kind", kind),
		logger.String("path", s.rel(path)),
		logger.Int("bytes", len(data)))

	return securefs.ForPlatform(path), nil
}

// locate validates its arguments and returns the asset directory and the
// file name for imageType under variantIndex. It performs no I/O.
func (s *Store) locate(imageType string, asset *taxonomy.Asset, variantIndex int, ext string) (dir, fileName string, err error) {
	dir, err = s.assetDir(asset)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(imageType) == "" {
		return "", "", errors.InvalidArgument("imageType", "must not be blank")
	}
	if variantIndex < 0 {
		return "", "", errors.InvalidArgument("variantIndex", "must not be negative, got %d", variantIndex)
	}

	base := s.images.FileName(imageType)
	if base == "" {
		return "", "", errors.InvalidArgument("imageType", "%q normalizes to an empty file name", imageType)
	}
	return dir, s.addressing.FileName(base, ext, variant.Indexed(variantIndex)), nil
}

// assetDir returns the directory of asset without touching the disk.
func (s *Store) assetDir(asset *taxonomy.Asset) (string, error) {
	if asset == nil {
		return "", errors.InvalidArgument("asset", "must not be nil")
	}
	if !asset.Classification.Kind.Valid() {
		return "", errors.InvalidArgument("kind", "unknown asset kind %d", int(asset.Classification.Kind))
	}

	key := pathcodec.EncodeAsset(asset.Classification, asset.Name)
	if err := key.Validate(); err != nil {
		return "", err
	}
	return s.root.Join(key.Segments()...)
}

func (s *Store) ioError(err error, operation, path string) error {
	if errors.IsInvalidArgument(err) {
		return err
	}
	s.log.Warn("asset store I/O failure",
		logger.String("operation", operation),
		logger.String("path", s.rel(path)),
		logger.Error(err))
	return errors.New(err).
		Component("assetstore").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Build()
}

// rel renders path relative to the root for logging.
func (s *Store) rel(path string) string {
	if r, err := s.root.Rel(path); err == nil {
		return r
	}
	return filepath.Base(path)
}
