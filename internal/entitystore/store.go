// Package entitystore persists entity renderings under an eight-level tree
// where each structural variant owns a directory:
//
//	<root>/<genre>/<category>/<type>/<subtype>/<letter>/<name>/<variant>/
//	    top-down.png, miniature.png, photo.png, portrait.png
//	    metadata.json
//
// The letter level buckets entities by the first character of their
// normalized name. Like the asset store it keeps no index: discovery reads
// the tree on every call.
package entitystore

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

// ImageExt is the extension of every stored pose.
const ImageExt = ".png"

// ErrInvalidArgument is matched by every argument validation failure.
var ErrInvalidArgument = errors.ErrInvalidArgument

// Store is the directory-policy entity store.
type Store struct {
	root         *securefs.Root
	addressing   variant.Addressing
	images       *imagetype.Registry
	strict       bool
	defaultGenre string
	log          logger.Logger
	recorder     metrics.Recorder
}

// Option configures a Store.
type Option func(*Store)

// WithStrict toggles explicit rejection of path components carrying
// traversal tokens, separators or reserved characters. Strict is the
// default; lenient stores only sanitize.
func WithStrict(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// WithDefaultGenre sets the genre used for entities without one.
func WithDefaultGenre(genre string) Option {
	return func(s *Store) {
		if strings.TrimSpace(genre) != "" {
			s.defaultGenre = genre
		}
	}
}

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecorder records store operations.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) {
		s.recorder = metrics.OrNop(r)
	}
}

// New returns a store rooted at rootPath. The directory need not exist.
func New(rootPath string, opts ...Option) (*Store, error) {
	root, err := securefs.New(rootPath)
	if err != nil {
		return nil, err
	}

	s := &Store{
		root:         root,
		addressing:   variant.Directory{},
		images:       imagetype.Entities,
		strict:       true,
		defaultGenre: pathcodec.DefaultGenre,
		log:          logger.Global().Module("entitystore"),
		recorder:     metrics.NopRecorder{},
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

// Strict reports whether explicit component validation is enabled.
func (s *Store) Strict() bool {
	return s.strict
}

// SaveImage writes content as the imageType pose of the variant. The first
// save into a variant directory also records the entity's display name in
// its metadata file.
func (s *Store) SaveImage(ctx context.Context, entity *taxonomy.EntityDefinition, v *taxonomy.StructuralVariant, content []byte, imageType string) (string, error) {
	if content == nil {
		return "", errors.InvalidArgument("content", "must not be nil")
	}
	fileName, err := s.imageFileName(imageType)
	if err != nil {
		return "", err
	}
	dir, err := s.variantDir(entity, v)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", errors.Cancelled(err, "save")
	}

	if err := s.root.MkdirAll(dir); err != nil {
		return "", s.ioError(err, "create_directory", dir)
	}
	if _, err := sidecar.EnsureName(s.root, dir, sidecar.MetadataFileName, entity.Name); err != nil {
		return "", s.ioError(err, "write_sidecar", dir)
	}

	path := filepath.Join(dir, s.addressing.FileName(fileName, ImageExt, variant.Named(v.VariantID)))
	if err := s.root.WriteFile(path, content, securefs.FilePerm); err != nil {
		return "", s.ioError(err, "write_image", path)
	}

	s.recorder.RecordSave(metrics.StoreEntities, metrics.KindImage, len(content))
	s.log.Debug("saved entity pose",
		logger.String("path", s.rel(path)),
		logger.Int("bytes", len(content)))

	return securefs.ForPlatform(path), nil
}

// SaveMetadata replaces the variant's metadata file with metadataJSON,
// which must be a JSON object. A payload without a Name keeps the display
// name recorded by an earlier save, so the stored file may differ from
// metadataJSON in that one field.
func (s *Store) SaveMetadata(ctx context.Context, entity *taxonomy.EntityDefinition, v *taxonomy.StructuralVariant, metadataJSON string) (string, error) {
	if strings.TrimSpace(metadataJSON) == "" {
		return "", errors.InvalidArgument("metadata", "cannot be null or whitespace")
	}
	if err := sidecar.ValidateRaw(metadataJSON); err != nil {
		return "", err
	}
	dir, err := s.variantDir(entity, v)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", errors.Cancelled(err, "save metadata")
	}

	if err := s.root.MkdirAll(dir); err != nil {
		return "", s.ioError(err, "create_directory", dir)
	}
	written, err := sidecar.SaveRawKeepingName(s.root, dir, sidecar.MetadataFileName, metadataJSON)
	if err != nil {
		return "", s.ioError(err, "write_metadata", dir)
	}

	path := filepath.Join(dir, sidecar.MetadataFileName)
	s.recorder.RecordSave(metrics.StoreEntities, metrics.KindMetadata, len(written))
	s.log.Debug("saved variant metadata", logger.String("path", s.rel(path)))
	return securefs.ForPlatform(path), nil
}

// LoadMetadata returns the variant's metadata file verbatim. found is false
// when the variant has none.
func (s *Store) LoadMetadata(ctx context.Context, entity *taxonomy.EntityDefinition, v *taxonomy.StructuralVariant) (string, bool, error) {
	dir, err := s.variantDir(entity, v)
	if err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, errors.Cancelled(err, "load metadata")
	}

	payload, found, err := sidecar.LoadRaw(s.root, dir, sidecar.MetadataFileName)
	if err != nil {
		return "", false, s.ioError(err, "read_metadata", dir)
	}
	s.recorder.RecordProbe(metrics.StoreEntities, metrics.ProbeResult(found))
	return payload, found, nil
}

// GetExistingImageTypes returns the roles with a stored pose for the
// variant, in registry order.
func (s *Store) GetExistingImageTypes(entity *taxonomy.EntityDefinition, v *taxonomy.StructuralVariant) ([]string, error) {
	dir, err := s.variantDir(entity, v)
	if err != nil {
		return nil, err
	}

	isDir, err := s.root.IsDir(dir)
	if err != nil {
		return nil, s.ioError(err, "probe", dir)
	}
	if !isDir {
		s.recorder.RecordProbe(metrics.StoreEntities, metrics.ResultMiss)
		return []string{}, nil
	}

	roles := []string{}
	for _, e := range s.images.Entries() {
		path := filepath.Join(dir, e.FileName+ImageExt)
		found, err := s.root.IsFile(path)
		if err != nil {
			return nil, s.ioError(err, "probe", path)
		}
		s.recorder.RecordProbe(metrics.StoreEntities, metrics.ProbeResult(found))
		if found {
			roles = append(roles, e.Role)
		}
	}
	return roles, nil
}

// GetVariantDirectoryPath returns where the variant's files live. The
// directory is not created.
func (s *Store) GetVariantDirectoryPath(entity *taxonomy.EntityDefinition, v *taxonomy.StructuralVariant) (string, error) {
	dir, err := s.variantDir(entity, v)
	if err != nil {
		return "", err
	}
	return securefs.ForPlatform(dir), nil
}

// imageFileName resolves imageType to its file base name. Strict stores
// only accept registered roles.
func (s *Store) imageFileName(imageType string) (string, error) {
	if strings.TrimSpace(imageType) == "" {
		return "", errors.InvalidArgument("imageType", "cannot be null or whitespace")
	}
	if s.strict && !s.images.Known(imageType) {
		return "", errors.InvalidArgument("imageType", "invalid image type %q, valid types: %s",
			imageType, strings.Join(s.images.Roles(), ", "))
	}
	name := s.images.FileName(imageType)
	if name == "" {
		return "", errors.InvalidArgument("imageType", "%q normalizes to an empty file name", imageType)
	}
	return name, nil
}

// variantDir validates entity and v and returns the variant directory. It
// performs no I/O.
func (s *Store) variantDir(entity *taxonomy.EntityDefinition, v *taxonomy.StructuralVariant) (string, error) {
	if entity == nil {
		return "", errors.InvalidArgument("entity", "must not be nil")
	}
	if v == nil {
		return "", errors.InvalidArgument("variant", "must not be nil")
	}

	key, err := s.entityKey(*entity)
	if err != nil {
		return "", err
	}
	if err := s.checkComponent("variantId", v.VariantID); err != nil {
		return "", err
	}
	segment := s.addressing.Segment(variant.Named(v.VariantID))
	if segment == "" {
		return "", errors.InvalidArgument("variantId", "normalizes to an empty segment")
	}

	return s.root.Join(append(key.Segments(), segment)...)
}

// entityKey applies the default genre, validates every component and
// encodes the entity location.
func (s *Store) entityKey(entity taxonomy.EntityDefinition) (pathcodec.EntityKey, error) {
	if strings.TrimSpace(entity.Genre) == "" {
		entity.Genre = s.defaultGenre
	}

	components := []struct{ param, value string }{
		{"genre", entity.Genre},
		{"name", entity.Name},
		{"category", entity.Category},
		{"type", entity.Type},
		{"subtype", entity.Subtype},
	}
	for _, c := range components {
		if err := s.checkComponent(c.param, c.value); err != nil {
			return pathcodec.EntityKey{}, err
		}
	}

	key := pathcodec.EncodeEntity(entity, s.defaultGenre)
	if err := key.Validate(); err != nil {
		return pathcodec.EntityKey{}, err
	}
	return key, nil
}

// checkComponent rejects blank components and, in strict mode, components
// that would be unsafe as a raw path segment.
func (s *Store) checkComponent(param, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.InvalidArgument(param, "%s cannot be null or whitespace", param)
	}
	if s.strict && !isSafeComponent(value) {
		return errors.InvalidArgument(param, "%s contains invalid path characters", param)
	}
	return nil
}

// reservedChars cannot appear in a file name on at least one supported
// platform.
const reservedChars = `<>:"|?*`

func isSafeComponent(value string) bool {
	if strings.Contains(value, "..") || strings.ContainsAny(value, `/\`) {
		return false
	}
	if filepath.IsAbs(value) || filepath.VolumeName(value) != "" {
		return false
	}
	if strings.ContainsAny(value, reservedChars) {
		return false
	}
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

func (s *Store) ioError(err error, operation, path string) error {
	if errors.IsInvalidArgument(err) {
		return err
	}
	s.log.Warn("entity store I/O failure",
		logger.String("operation", operation),
		logger.String("path", s.rel(path)),
		logger.Error(err))
	return errors.New(err).
		Component("entitystore").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Build()
}

func (s *Store) rel(path string) string {
	if r, err := s.root.Rel(path); err == nil {
		return r
	}
	return filepath.Base(path)
}
