// Package pathcodec maps taxonomy keys to directory segments and back.
//
// Encoding is lossy: every segment is normalized, so decoding yields the
// normalized form of each level. Original display names are recovered from
// sidecars, not from the path.
package pathcodec

import (
	"strings"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/sanitize"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

// Asset layout depths, counted in segments below the store root.
const (
	AssetDepthNoSubtype = 4 // kind/category/type/name
	AssetDepth          = 5 // kind/category/type/subtype/name
)

// EntityDepth is the number of segments down to an entity directory:
// genre/category/type/subtype/letter/name.
const EntityDepth = 6

// DefaultGenre is used when an entity has no genre.
const DefaultGenre = "Fantasy"

// placeholderLetter groups names that do not start with a letter or digit.
const placeholderLetter = "0"

// AssetKey is the normalized location of an asset directory.
type AssetKey struct {
	Kind     string
	Category string
	Type     string
	Subtype  string // empty when the asset has no subtype
	Name     string
}

// EncodeAsset normalizes a classification and display name into an AssetKey.
func EncodeAsset(c taxonomy.Classification, name string) AssetKey {
	return AssetKey{
		Kind:     KindSegment(c.Kind),
		Category: sanitize.Folder(c.Category, ""),
		Type:     sanitize.Folder(c.Type, ""),
		Subtype:  sanitize.Folder(c.Subtype, ""),
		Name:     sanitize.Folder(name, ""),
	}
}

// KindSegment returns the directory segment for kind.
func KindSegment(kind taxonomy.Kind) string {
	return sanitize.Folder(kind.String(), "")
}

// Validate reports the first required segment that normalized to nothing.
func (k AssetKey) Validate() error {
	switch {
	case k.Category == "":
		return errors.InvalidArgument("category", "category normalizes to an empty segment")
	case k.Type == "":
		return errors.InvalidArgument("type", "type normalizes to an empty segment")
	case k.Name == "":
		return errors.InvalidArgument("name", "name normalizes to an empty segment")
	}
	return nil
}

// Segments returns the path segments; an absent subtype is omitted.
func (k AssetKey) Segments() []string {
	if k.Subtype == "" {
		return []string{k.Kind, k.Category, k.Type, k.Name}
	}
	return []string{k.Kind, k.Category, k.Type, k.Subtype, k.Name}
}

// DecodeAsset rebuilds a classification from the segments of an asset
// directory relative to the store root. Four segments mean the asset has
// no subtype, five mean it has one. The returned name is the normalized
// directory name.
func DecodeAsset(segments []string) (taxonomy.Classification, string, bool) {
	if len(segments) != AssetDepthNoSubtype && len(segments) != AssetDepth {
		return taxonomy.Classification{}, "", false
	}
	kind, ok := taxonomy.ParseKind(segments[0])
	if !ok {
		return taxonomy.Classification{}, "", false
	}

	c := taxonomy.Classification{
		Kind:     kind,
		Category: segments[1],
		Type:     segments[2],
	}
	if len(segments) == AssetDepth {
		c.Subtype = segments[3]
	}
	return c, segments[len(segments)-1], true
}

// EntityKey is the normalized location of an entity directory.
type EntityKey struct {
	Genre    string
	Category string
	Type     string
	Subtype  string
	Letter   string
	Name     string
}

// EncodeEntity normalizes an entity definition. An empty genre falls back
// to defaultGenre, and to DefaultGenre when that is empty too.
func EncodeEntity(e taxonomy.EntityDefinition, defaultGenre string) EntityKey {
	if strings.TrimSpace(defaultGenre) == "" {
		defaultGenre = DefaultGenre
	}
	name := sanitize.Folder(e.Name, "")
	return EntityKey{
		Genre:    sanitize.Folder(e.Genre, sanitize.Folder(defaultGenre, "")),
		Category: sanitize.Folder(e.Category, ""),
		Type:     sanitize.Folder(e.Type, ""),
		Subtype:  sanitize.Folder(e.Subtype, ""),
		Letter:   Letter(name),
		Name:     name,
	}
}

// Letter returns the bucket segment for a normalized name.
func Letter(normalizedName string) string {
	if normalizedName == "" {
		return ""
	}
	c := normalizedName[0]
	if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
		return string(c)
	}
	return placeholderLetter
}

// Validate reports the first segment that normalized to nothing.
func (k EntityKey) Validate() error {
	fields := []struct{ param, value string }{
		{"genre", k.Genre},
		{"category", k.Category},
		{"type", k.Type},
		{"subtype", k.Subtype},
		{"name", k.Name},
	}
	for _, f := range fields {
		if f.value == "" {
			return errors.InvalidArgument(f.param, "%s normalizes to an empty segment", f.param)
		}
	}
	return nil
}

// Segments returns the six entity path segments.
func (k EntityKey) Segments() []string {
	return []string{k.Genre, k.Category, k.Type, k.Subtype, k.Letter, k.Name}
}

// DecodeEntity rebuilds an EntityKey from the segments of an entity
// directory relative to the store root.
func DecodeEntity(segments []string) (EntityKey, bool) {
	if len(segments) != EntityDepth {
		return EntityKey{}, false
	}
	for _, s := range segments {
		if s == "" {
			return EntityKey{}, false
		}
	}
	return EntityKey{
		Genre:    segments[0],
		Category: segments[1],
		Type:     segments[2],
		Subtype:  segments[3],
		Letter:   segments[4],
		Name:     segments[5],
	}, true
}
