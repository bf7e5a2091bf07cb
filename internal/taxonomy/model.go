// Package taxonomy defines the domain model persisted by the media stores:
// classified assets with numbered tokens, and genre-classified entities with
// structural variants and poses.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the top-level classification of an asset.
type Kind int

const (
	KindCharacter Kind = iota
	KindCreature
	KindEffect
	KindObject
)

var kindNames = [...]string{"Character", "Creature", "Effect", "Object"}

// Kinds lists every Kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindCharacter, KindCreature, KindEffect, KindObject}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// ParseKind matches s against the kind names, ignoring case and
// surrounding whitespace.
func ParseKind(s string) (Kind, bool) {
	s = strings.TrimSpace(s)
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), true
		}
	}
	return 0, false
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts either the kind name or its ordinal.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, ok := ParseKind(name)
		if !ok {
			return fmt.Errorf("unknown asset kind %q", name)
		}
		*k = parsed
		return nil
	}

	var ordinal int
	if err := json.Unmarshal(data, &ordinal); err != nil {
		return fmt.Errorf("asset kind must be a name or ordinal: %w", err)
	}
	if !Kind(ordinal).Valid() {
		return fmt.Errorf("asset kind ordinal %d out of range", ordinal)
	}
	*k = Kind(ordinal)
	return nil
}

// Classification places an asset in the kind/category/type/subtype tree.
// An empty Subtype means the asset has none.
type Classification struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Category string `json:"category" yaml:"category"`
	Type     string `json:"type" yaml:"type"`
	Subtype  string `json:"subtype,omitempty" yaml:"subtype,omitempty"`
}

// Resource is one numbered token rendering of an asset.
type Resource struct {
	Index       int    `json:"index" yaml:"index"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Asset is the addressable object of the asset store.
type Asset struct {
	Name           string         `json:"name" yaml:"name"`
	Classification Classification `json:"classification" yaml:"classification"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	Tokens         []Resource     `json:"tokens" yaml:"tokens"`
}

// EntityDefinition is the addressable object of the entity store.
// An empty Genre defaults to the store's configured genre.
type EntityDefinition struct {
	Name                string `json:"name" yaml:"name"`
	Genre               string `json:"genre,omitempty" yaml:"genre,omitempty"`
	Category            string `json:"category" yaml:"category"`
	Type                string `json:"type" yaml:"type"`
	Subtype             string `json:"subtype" yaml:"subtype"`
	PhysicalDescription string `json:"physicalDescription,omitempty" yaml:"physical_description,omitempty"`
}

// StructuralVariant identifies one structural rendering of an entity.
// Only VariantID takes part in addressing.
type StructuralVariant struct {
	VariantID string `json:"variantId" yaml:"variant_id"`
	Size      string `json:"size,omitempty" yaml:"size,omitempty"`
	Gender    string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Class     string `json:"class,omitempty" yaml:"class,omitempty"`
	Equipment string `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Armor     string `json:"armor,omitempty" yaml:"armor,omitempty"`
	Material  string `json:"material,omitempty" yaml:"material,omitempty"`
	Quality   string `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// EntitySummary is one discovered entity with variant and pose counts.
type EntitySummary struct {
	Genre          string `json:"genre" yaml:"genre"`
	Category       string `json:"category" yaml:"category"`
	Type           string `json:"type" yaml:"type"`
	Subtype        string `json:"subtype" yaml:"subtype"`
	Name           string `json:"name" yaml:"name"`
	VariantCount   int    `json:"variantCount" yaml:"variant_count"`
	TotalPoseCount int    `json:"totalPoseCount" yaml:"total_pose_count"`
}

// EntityInfo is a fully enumerated entity.
type EntityInfo struct {
	Genre    string        `json:"genre" yaml:"genre"`
	Category string        `json:"category" yaml:"category"`
	Type     string        `json:"type" yaml:"type"`
	Subtype  string        `json:"subtype" yaml:"subtype"`
	Name     string        `json:"name" yaml:"name"`
	Variants []VariantInfo `json:"variants" yaml:"variants"`
}

type VariantInfo struct {
	VariantID string     `json:"variantId" yaml:"variant_id"`
	Poses     []PoseInfo `json:"poses" yaml:"poses"`
}

// PoseInfo describes one stored image. PoseNumber is the 1-based position
// of its image type in the registry.
type PoseInfo struct {
	PoseNumber int       `json:"poseNumber" yaml:"pose_number"`
	ImageType  string    `json:"imageType" yaml:"image_type"`
	Path       string    `json:"path" yaml:"path"`
	Size       int64     `json:"size" yaml:"size"`
	ModTime    time.Time `json:"modTime" yaml:"mod_time"`
}

// MarshalText encodes the kind by name for text based formats such as YAML.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown asset kind %q", text)
	}
	*k = parsed
	return nil
}
