// Package imagetype maps the closed vocabulary of image roles to canonical
// file base names.
package imagetype

import (
	"strings"

	"github.com/vtttools/mediastore/internal/sanitize"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

// Role names used by the stores.
const (
	TopDown   = "TopDown"
	CloseUp   = "CloseUp"
	Portrait  = "Portrait"
	Miniature = "Miniature"
	Photo     = "Photo"
)

// Entry pairs a role with its canonical file base name.
type Entry struct {
	Role     string
	FileName string
}

// Registry is an ordered, case-insensitive image role vocabulary.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry; order defines pose numbering.
func NewRegistry(entries ...Entry) *Registry {
	return &Registry{entries: entries}
}

// Assets is the vocabulary of the asset store.
var Assets = NewRegistry(
	Entry{Role: TopDown, FileName: "topdown"},
	Entry{Role: CloseUp, FileName: "closeup"},
	Entry{Role: Portrait, FileName: "portrait"},
)

// Entities is the vocabulary of the entity store.
var Entities = NewRegistry(
	Entry{Role: TopDown, FileName: "top-down"},
	Entry{Role: Miniature, FileName: "miniature"},
	Entry{Role: Photo, FileName: "photo"},
	Entry{Role: Portrait, FileName: "portrait"},
)

// Lookup finds the entry whose role or file name matches s, ignoring case
// and surrounding whitespace.
func (r *Registry) Lookup(s string) (Entry, bool) {
	s = strings.TrimSpace(s)
	for _, e := range r.entries {
		if strings.EqualFold(s, e.Role) || strings.EqualFold(s, e.FileName) {
			return e, true
		}
	}
	return Entry{}, false
}

// Known reports whether role is in the vocabulary.
func (r *Registry) Known(role string) bool {
	_, ok := r.Lookup(role)
	return ok
}

// FileName returns the canonical base name for role. Unknown roles fall
// back to the file-name sanitizer so custom roles remain storable.
func (r *Registry) FileName(role string) string {
	if e, ok := r.Lookup(role); ok {
		return e.FileName
	}
	return sanitize.File(role, "")
}

// Roles returns the roles in registry order.
func (r *Registry) Roles() []string {
	roles := make([]string, len(r.entries))
	for i, e := range r.entries {
		roles[i] = e.Role
	}
	return roles
}

// Entries returns a copy of the registry entries in order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Index returns the 1-based position of role, or 0 if unknown.
func (r *Registry) Index(role string) int {
	role = strings.TrimSpace(role)
	for i, e := range r.entries {
		if strings.EqualFold(role, e.Role) || strings.EqualFold(role, e.FileName) {
			return i + 1
		}
	}
	return 0
}

// ForKind returns the asset roles generated for an asset kind.
func ForKind(kind taxonomy.Kind) []string {
	switch kind {
	case taxonomy.KindCharacter, taxonomy.KindCreature:
		return []string{TopDown, CloseUp, Portrait}
	case taxonomy.KindObject:
		return []string{TopDown, Portrait}
	default:
		return nil
	}
}
