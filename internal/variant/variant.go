// Package variant encodes which rendering of an entity a file belongs to.
//
// Two policies exist side by side. Suffix keeps every variant of an entity
// in one directory and marks numbered variants in the file name
// (topdown.png, topdown_01.png). Directory gives each variant its own
// directory named by an opaque identifier, which can then hold any number
// of files plus its own sidecar.
package variant

import (
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/vtttools/mediastore/internal/sanitize"
)

// Policy names a variant addressing strategy.
type Policy string

const (
	PolicySuffix    Policy = "suffix"
	PolicyDirectory Policy = "directory"
)

// Ref identifies a variant. Suffix addressing uses Index, Directory
// addressing uses ID.
type Ref struct {
	Index int
	ID    string
}

// Indexed returns a Ref for a numbered variant.
func Indexed(index int) Ref {
	return Ref{Index: index}
}

// Named returns a Ref for an identified variant.
func Named(id string) Ref {
	return Ref{ID: id}
}

// Addressing maps variants to file names or directory segments and back.
type Addressing interface {
	Policy() Policy
	// FileName returns the file name for base+ext under variant v.
	FileName(base, ext string, v Ref) string
	// Segment returns the directory segment for v, or "" when the policy
	// stores variants in the entity directory itself.
	Segment(v Ref) string
	// Scan reconstructs the variants present in a directory listing.
	Scan(entries []fs.DirEntry, ext string) []Ref
}

// suffixSeparator splits the base name from the variant number.
const suffixSeparator = "_"

// Suffix is the file-name suffix policy.
type Suffix struct{}

var _ Addressing = Suffix{}

func (Suffix) Policy() Policy { return PolicySuffix }

// FileName returns base+ext for index 0 and base_NN+ext otherwise.
func (Suffix) FileName(base, ext string, v Ref) string {
	if v.Index <= 0 {
		return base + ext
	}
	return fmt.Sprintf("%s%s%02d%s", base, suffixSeparator, v.Index, ext)
}

func (Suffix) Segment(Ref) string { return "" }

// Scan returns the distinct positive indexes found among files with ext,
// ascending. Base files and malformed suffixes are ignored.
func (Suffix) Scan(entries []fs.DirEntry, ext string) []Ref {
	seen := make(map[int]struct{})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if idx, ok := ParseSuffix(e.Name(), ext); ok {
			seen[idx] = struct{}{}
		}
	}

	indexes := make([]int, 0, len(seen))
	for idx := range seen {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)

	refs := make([]Ref, len(indexes))
	for i, idx := range indexes {
		refs[i] = Indexed(idx)
	}
	return refs
}

// ParseSuffix extracts the variant number from a file name such as
// "topdown_02.png". Only positive integers after the last separator count.
func ParseSuffix(name, ext string) (int, bool) {
	stem, ok := strings.CutSuffix(name, ext)
	if !ok || stem == "" {
		return 0, false
	}
	i := strings.LastIndex(stem, suffixSeparator)
	if i <= 0 || i == len(stem)-1 {
		return 0, false
	}
	digits := stem[i+1:]
	for j := range len(digits) {
		if digits[j] < '0' || digits[j] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Directory is the directory-per-variant policy.
type Directory struct{}

var _ Addressing = Directory{}

func (Directory) Policy() Policy { return PolicyDirectory }

// FileName ignores v; the variant is already encoded in the directory.
func (Directory) FileName(base, ext string, _ Ref) string {
	return base + ext
}

// Segment returns the sanitized variant ID, keeping hyphens.
func (Directory) Segment(v Ref) string {
	return sanitize.File(v.ID, "")
}

// Scan returns one Ref per subdirectory, sorted by name. ext is unused.
func (Directory) Scan(entries []fs.DirEntry, _ string) []Ref {
	var refs []Ref
	for _, e := range entries {
		if e.IsDir() {
			refs = append(refs, Named(e.Name()))
		}
	}
	slices.SortFunc(refs, func(a, b Ref) int { return strings.Compare(a.ID, b.ID) })
	return refs
}
