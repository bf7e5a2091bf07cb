// Package hierarchy walks a store root level by level without recursion.
//
// Walk expands one taxonomy level at a time with an explicit frontier,
// applying an optional filter at each level. Search performs a depth-first
// pre-order traversal in lexical order with an explicit stack. Both check
// the context between directories so long scans can be aborted; neither
// mutates the tree.
package hierarchy

import (
	"context"
	"io/fs"
	"slices"
	"strings"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/securefs"
)

// GetLogger returns the hierarchy package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("hierarchy")
}

// Node is a directory reached by a walk.
type Node struct {
	Path     string   // absolute path
	Segments []string // segments below the root, in order
}

// Name returns the last segment.
func (n Node) Name() string {
	if len(n.Segments) == 0 {
		return ""
	}
	return n.Segments[len(n.Segments)-1]
}

// Depth returns the number of segments below the root.
func (n Node) Depth() int {
	return len(n.Segments)
}

func (n Node) child(path, name string) Node {
	segs := make([]string, len(n.Segments)+1)
	copy(segs, n.Segments)
	segs[len(n.Segments)] = name
	return Node{Path: path, Segments: segs}
}

// Collapse lets one level be absent. A directory found at that level which
// directly holds files is reported as a leaf one level early, as if the
// level had been skipped. Collapse only applies while the level is
// unfiltered.
type Collapse struct {
	Level int
}

// WalkOptions configures Walk.
type WalkOptions struct {
	// Filters holds one normalized segment per level; "" enumerates every
	// child directory. Its length is the walk depth.
	Filters []string
	// Collapse is optional.
	Collapse *Collapse
}

// Walk returns every directory at depth len(opts.Filters), plus collapsed
// leaves, sorted by their segments. Missing directories at any level
// contribute nothing; a missing root yields an empty result.
func Walk(ctx context.Context, root *securefs.Root, opts WalkOptions) ([]Node, error) {
	frontier := []Node{{Path: root.Base()}}
	var leaves []Node

	for level, filter := range opts.Filters {
		if err := ctx.Err(); err != nil {
			return nil, errors.Cancelled(err, "walk")
		}

		last := level == len(opts.Filters)-1
		collapsible := opts.Collapse != nil && opts.Collapse.Level == level && filter == ""
		var next []Node

		for _, parent := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, errors.Cancelled(err, "walk")
			}

			children, err := expand(root, parent, filter)
			if err != nil {
				return nil, err
			}

			if !collapsible {
				next = append(next, children...)
				continue
			}

			for _, child := range children {
				holdsFiles, err := HoldsFiles(root, child.Path)
				if err != nil {
					return nil, err
				}
				if !holdsFiles {
					next = append(next, child)
					continue
				}
				// The level is absent; the child is already the leaf, so
				// the final filter applies to it directly.
				final := opts.Filters[len(opts.Filters)-1]
				if final == "" || final == child.Name() {
					leaves = append(leaves, child)
				}
			}
		}

		frontier = next
		if last {
			leaves = append(leaves, frontier...)
		}
	}

	slices.SortFunc(leaves, func(a, b Node) int {
		return slices.Compare(a.Segments, b.Segments)
	})
	return leaves, nil
}

// expand lists the child directories of parent, or the single filtered
// child when it exists.
func expand(root *securefs.Root, parent Node, filter string) ([]Node, error) {
	if filter != "" {
		path, err := root.Join(append(slices.Clone(parent.Segments), filter)...)
		if err != nil {
			return nil, err
		}
		isDir, err := root.IsDir(path)
		if err != nil || !isDir {
			return nil, err
		}
		return []Node{parent.child(path, filter)}, nil
	}

	entries, err := root.ReadDir(parent.Path)
	if err != nil {
		return nil, err
	}

	var children []Node
	for _, e := range entries {
		if !isTraversableDir(e) {
			continue
		}
		path, err := root.Join(append(slices.Clone(parent.Segments), e.Name())...)
		if err != nil {
			return nil, err
		}
		children = append(children, parent.child(path, e.Name()))
	}
	return children, nil
}

// isTraversableDir skips files and hidden directories such as the
// temporary files left by an interrupted write.
func isTraversableDir(e fs.DirEntry) bool {
	return e.IsDir() && !strings.HasPrefix(e.Name(), ".")
}

// HoldsFiles reports whether dir directly contains at least one regular
// file.
func HoldsFiles(root *securefs.Root, dir string) (bool, error) {
	entries, err := root.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			return true, nil
		}
	}
	return false, nil
}

// SearchOptions configures Search.
type SearchOptions struct {
	// Name is the normalized segment to find.
	Name string
	// MaxDepth bounds the descent.
	MaxDepth int
	// Accept decides whether a node named Name is the match. A nil Accept
	// accepts every such node.
	Accept func(Node) (bool, error)
}

// Search returns the first directory named opts.Name in depth-first,
// lexical pre-order.
func Search(ctx context.Context, root *securefs.Root, opts SearchOptions) (Node, bool, error) {
	stack := []Node{{Path: root.Base()}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return Node{}, false, errors.Cancelled(err, "search")
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.Depth() > 0 && node.Name() == opts.Name {
			ok := true
			if opts.Accept != nil {
				var err error
				if ok, err = opts.Accept(node); err != nil {
					return Node{}, false, err
				}
			}
			if ok {
				return node, true, nil
			}
		}

		if node.Depth() >= opts.MaxDepth {
			continue
		}

		children, err := expand(root, node, "")
		if err != nil {
			return Node{}, false, err
		}
		// Push in reverse so the lexically first child is visited next.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	GetLogger().Trace("search found no match", logger.String("name", opts.Name))
	return Node{}, false, nil
}
