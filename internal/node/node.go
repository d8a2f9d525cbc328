// Package node models filesystem paths as a lazily materialized tree.
//
// A Node is one of four kinds, decided once when the node is built:
// a readable path on the local filesystem, a path that exists but cannot
// be read, a zip archive or one of its entries, and the synthetic root
// that aggregates filesystem roots and the home directory.
package node

import (
	"io"
	"time"

	"filecrawl/internal/predicate"
)

// DirectoryLength is the Size of a directory.
const DirectoryLength int64 = -1

// Kind identifies the variant of a Node.
type Kind int

const (
	KindRegular Kind = iota
	KindUnreadable
	KindArchive
	KindRoot
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindUnreadable:
		return "unreadable"
	case KindArchive:
		return "archive"
	case KindRoot:
		return "root"
	default:
		return "unknown"
	}
}

// Node is one entry of the tree. Attributes are captured when the node is
// created and are not refreshed afterwards.
type Node interface {
	Kind() Kind
	// Path is the filesystem path, or the archive-relative path for entries
	// inside an archive.
	Path() string
	// Key is the normalized identity used for equality and caching.
	Key() string
	// Parent returns the parent node, or nil for a root or when the parent
	// is no longer referenced elsewhere.
	Parent() Node
	Name() string
	TypeDescription() string
	// ContentType is probed on first use.
	ContentType() string
	IsDir() bool
	IsSymlink() bool
	IsHidden() bool
	IsReadable() bool
	IsLeaf() bool
	// Size is the length in bytes, or DirectoryLength.
	Size() int64
	ModTime() time.Time
	Created() (time.Time, bool)
	// Depth is the number of path elements; the root node has depth 0.
	Depth() int

	// Children lists the immediate children accepted by pred, sorted.
	// The first call lists the directory once; later calls filter the
	// cached listing until Invalidate is called.
	Children(pred predicate.Predicate) []Node
	Materialized() bool
	Invalidate()

	// Hashable reports whether Open yields file content.
	Hashable() bool
	Open() (io.ReadCloser, error)
	// Hash returns the digest cell for algo, creating an empty one.
	Hash(algo string) *HashCell
	// Hashes returns the digests computed so far keyed by algorithm.
	Hashes() map[string]string

	core() *base
}

// Equal reports whether a and b denote the same path.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// PathToRoot returns n followed by its ancestors up to the topmost parent
// still referenced.
func PathToRoot(n Node) []Node {
	var chain []Node
	for ; n != nil; n = n.Parent() {
		chain = append(chain, n)
	}
	return chain
}
