package node

import (
	"io/fs"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort orders nodes with directories first, then by collated name, then
// readable before unreadable, then by key.
func Sort(nodes []Node, locale language.Tag) {
	// A Collator is not safe for concurrent use.
	col := collate.New(locale)
	slices.SortFunc(nodes, func(a, b Node) int {
		return compare(col, a, b)
	})
}

func compare(col *collate.Collator, a, b Node) int {
	if a.IsDir() != b.IsDir() {
		if a.IsDir() {
			return -1
		}
		return 1
	}
	if c := col.CompareString(a.Name(), b.Name()); c != 0 {
		return c
	}
	if a.IsReadable() != b.IsReadable() {
		if a.IsReadable() {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Key(), b.Key())
}

// AsDirEntry exposes a node to predicates.
func AsDirEntry(n Node) fs.DirEntry { return dirEntry{n} }

type dirEntry struct{ n Node }

func (e dirEntry) Name() string               { return e.n.Name() }
func (e dirEntry) IsDir() bool                { return e.n.IsDir() }
func (e dirEntry) Type() fs.FileMode          { return e.mode().Type() }
func (e dirEntry) Info() (fs.FileInfo, error) { return e, nil }
func (e dirEntry) Readable() bool             { return e.n.IsReadable() }
func (e dirEntry) ModTime() time.Time         { return e.n.ModTime() }
func (e dirEntry) Mode() fs.FileMode          { return e.mode() }
func (e dirEntry) Sys() any                   { return e.n }

func (e dirEntry) Size() int64 {
	if s := e.n.Size(); s > 0 {
		return s
	}
	return 0
}

func (e dirEntry) mode() fs.FileMode {
	var m fs.FileMode
	if e.n.IsDir() {
		m |= fs.ModeDir
	}
	if e.n.IsSymlink() {
		m |= fs.ModeSymlink
	}
	return m
}
