package node

import (
	"io"
	"path/filepath"

	"filecrawl/internal/fsutil"
)

// RegularNode is a readable path on the local filesystem.
type RegularNode struct {
	*base
}

func (p *Provider) newRegular(path string, parent Node) *RegularNode {
	b := newBase(p, parent, path, fsutil.Normalize(path))
	n := &RegularNode{base: b}
	b.self = n

	b.readable = true
	b.name = displayName(path)
	b.hidden = fsutil.IsHidden(path)
	b.depth = depthOf(path)
	if info, link := p.stat(path); info != nil {
		b.link = link
		b.dir = info.IsDir()
		b.modTime = info.ModTime()
		b.size = info.Size()
		b.created, b.hasBirth = fsutil.CreationTime(path, info)
	}
	if b.dir {
		b.size = DirectoryLength
	}
	b.desc = describe(b.name, b.dir)
	return n
}

func (n *RegularNode) Kind() Kind { return KindRegular }

func (n *RegularNode) Hashable() bool { return !n.dir }

func (n *RegularNode) Open() (io.ReadCloser, error) {
	return n.provider.fs.Open(n.path)
}

func (n *RegularNode) listChildren() ([]Node, error) {
	entries, err := n.provider.fs.ReadDir(n.path)
	if err != nil {
		return nil, err
	}
	children := make([]Node, 0, len(entries))
	for _, e := range entries {
		children = append(children, n.provider.New(filepath.Join(n.path, e.Name()), n))
	}
	return children, nil
}
