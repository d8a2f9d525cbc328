package node

import (
	"io"
	"io/fs"

	"filecrawl/internal/fsutil"
)

// UnreadableNode is a path that exists but cannot be read. It is always a
// leaf.
type UnreadableNode struct {
	*base
}

func (p *Provider) newUnreadable(path string, parent Node) *UnreadableNode {
	b := newBase(p, parent, path, fsutil.Normalize(path))
	n := &UnreadableNode{base: b}
	b.self = n

	b.name = displayName(path)
	b.hidden = fsutil.IsHidden(path)
	b.depth = depthOf(path)
	if info, link := p.stat(path); info != nil {
		b.link = link
		b.dir = info.IsDir()
	}
	if b.dir {
		b.size = DirectoryLength
	}
	b.desc = describe(b.name, b.dir)
	return n
}

func (n *UnreadableNode) Kind() Kind { return KindUnreadable }

func (n *UnreadableNode) Hashable() bool { return false }

func (n *UnreadableNode) Open() (io.ReadCloser, error) {
	return nil, &fs.PathError{Op: "open", Path: n.path, Err: fs.ErrPermission}
}

func (n *UnreadableNode) listChildren() ([]Node, error) { return nil, nil }
