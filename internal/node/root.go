package node

import (
	"errors"
	"io"
	"path/filepath"

	"filecrawl/internal/fsutil"
	"filecrawl/internal/logger"
)

// RootNode aggregates the filesystem roots and the user's home directory.
type RootNode struct {
	*base
}

func (p *Provider) newRoot() *RootNode {
	b := newBase(p, nil, "", "")
	n := &RootNode{base: b}
	b.self = n

	b.name = "Computer"
	b.desc = "System Root"
	b.dir = true
	b.readable = true
	b.size = DirectoryLength
	return n
}

func (n *RootNode) Kind() Kind { return KindRoot }

func (n *RootNode) Hashable() bool { return false }

func (n *RootNode) Open() (io.ReadCloser, error) {
	return nil, errors.New("root node has no content")
}

// listChildren returns the drives on systems with several roots and the
// entries of the single root elsewhere, followed by the home directory.
func (n *RootNode) listChildren() ([]Node, error) {
	p := n.provider
	roots := p.roots()

	var paths []string
	if len(roots) == 1 {
		entries, err := p.fs.ReadDir(roots[0])
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			paths = append(paths, filepath.Join(roots[0], e.Name()))
		}
	} else {
		paths = append(paths, roots...)
	}
	if home, err := p.fs.UserHomeDir(); err == nil {
		paths = append(paths, home)
	} else {
		logger.LogDebug("No home directory: %v", err)
	}

	seen := make(map[string]bool, len(paths))
	children := make([]Node, 0, len(paths))
	for _, path := range paths {
		key := fsutil.Normalize(path)
		if seen[key] {
			continue
		}
		seen[key] = true
		children = append(children, p.New(path, n))
	}
	return children, nil
}
