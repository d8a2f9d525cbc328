package node

import (
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"

	"filecrawl/internal/archive"
	"filecrawl/internal/fsutil"
)

var errArchiveUnavailable = errors.New("archive unavailable")

// ArchiveNode is a zip archive or an entry inside one. The node for the
// archive file itself keeps its filesystem path; entries below it use the
// slash-separated path inside the archive.
type ArchiveNode struct {
	*base
	archivePath string
	archiveKey  string
	rel         string
}

func (p *Provider) newArchive(file string, parent Node) *ArchiveNode {
	key := fsutil.Normalize(file)
	b := newBase(p, parent, file, key)
	n := &ArchiveNode{base: b, archivePath: file, archiveKey: key}
	b.self = n

	b.readable = true
	b.dir = true
	b.name = displayName(file)
	b.hidden = fsutil.IsHidden(file)
	b.depth = depthOf(file)
	if info, link := p.stat(file); info != nil {
		b.link = link
		b.size = info.Size()
		b.modTime = info.ModTime()
		b.created, b.hasBirth = fsutil.CreationTime(file, info)
	}
	b.desc = describeArchive(b.name)
	return n
}

func (p *Provider) newArchiveEntry(parent *ArchiveNode, rel string, d fs.DirEntry) *ArchiveNode {
	b := newBase(p, parent, "/"+rel, parent.archiveKey+"!/"+rel)
	n := &ArchiveNode{base: b, archivePath: parent.archivePath, archiveKey: parent.archiveKey, rel: rel}
	b.self = n

	b.readable = true
	b.name = d.Name()
	b.dir = d.IsDir()
	b.hidden = strings.HasPrefix(b.name, ".")
	b.depth = parent.depth + 1
	if info, err := d.Info(); err == nil {
		b.size = info.Size()
		b.modTime = info.ModTime()
	}
	if b.dir {
		b.size = DirectoryLength
	}
	b.desc = describe(b.name, b.dir)
	return n
}

func (n *ArchiveNode) Kind() Kind { return KindArchive }

// ArchivePath returns the filesystem path of the archive file.
func (n *ArchiveNode) ArchivePath() string { return n.archivePath }

// IsMountPoint reports whether n is the archive file itself.
func (n *ArchiveNode) IsMountPoint() bool { return n.rel == "" }

func (n *ArchiveNode) Hashable() bool { return n.IsMountPoint() || !n.dir }

// Open reads the archive file for the mount point and the entry content
// otherwise.
func (n *ArchiveNode) Open() (io.ReadCloser, error) {
	if n.IsMountPoint() {
		return n.provider.fs.Open(n.archivePath)
	}
	var rc io.ReadCloser
	err := n.withMount(func(m *archive.Mount) (err error) {
		rc, err = m.Open(n.rel)
		return err
	})
	return rc, err
}

func (n *ArchiveNode) listChildren() ([]Node, error) {
	var entries []fs.DirEntry
	err := n.withMount(func(m *archive.Mount) (err error) {
		entries, err = m.ReadDir(n.rel)
		return err
	})
	if err != nil {
		return nil, err
	}
	children := make([]Node, 0, len(entries))
	for _, e := range entries {
		rel := archive.Clean(path.Join(n.rel, e.Name()))
		children = append(children, n.provider.newArchiveEntry(n, rel, e))
	}
	return children, nil
}

// withMount runs fn on the archive's mount. The mount may be evicted
// between lookup and use, so fn is retried once on a fresh mount.
func (n *ArchiveNode) withMount(fn func(m *archive.Mount) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		m := n.provider.mounts.Mount(n.archivePath)
		if m == nil {
			return errArchiveUnavailable
		}
		if err = fn(m); !errors.Is(err, archive.ErrMountClosed) {
			return err
		}
	}
	return err
}
