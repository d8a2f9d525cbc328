package node

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"filecrawl/internal/archive"
	"filecrawl/internal/fsutil"
)

// Options configures a Provider.
type Options struct {
	// ArchiveSuffixes selects files mounted as archives. Defaults to .zip
	// and .jar.
	ArchiveSuffixes []string
	// Locale is a BCP 47 tag used to collate names. Defaults to English.
	Locale string
}

// Provider creates nodes over one filesystem. The archive registry may be
// nil, in which case archives are treated as regular files.
type Provider struct {
	fs       fsutil.FileSystem
	mounts   *archive.Registry
	suffixes []string
	locale   language.Tag
	roots    func() []string

	rootOnce sync.Once
	root     *RootNode
}

// NewProvider creates a Provider.
func NewProvider(fsys fsutil.FileSystem, mounts *archive.Registry, opts Options) *Provider {
	in := opts.ArchiveSuffixes
	if len(in) == 0 {
		in = []string{".zip", ".jar"}
	}
	suffixes := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(s)
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		suffixes = append(suffixes, s)
	}
	locale := language.English
	if opts.Locale != "" {
		locale = language.Make(opts.Locale)
	}
	return &Provider{
		fs:       fsys,
		mounts:   mounts,
		suffixes: suffixes,
		locale:   locale,
		roots:    fsutil.Roots,
	}
}

// Locale returns the collation locale.
func (p *Provider) Locale() language.Tag { return p.locale }

// New creates the node for path. The variant is picked by probing
// readability first and the archive suffix second.
func (p *Provider) New(path string, parent Node) Node {
	path = filepath.Clean(path)
	if !p.fs.Readable(path) {
		return p.newUnreadable(path, parent)
	}
	if p.isArchive(path) {
		return p.newArchive(path, parent)
	}
	return p.newRegular(path, parent)
}

// Root returns the synthetic root node. It is created once per Provider.
func (p *Provider) Root() *RootNode {
	p.rootOnce.Do(func() {
		p.root = p.newRoot()
	})
	return p.root
}

func (p *Provider) isArchive(path string) bool {
	if p.mounts == nil {
		return false
	}
	name := strings.ToLower(filepath.Base(path))
	for _, s := range p.suffixes {
		if strings.HasSuffix(name, s) {
			info, err := p.fs.Stat(path)
			return err == nil && info.Mode().IsRegular()
		}
	}
	return false
}

// stat returns the target info of path and whether path itself is a
// symbolic link. A dangling link yields the link's own info.
func (p *Provider) stat(path string) (fs.FileInfo, bool) {
	lst, lerr := p.fs.Lstat(path)
	link := lerr == nil && lst.Mode()&fs.ModeSymlink != 0
	info, err := p.fs.Stat(path)
	if err != nil {
		return lst, link
	}
	return info, link
}
