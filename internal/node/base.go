package node

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"weak"

	"filecrawl/internal/logger"
	"filecrawl/internal/predicate"
)

// lister is implemented by every variant to produce its unsorted children.
type lister interface {
	listChildren() ([]Node, error)
}

// base holds the state shared by all variants. Each variant embeds a
// pointer to its own base so that weak parent pointers address a whole
// allocation.
type base struct {
	self     Node
	provider *Provider
	parent   weak.Pointer[base]

	path     string
	key      string
	name     string
	desc     string
	dir      bool
	link     bool
	hidden   bool
	readable bool
	size     int64
	modTime  time.Time
	created  time.Time
	hasBirth bool
	depth    int

	mu           sync.Mutex
	materialized bool
	raw          []Node

	ctOnce      sync.Once
	contentType string

	hashMu sync.Mutex
	hashes map[string]*HashCell
}

func newBase(p *Provider, parent Node, path, key string) *base {
	b := &base{provider: p, path: path, key: key}
	if parent != nil {
		b.parent = weak.Make(parent.core())
	}
	return b
}

func (b *base) core() *base { return b }

func (b *base) Path() string            { return b.path }
func (b *base) Key() string             { return b.key }
func (b *base) Name() string            { return b.name }
func (b *base) TypeDescription() string { return b.desc }
func (b *base) IsDir() bool             { return b.dir }
func (b *base) IsSymlink() bool         { return b.link }
func (b *base) IsHidden() bool          { return b.hidden }
func (b *base) IsReadable() bool        { return b.readable }
func (b *base) Size() int64             { return b.size }
func (b *base) ModTime() time.Time      { return b.modTime }
func (b *base) Depth() int              { return b.depth }
func (b *base) String() string          { return b.path }

func (b *base) IsLeaf() bool {
	return !b.dir || !b.readable
}

func (b *base) Created() (time.Time, bool) {
	return b.created, b.hasBirth
}

func (b *base) Parent() Node {
	if p := b.parent.Value(); p != nil {
		return p.self
	}
	return nil
}

func (b *base) Children(pred predicate.Predicate) []Node {
	raw := b.materialize()
	out := make([]Node, 0, len(raw))
	for _, c := range raw {
		if pred == nil || pred(c.Path(), AsDirEntry(c)) {
			out = append(out, c)
		}
	}
	return out
}

// materialize lists children once. A failed listing is logged and leaves
// the node with no children.
func (b *base) materialize() []Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.materialized {
		return b.raw
	}
	b.materialized = true
	if !b.dir || !b.readable {
		return nil
	}

	children, err := b.self.(lister).listChildren()
	if err != nil {
		logger.LogWarning("Cannot list %s: %v", b.path, err)
		return nil
	}
	Sort(children, b.provider.locale)
	b.raw = children
	return b.raw
}

func (b *base) Materialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.materialized
}

// Invalidate drops the cached listing so the next Children call lists the
// directory again.
func (b *base) Invalidate() {
	b.mu.Lock()
	b.materialized = false
	b.raw = nil
	b.mu.Unlock()
}

func (b *base) Hash(algo string) *HashCell {
	b.hashMu.Lock()
	defer b.hashMu.Unlock()
	if b.hashes == nil {
		b.hashes = make(map[string]*HashCell)
	}
	c, ok := b.hashes[algo]
	if !ok {
		c = &HashCell{}
		b.hashes[algo] = c
	}
	return c
}

func (b *base) Hashes() map[string]string {
	b.hashMu.Lock()
	defer b.hashMu.Unlock()
	out := make(map[string]string, len(b.hashes))
	for algo, c := range b.hashes {
		if v, ok := c.Value(); ok {
			out[algo] = v
		}
	}
	return out
}

func (b *base) ContentType() string {
	b.ctOnce.Do(func() {
		b.contentType = b.probeContentType()
	})
	return b.contentType
}

func (b *base) probeContentType() string {
	if !b.readable {
		return ""
	}
	if b.dir && !b.self.Hashable() {
		return "inode/directory"
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(b.name))); t != "" {
		return t
	}
	rc, err := b.self.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(rc, head)
	return http.DetectContentType(head[:n])
}
