// Package archive mounts zip archives as read-only nested filesystems.
package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"filecrawl/internal/logger"
	"filecrawl/internal/metrics"
)

// Mount is an open archive. It stays usable until it is retired by the
// registry and every reader obtained from it has been closed.
type Mount struct {
	path string

	mu      sync.Mutex
	zr      *zip.ReadCloser
	refs    int
	closing bool
	closed  bool
}

func newMount(path string, zr *zip.ReadCloser) *Mount {
	metrics.ArchiveMountsOpen.Inc()
	return &Mount{path: path, zr: zr}
}

// Path returns the normalized path of the archive file.
func (m *Mount) Path() string { return m.path }

// Closed reports whether the underlying archive has been closed.
func (m *Mount) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Retired reports whether the mount refuses new readers, either because it
// is closed or because it is waiting for its last reader to finish.
func (m *Mount) Retired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed || m.closing
}

// ReadDir lists the entries of the directory rel inside the archive.
// An empty rel or "/" is the archive root.
func (m *Mount) ReadDir(rel string) ([]fs.DirEntry, error) {
	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()
	return fs.ReadDir(m.zr, Clean(rel))
}

// Stat returns metadata for the entry rel inside the archive.
func (m *Mount) Stat(rel string) (fs.FileInfo, error) {
	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()
	return fs.Stat(m.zr, Clean(rel))
}

// Open opens the entry rel for reading. The mount is kept open until the
// returned reader is closed.
func (m *Mount) Open(rel string) (io.ReadCloser, error) {
	if err := m.acquire(); err != nil {
		return nil, err
	}
	f, err := m.zr.Open(Clean(rel))
	if err != nil {
		m.release()
		return nil, err
	}
	return &entryReader{File: f, release: m.release}, nil
}

func (m *Mount) acquire() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.closing {
		return ErrMountClosed
	}
	m.refs++
	return nil
}

func (m *Mount) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs--
	if m.refs == 0 && m.closing {
		m.closeLocked()
	}
}

// retire stops new readers and closes the archive once the last active
// reader is released.
func (m *Mount) retire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closing = true
	if m.refs == 0 {
		m.closeLocked()
	}
}

func (m *Mount) closeLocked() {
	if m.closed {
		return
	}
	m.closed = true
	metrics.ArchiveMountsOpen.Dec()
	if err := m.zr.Close(); err != nil {
		logger.LogWarning("Failed to close archive %s: %v", m.path, err)
	}
}

type entryReader struct {
	fs.File
	once    sync.Once
	release func()
}

func (r *entryReader) Close() error {
	err := r.File.Close()
	r.once.Do(r.release)
	return err
}

// Clean converts an archive-relative path to the io/fs form used by
// archive/zip: slash separated, no leading slash, "." for the root.
func Clean(rel string) string {
	rel = path.Clean("/" + filepath.ToSlash(rel))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "."
	}
	return rel
}
