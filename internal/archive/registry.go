package archive

import (
	"archive/zip"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"filecrawl/internal/fsutil"
	"filecrawl/internal/logger"
	"filecrawl/internal/metrics"
)

// DefaultMaxMounts is the registry capacity used when none is configured.
const DefaultMaxMounts = 64

// Registry maps archive paths to open mounts. Concurrent requests for the
// same archive open it once; the least recently used mount is retired when
// the registry is full.
type Registry struct {
	mounts *lru.Cache[string, *Mount]
	group  singleflight.Group
	open   func(name string) (*zip.ReadCloser, error)
}

// NewRegistry creates a registry holding at most maxMounts open archives.
func NewRegistry(maxMounts int) *Registry {
	if maxMounts <= 0 {
		maxMounts = DefaultMaxMounts
	}
	mounts, err := lru.NewWithEvict(maxMounts, func(_ string, m *Mount) {
		m.retire()
	})
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Registry{mounts: mounts, open: zip.OpenReader}
}

// Mount returns the mount for the archive at path, opening it on first
// use or when the registered mount has been retired. It returns nil when
// the archive cannot be opened.
func (r *Registry) Mount(path string) *Mount {
	key := fsutil.Normalize(path)
	if m, ok := r.mounts.Get(key); ok && !m.Retired() {
		return m
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if m, ok := r.mounts.Get(key); ok && !m.Retired() {
			return m, nil
		}
		zr, err := r.open(path)
		if err != nil {
			return nil, err
		}
		m := newMount(key, zr)
		r.mounts.Add(key, m)
		logger.LogDebug("Mounted archive %s (%d entries)", key, len(zr.File))
		return m, nil
	})
	if err != nil {
		metrics.ArchiveMountFailures.Inc()
		logger.LogWarning("Cannot mount archive %s: %v", key, err)
		return nil
	}
	return v.(*Mount)
}

// Unmount retires the mount for path if one is registered.
func (r *Registry) Unmount(path string) bool {
	return r.mounts.Remove(fsutil.Normalize(path))
}

// Len returns the number of registered mounts.
func (r *Registry) Len() int {
	return r.mounts.Len()
}

// Close retires every mount.
func (r *Registry) Close() {
	r.mounts.Purge()
}
