// Package fsutiltest provides a FileSystem for tests that counts calls and
// injects failures on top of the real filesystem.
package fsutiltest

import (
	"io"
	"io/fs"
	"path/filepath"
	"sync"

	"filecrawl/internal/fsutil"
)

// CountingFS wraps an OSFileSystem.
type CountingFS struct {
	fsutil.FileSystem

	// Home overrides UserHomeDir when set.
	Home string

	mu          sync.Mutex
	readDirs    map[string]int
	opens       map[string]int
	failReadDir map[string]error
	failOpen    map[string]error
	unreadable  map[string]bool
}

// New creates a CountingFS over the OS filesystem.
func New() *CountingFS {
	return &CountingFS{
		FileSystem:  fsutil.NewOSFileSystem(),
		readDirs:    make(map[string]int),
		opens:       make(map[string]int),
		failReadDir: make(map[string]error),
		failOpen:    make(map[string]error),
		unreadable:  make(map[string]bool),
	}
}

// FailReadDir makes every ReadDir of path return err.
func (f *CountingFS) FailReadDir(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReadDir[filepath.Clean(path)] = err
}

// FailOpen makes every Open of path return err.
func (f *CountingFS) FailOpen(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOpen[filepath.Clean(path)] = err
}

// MakeUnreadable makes Readable report false for path.
func (f *CountingFS) MakeUnreadable(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreadable[filepath.Clean(path)] = true
}

// ReadDirCalls returns how often ReadDir was called for path.
func (f *CountingFS) ReadDirCalls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readDirs[filepath.Clean(path)]
}

// OpenCalls returns how often Open was called for path.
func (f *CountingFS) OpenCalls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens[filepath.Clean(path)]
}

func (f *CountingFS) ReadDir(path string) ([]fs.DirEntry, error) {
	key := filepath.Clean(path)
	f.mu.Lock()
	f.readDirs[key]++
	err := f.failReadDir[key]
	f.mu.Unlock()
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: err}
	}
	return f.FileSystem.ReadDir(path)
}

func (f *CountingFS) Open(path string) (io.ReadCloser, error) {
	key := filepath.Clean(path)
	f.mu.Lock()
	f.opens[key]++
	err := f.failOpen[key]
	f.mu.Unlock()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return f.FileSystem.Open(path)
}

func (f *CountingFS) Readable(path string) bool {
	f.mu.Lock()
	locked := f.unreadable[filepath.Clean(path)]
	f.mu.Unlock()
	if locked {
		return false
	}
	return f.FileSystem.Readable(path)
}

func (f *CountingFS) UserHomeDir() (string, error) {
	if f.Home != "" {
		return f.Home, nil
	}
	return f.FileSystem.UserHomeDir()
}
