package fsutil

import (
	"io"
	"io/fs"
	"os"
)

// FileSystem abstracts the filesystem calls made by the crawler, the node
// model and the checksum engine so tests can count and fail them.
type FileSystem interface {
	ReadDir(path string) ([]fs.DirEntry, error)
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	// Readable reports whether the current process may read path.
	Readable(path string) bool
	UserHomeDir() (string, error)
}

// OSFileSystem implements FileSystem using the local OS filesystem.
// Function fields allow tests to replace single syscalls.
type OSFileSystem struct {
	readDir  func(name string) ([]fs.DirEntry, error)
	open     func(name string) (*os.File, error)
	readable func(name string) bool
}

// NewOSFileSystem creates a new OSFileSystem with real OS calls.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{
		readDir:  os.ReadDir,
		open:     os.Open,
		readable: canRead,
	}
}

// ReadDir lists the entries of a directory sorted by filename.
func (r *OSFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	return r.readDir(path)
}

// Stat returns file info for a path (follows symlinks).
func (r *OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Lstat returns file info for a path without following symlinks.
func (r *OSFileSystem) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// Open opens a file for reading. The concrete value is an *os.File so
// callers may memory-map it.
func (r *OSFileSystem) Open(path string) (io.ReadCloser, error) {
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Readable reports whether path exists and can be read.
func (r *OSFileSystem) Readable(path string) bool {
	return r.readable(path)
}

// UserHomeDir returns the current user's home directory.
func (r *OSFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}
