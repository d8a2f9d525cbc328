package fsutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns the comparison form of a path: absolute when possible,
// cleaned, and in Unicode NFC so that decomposed names from macOS compare
// equal to their composed forms.
func Normalize(path string) string {
	return norm.NFC.String(Abs(path))
}

// Abs returns the absolute, cleaned form of path with its bytes left as
// they are on disk. Use it for I/O and Normalize for comparison.
func Abs(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// VolumeRoot returns the root of the filesystem that contains path,
// e.g. "C:\" on Windows or "/" elsewhere.
func VolumeRoot(path string) string {
	path = Normalize(path)
	vol := filepath.VolumeName(path)
	return vol + string(filepath.Separator)
}

// Contains reports whether child equals parent or lies beneath it.
// Both paths must already be normalized.
func Contains(parent, child string) bool {
	if parent == child {
		return true
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
