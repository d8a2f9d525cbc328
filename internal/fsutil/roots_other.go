//go:build !windows

package fsutil

// Roots returns the filesystem roots. Unix systems have exactly one.
func Roots() []string {
	return []string{"/"}
}
