//go:build windows

package fsutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// IsHidden reports whether path carries the hidden attribute or a dot prefix.
func IsHidden(path string) bool {
	if base := filepath.Base(path); len(base) > 1 && base != ".." && strings.HasPrefix(base, ".") {
		return true
	}
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
