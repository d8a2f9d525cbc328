//go:build windows

package fsutil

import (
	"io/fs"
	"syscall"
	"time"
)

// CreationTime returns the creation time recorded by NTFS.
func CreationTime(_ string, info fs.FileInfo) (time.Time, bool) {
	if info == nil {
		return time.Time{}, false
	}
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(0, data.CreationTime.Nanoseconds()), true
}
