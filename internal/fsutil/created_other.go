//go:build !linux && !windows

package fsutil

import (
	"io/fs"
	"time"
)

// CreationTime is not available on this platform.
func CreationTime(_ string, _ fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
