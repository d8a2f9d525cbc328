package node

import (
	"path/filepath"
	"strings"
)

var imageDescriptions = map[string]string{
	".gif":  "Graphic",
	".jpg":  "Joint Picture",
	".jpeg": "Joint Picture",
	".jpe":  "Joint Picture",
	".jif":  "Joint Picture",
	".jfif": "Joint Picture",
	".jfi":  "Joint Picture",
	".png":  "Portable Network Graphic",
	".bmp":  "Bitmap",
}

func describe(name string, dir bool) string {
	if dir {
		return "Folder"
	}
	ext := strings.ToLower(filepath.Ext(name))
	if d, ok := imageDescriptions[ext]; ok {
		return d
	}
	if len(ext) < 2 {
		return "File"
	}
	return strings.ToUpper(ext[1:]) + " File"
}

func describeArchive(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 2 {
		return "Archive"
	}
	return strings.ToUpper(ext[1:]) + " Archive"
}

// depthOf counts the elements of a path after its volume name.
func depthOf(path string) int {
	path = filepath.ToSlash(strings.TrimPrefix(path, filepath.VolumeName(path)))
	return len(strings.FieldsFunc(path, func(r rune) bool { return r == '/' }))
}

func displayName(path string) string {
	name := filepath.Base(path)
	if name == string(filepath.Separator) || name == "." || strings.HasSuffix(path, ":"+string(filepath.Separator)) {
		return path
	}
	return name
}
