// Package predicate classifies filesystem paths for crawls and node listings.
package predicate

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Predicate reports whether a path is accepted. d describes the entry at
// path and is never nil.
type Predicate func(path string, d fs.DirEntry) bool

var (
	imageSuffixes   = []string{".gif", ".jpg", ".jpeg", ".jpe", ".jif", ".jfif", ".jfi", ".png", ".bmp"}
	fontSuffixes    = []string{".ttf", ".otf", ".woff", ".woff2"}
	archiveSuffixes = []string{".zip", ".jar"}
)

// AcceptAll accepts every path.
func AcceptAll(string, fs.DirEntry) bool { return true }

// AcceptDir accepts readable directories. Entries that cannot tell
// whether they are readable are assumed readable.
func AcceptDir(_ string, d fs.DirEntry) bool {
	if !d.IsDir() {
		return false
	}
	if r, ok := d.(interface{ Readable() bool }); ok {
		return r.Readable()
	}
	return true
}

// AcceptFile accepts everything that is not a directory.
func AcceptFile(_ string, d fs.DirEntry) bool { return !d.IsDir() }

// Suffix accepts non-directories whose name ends in one of suffixes,
// compared case-insensitively. Suffixes may be given with or without the
// leading dot.
func Suffix(suffixes ...string) Predicate {
	want := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		want = append(want, s)
	}
	return func(path string, d fs.DirEntry) bool {
		if d.IsDir() {
			return false
		}
		name := strings.ToLower(filepath.Base(path))
		for _, s := range want {
			if strings.HasSuffix(name, s) {
				return true
			}
		}
		return false
	}
}

// IsImage accepts files with a known image suffix.
func IsImage() Predicate { return Suffix(imageSuffixes...) }

// IsFont accepts files with a known font suffix.
func IsFont() Predicate { return Suffix(fontSuffixes...) }

// IsArchive accepts files with one of the archive suffixes; defaults to
// zip and jar when none are given.
func IsArchive(suffixes ...string) Predicate {
	if len(suffixes) == 0 {
		suffixes = archiveSuffixes
	}
	return Suffix(suffixes...)
}

// Contains accepts paths whose base name contains substr.
func Contains(substr string, ignoreCase bool) Predicate {
	if ignoreCase {
		substr = strings.ToLower(substr)
	}
	return func(path string, _ fs.DirEntry) bool {
		name := filepath.Base(path)
		if ignoreCase {
			name = strings.ToLower(name)
		}
		return strings.Contains(name, substr)
	}
}

// Regexp accepts paths whose base name matches pattern.
func Regexp(pattern string, ignoreCase bool) (Predicate, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return func(path string, _ fs.DirEntry) bool {
		return re.MatchString(filepath.Base(path))
	}, nil
}

// Glob accepts paths whose base name matches a doublestar pattern. Patterns
// containing a separator are matched against the whole slash-separated path
// with any leading slash removed.
func Glob(pattern string, ignoreCase bool) (Predicate, error) {
	if ignoreCase {
		pattern = strings.ToLower(pattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	whole := strings.Contains(pattern, "/")
	return func(path string, _ fs.DirEntry) bool {
		subject := filepath.Base(path)
		if whole {
			subject = strings.TrimPrefix(filepath.ToSlash(path), "/")
		}
		if ignoreCase {
			subject = strings.ToLower(subject)
		}
		ok, _ := doublestar.Match(pattern, subject)
		return ok
	}, nil
}

// NotHidden rejects dot files and dot directories.
func NotHidden(path string, _ fs.DirEntry) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") || base == "." || base == ".."
}

// MinSize accepts directories and files of at least n bytes.
func MinSize(n int64) Predicate {
	return sizeCheck(func(size int64) bool { return size >= n })
}

// MaxSize accepts directories and files of at most n bytes.
func MaxSize(n int64) Predicate {
	return sizeCheck(func(size int64) bool { return size <= n })
}

func sizeCheck(ok func(int64) bool) Predicate {
	return func(_ string, d fs.DirEntry) bool {
		if d.IsDir() {
			return true
		}
		info, err := d.Info()
		if err != nil {
			return false
		}
		return ok(info.Size())
	}
}

// MinAge accepts entries last modified at least age ago.
func MinAge(age time.Duration) Predicate {
	return ageCheck(func(a time.Duration) bool { return a >= age })
}

// MaxAge accepts entries last modified at most age ago.
func MaxAge(age time.Duration) Predicate {
	return ageCheck(func(a time.Duration) bool { return a <= age })
}

func ageCheck(ok func(time.Duration) bool) Predicate {
	return func(_ string, d fs.DirEntry) bool {
		info, err := d.Info()
		if err != nil {
			return false
		}
		return ok(time.Since(info.ModTime()))
	}
}

// And accepts when every predicate accepts. An empty And accepts all.
func And(preds ...Predicate) Predicate {
	return func(path string, d fs.DirEntry) bool {
		for _, p := range preds {
			if p != nil && !p(path, d) {
				return false
			}
		}
		return true
	}
}

// Or accepts when any predicate accepts. An empty Or accepts nothing.
func Or(preds ...Predicate) Predicate {
	return func(path string, d fs.DirEntry) bool {
		for _, p := range preds {
			if p != nil && p(path, d) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(path string, d fs.DirEntry) bool {
		return !p(path, d)
	}
}
