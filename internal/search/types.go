package search

import (
	"runtime"
	"time"

	"filecrawl/internal/fsutil"
)

// Options controls a search.
type Options struct {
	// Workers bounds the number of crawlers running at once.
	Workers int
	// BufferSize is the capacity of the shared queue.
	BufferSize int
	// CrawlVolumes maps every root to the root of its volume and runs one
	// crawler per volume. Otherwise one crawler runs per requested root,
	// and roots nested in another requested root are merged into it.
	CrawlVolumes bool

	ExcludeDirs    []string // directory names, or path prefixes when they contain a separator
	SkipCommonDirs bool     // skip tool and system directories such as node_modules or .git
	ExcludeHidden  bool
	FollowSymlinks bool

	// Timeout stops the search after the given duration. Zero disables it.
	Timeout time.Duration
	// OnMatch is called from the coordinating goroutine for every match.
	OnMatch func(path string)

	// FS defaults to the OS filesystem.
	FS fsutil.FileSystem
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 1000
	}
	if o.FS == nil {
		o.FS = fsutil.NewOSFileSystem()
	}
	return o
}

// Entry is an element of the shared queue: either a matched path or the
// completion signal of one crawler.
type Entry struct {
	path string
	done bool
}

// Match returns an entry carrying a matched path.
func Match(path string) Entry { return Entry{path: path} }

// Done returns the completion entry.
func Done() Entry { return Entry{done: true} }

// IsDone reports whether e signals completion.
func (e Entry) IsDone() bool { return e.done }

// Path returns the matched path; it is empty for a completion entry.
func (e Entry) Path() string { return e.path }

// Result is the outcome of a search.
type Result struct {
	// Matches is in arrival order. After cancellation it holds whatever
	// arrived before the search stopped.
	Matches []string
	// RootErrors lists requested roots that could not be crawled.
	RootErrors []*RootError
	// Crawlers is the number of crawlers started.
	Crawlers int
	// Err is the context error when the search was cancelled or timed out.
	Err error
}

// commonDirs are skipped when Options.SkipCommonDirs is set.
var commonDirs = map[string]bool{
	"node_modules": true, ".git": true, ".svn": true,
	"target": true, "build": true, "dist": true,
	"__pycache__": true, ".idea": true, ".vscode": true,
	"$RECYCLE.BIN": true, "System Volume Information": true,
	"Windows": true, "Program Files": true, "Program Files (x86)": true,
	"ProgramData": true, "AppData": true, "Recovery": true,
}
