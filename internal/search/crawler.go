package search

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"filecrawl/internal/fsutil"
	"filecrawl/internal/logger"
	"filecrawl/internal/metrics"
	"filecrawl/internal/predicate"
)

// Crawler walks one root depth-first and publishes every path accepted by
// its predicate to a shared queue. Exactly one Done entry follows the
// last match.
type Crawler struct {
	fs    fsutil.FileSystem
	root  string
	pred  predicate.Predicate
	queue chan<- Entry

	excludeHidden bool
	skipCommon    bool
	follow        bool
	excludeNames  map[string]bool
	excludePaths  []string

	realPath func(string) (string, error)
	visited  map[string]bool
}

// NewCrawler validates root and returns a crawler for it. The root must be
// an existing, readable directory.
func NewCrawler(fsys fsutil.FileSystem, root string, pred predicate.Predicate, queue chan<- Entry, opts Options) (*Crawler, error) {
	if pred == nil {
		return nil, ErrNilPredicate
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	if fsys == nil {
		fsys = fsutil.NewOSFileSystem()
	}

	info, err := fsys.Stat(root)
	if err != nil {
		return nil, &RootError{Root: root, Cause: err}
	}
	if !info.IsDir() {
		return nil, &RootError{Root: root, Cause: ErrNotDirectory}
	}
	if !fsys.Readable(root) {
		return nil, &RootError{Root: root, Cause: ErrNotReadable}
	}

	c := &Crawler{
		fs:            fsys,
		root:          root,
		pred:          pred,
		queue:         queue,
		excludeHidden: opts.ExcludeHidden,
		skipCommon:    opts.SkipCommonDirs,
		follow:        opts.FollowSymlinks,
		excludeNames:  make(map[string]bool),
		realPath:      filepath.EvalSymlinks,
	}
	for _, d := range opts.ExcludeDirs {
		if strings.ContainsAny(d, `/\`) {
			c.excludePaths = append(c.excludePaths, fsutil.Normalize(d))
		} else if d != "" {
			c.excludeNames[d] = true
		}
	}
	return c, nil
}

// Root returns the directory the crawler walks.
func (c *Crawler) Root() string { return c.root }

// Run walks the root. It returns ctx.Err() when cancelled and nil
// otherwise; directories that cannot be listed are logged and skipped.
// The Done entry is published even after a cancellation when the queue
// has room for it.
func (c *Crawler) Run(ctx context.Context) error {
	metrics.CrawlersRunning.Inc()
	defer metrics.CrawlersRunning.Dec()
	defer c.publishDone(ctx)

	if c.follow {
		c.visited = make(map[string]bool)
		if real, err := c.realPath(c.root); err == nil {
			c.visited[real] = true
		}
	}
	logger.LogDebug("Crawling %s", c.root)
	return c.walk(ctx, c.root)
}

func (c *Crawler) walk(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		metrics.CrawlErrors.Inc()
		logger.LogWarning("Failed to walk directory %s: %v", dir, err)
		return nil
	}
	metrics.CrawlDirectories.Inc()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())
		if c.excludeHidden && fsutil.IsHidden(path) {
			continue
		}

		if c.pred(path, crawlEntry{DirEntry: entry, fs: c.fs, path: path}) {
			if err := c.publish(ctx, Match(path)); err != nil {
				return err
			}
		}

		if !c.descend(path, entry) {
			continue
		}
		if err := c.walk(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// descend reports whether the crawler enters path.
func (c *Crawler) descend(path string, entry fs.DirEntry) bool {
	isDir := entry.IsDir()
	if entry.Type()&fs.ModeSymlink != 0 {
		if !c.follow {
			return false
		}
		info, err := c.fs.Stat(path)
		isDir = err == nil && info.IsDir()
	}
	if !isDir || c.skip(path, entry.Name()) {
		return false
	}
	if c.follow {
		real, err := c.realPath(path)
		if err != nil {
			return false
		}
		if c.visited[real] {
			logger.LogDebug("Skipping already visited directory: %s", path)
			return false
		}
		c.visited[real] = true
	}
	return true
}

func (c *Crawler) skip(path, name string) bool {
	skip := c.excludeNames[name] || (c.skipCommon && commonDirs[name])
	if !skip && len(c.excludePaths) > 0 {
		norm := fsutil.Normalize(path)
		for _, prefix := range c.excludePaths {
			if fsutil.Contains(prefix, norm) {
				skip = true
				break
			}
		}
	}
	if skip {
		logger.LogDebug("Skipping directory: %s", path)
	}
	return skip
}

func (c *Crawler) publish(ctx context.Context, e Entry) error {
	select {
	case c.queue <- e:
		metrics.CrawlMatches.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Crawler) publishDone(ctx context.Context) {
	select {
	case c.queue <- Done():
		return
	case <-ctx.Done():
	}
	// Cancelled: the consumer may be gone, so only send if there is room.
	select {
	case c.queue <- Done():
	default:
		logger.LogDebug("Dropped completion of %s after cancellation", c.root)
	}
}

// crawlEntry lets predicates ask whether a directory entry is readable.
type crawlEntry struct {
	fs.DirEntry
	fs   fsutil.FileSystem
	path string
}

func (e crawlEntry) Readable() bool { return e.fs.Readable(e.path) }
