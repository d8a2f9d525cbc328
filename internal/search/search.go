// Package search crawls directory trees concurrently and collects the
// paths accepted by a predicate.
package search

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"filecrawl/internal/fsutil"
	"filecrawl/internal/logger"
	"filecrawl/internal/predicate"
)

// Search runs one crawler per planned root and collects their matches
// until every crawler has finished. Roots that fail validation are
// reported in Result.RootErrors while the others proceed. When ctx is
// cancelled or the timeout expires, Search stops the crawlers, waits for
// them to return and hands back the matches received so far with
// Result.Err set; such a result is not guaranteed to be complete.
func Search(ctx context.Context, roots []string, pred predicate.Predicate, opts Options) (*Result, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	if pred == nil {
		return nil, ErrNilPredicate
	}
	opts = opts.withDefaults()

	if opts.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, opts.Timeout)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &Result{}
	queue := make(chan Entry, opts.BufferSize)

	var crawlers []*Crawler
	for _, root := range PlanRoots(roots, opts.CrawlVolumes) {
		c, err := NewCrawler(opts.FS, root, pred, queue, opts)
		if err != nil {
			var rootErr *RootError
			if !errors.As(err, &rootErr) {
				rootErr = &RootError{Root: root, Cause: err}
			}
			logger.LogWarning("Skipping search root: %v", rootErr)
			res.RootErrors = append(res.RootErrors, rootErr)
			continue
		}
		crawlers = append(crawlers, c)
	}
	res.Crawlers = len(crawlers)
	if len(crawlers) == 0 {
		return res, nil
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for _, c := range crawlers {
			g.Go(func() error {
				return c.Run(ctx)
			})
		}
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			logger.LogDebug("Crawler stopped: %v", err)
		}
	}()

	outstanding := len(crawlers)
drain:
	for outstanding > 0 {
		select {
		case e := <-queue:
			if e.IsDone() {
				outstanding--
				continue
			}
			res.Matches = append(res.Matches, e.Path())
			if opts.OnMatch != nil {
				opts.OnMatch(e.Path())
			}
		case <-ctx.Done():
			res.Err = ctx.Err()
			break drain
		}
	}

	cancel()
	<-finished
	logger.LogInfo("Search finished: %d matches from %d roots", len(res.Matches), res.Crawlers)
	return res, nil
}

// PlanRoots returns the roots to crawl as absolute paths in their on-disk
// form. With volumes set every root is replaced by the root of its volume.
// Otherwise roots lying inside another requested root are dropped.
// Duplicates are removed in both modes and the input order of the kept
// roots is preserved. Roots are compared by their normalized form.
func PlanRoots(roots []string, volumes bool) []string {
	type root struct{ key, path string }

	seen := make(map[string]bool, len(roots))
	var planned []root
	for _, r := range roots {
		p := root{key: fsutil.Normalize(r), path: fsutil.Abs(r)}
		if volumes {
			p.path = fsutil.VolumeRoot(r)
			p.key = p.path
		}
		if !seen[p.key] {
			seen[p.key] = true
			planned = append(planned, p)
		}
	}

	nested := make(map[string]bool)
	if !volumes {
		// Check shorter paths first so a root is compared against every
		// possible ancestor.
		byLen := append([]root(nil), planned...)
		sort.SliceStable(byLen, func(i, j int) bool { return len(byLen[i].key) < len(byLen[j].key) })
		for i, child := range byLen {
			for _, parent := range byLen[:i] {
				if !nested[parent.key] && fsutil.Contains(parent.key, child.key) {
					nested[child.key] = true
					break
				}
			}
		}
	}

	kept := make([]string, 0, len(planned))
	for _, r := range planned {
		if !nested[r.key] {
			kept = append(kept, r.path)
		}
	}
	return kept
}
