package search

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filecrawl/internal/fsutil"
	"filecrawl/internal/fsutil/fsutiltest"
	"filecrawl/internal/metrics"
	"filecrawl/internal/predicate"
)

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestSearch_Scenario(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a/x.png", "a/y.txt", "b/z.png")

	var progress []string
	res, err := Search(context.Background(), []string{root}, predicate.Suffix(".png"), Options{
		OnMatch: func(p string) { progress = append(progress, p) },
	})
	require.NoError(t, err)
	require.NoError(t, res.Err)

	want := []string{
		filepath.Join(fsutil.Normalize(root), "a", "x.png"),
		filepath.Join(fsutil.Normalize(root), "b", "z.png"),
	}
	assert.Equal(t, want, sorted(res.Matches))
	assert.Equal(t, res.Matches, progress, "progress is reported per match in arrival order")
	assert.Equal(t, 1, res.Crawlers)
	assert.Empty(t, res.RootErrors)
}

func TestSearch_RequestErrors(t *testing.T) {
	_, err := Search(context.Background(), nil, predicate.AcceptAll, Options{})
	assert.ErrorIs(t, err, ErrNoRoots)

	_, err = Search(context.Background(), []string{t.TempDir()}, nil, Options{})
	assert.ErrorIs(t, err, ErrNilPredicate)
}

func TestSearch_PerRootErrors(t *testing.T) {
	good := t.TempDir()
	mkfile(t, good, "a.txt")
	other := t.TempDir()
	mkfile(t, other, "plain.txt")
	missing := filepath.Join(other, "missing")
	file := filepath.Join(other, "plain.txt")

	res, err := Search(context.Background(), []string{missing, good, file}, predicate.AcceptFile, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(fsutil.Normalize(good), "a.txt")}, res.Matches)
	require.Len(t, res.RootErrors, 2)
	assert.ErrorIs(t, res.RootErrors[0], fs.ErrNotExist)
	assert.ErrorIs(t, res.RootErrors[1], ErrNotDirectory)
	assert.Equal(t, 1, res.Crawlers)
}

func TestSearch_MultiRootDedup(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a/one.txt", "b/two.txt")

	tests := []struct {
		name     string
		roots    []string
		crawlers int
	}{
		{"same root twice", []string{root, root + string(filepath.Separator)}, 1},
		{"nested root merged", []string{filepath.Join(root, "a"), root}, 1},
		{"disjoint roots", []string{filepath.Join(root, "a"), filepath.Join(root, "b")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Search(context.Background(), tt.roots, predicate.Suffix(".txt"), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.crawlers, res.Crawlers)
			assert.Len(t, res.Matches, 2, "no duplicates and no omissions")
		})
	}
}

func TestPlanRoots(t *testing.T) {
	base := fsutil.Normalize(t.TempDir())
	a := filepath.Join(base, "a")
	ab := filepath.Join(base, "a", "b")
	c := filepath.Join(base, "c")

	assert.Equal(t, []string{a, c}, PlanRoots([]string{ab, a, c, a}, false))
	assert.Equal(t, []string{base}, PlanRoots([]string{ab, base}, false))

	vol := fsutil.VolumeRoot(base)
	assert.Equal(t, []string{vol}, PlanRoots([]string{a, c}, true))
}

func TestSearch_DecomposedRootName(t *testing.T) {
	// "Café" with a combining acute accent, as written by macOS.
	root := filepath.Join(t.TempDir(), "Cafe\u0301")
	mkfile(t, root, "x.png", "y.txt")

	assert.Equal(t, []string{root}, PlanRoots([]string{root}, false))

	res, err := Search(context.Background(), []string{root}, predicate.Suffix(".png"), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.RootErrors)
	assert.Equal(t, 1, res.Crawlers)
	assert.Equal(t, []string{filepath.Join(root, "x.png")}, res.Matches)
}

func TestSearch_ManyRootsLimitedWorkers(t *testing.T) {
	var roots []string
	for i := 0; i < 8; i++ {
		r := t.TempDir()
		mkfile(t, r, "x/f.dat", "g.dat")
		roots = append(roots, r)
	}

	res, err := Search(context.Background(), roots, predicate.Suffix("dat"), Options{Workers: 2, BufferSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Crawlers)
	assert.Len(t, res.Matches, 16)
}

// blockingFS stalls directory listings until released.
type blockingFS struct {
	*fsutiltest.CountingFS
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingFS) ReadDir(path string) ([]fs.DirEntry, error) {
	entries, err := b.CountingFS.ReadDir(path)
	b.once.Do(func() { close(b.started) })
	<-b.release
	return entries, err
}

func TestSearch_Cancellation(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a/b/c.txt", "d.txt")

	bfs := &blockingFS{
		CountingFS: fsutiltest.New(),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := Search(ctx, []string{root}, predicate.AcceptAll, Options{FS: bfs})
		done <- outcome{res, err}
	}()

	<-bfs.started
	cancel()
	// let the stalled listing return so the crawler can observe ctx
	close(bfs.release)

	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.ErrorIs(t, out.res.Err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("search did not stop after cancellation")
	}
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.CrawlersRunning) == 0
	}, time.Second, 10*time.Millisecond, "no crawler left running")
}

func TestSearch_Timeout(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a.txt")

	bfs := &blockingFS{
		CountingFS: fsutiltest.New(),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	go func() {
		<-bfs.started
		time.Sleep(100 * time.Millisecond)
		close(bfs.release)
	}()

	res, err := Search(context.Background(), []string{root}, predicate.AcceptAll, Options{
		FS:      bfs,
		Timeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
}
