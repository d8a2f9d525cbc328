package node

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"filecrawl/internal/archive"
	"filecrawl/internal/fsutil/fsutiltest"
	"filecrawl/internal/logger"
	"filecrawl/internal/predicate"
)

func mkfile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func names(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	return out
}

func newTestProvider(fs *fsutiltest.CountingFS) *Provider {
	return NewProvider(fs, archive.NewRegistry(4), Options{})
}

func TestChildren_ListsOnceAndSorts(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "b.txt"), "b")
	mkfile(t, filepath.Join(root, "a.txt"), "a")
	require.NoError(t, os.Mkdir(filepath.Join(root, "A"), 0o755))

	fs := fsutiltest.New()
	n := newTestProvider(fs).New(root, nil)
	require.Equal(t, KindRegular, n.Kind())
	assert.False(t, n.Materialized())

	all := n.Children(predicate.AcceptAll)
	assert.Equal(t, []string{"A", "a.txt", "b.txt"}, names(all))
	assert.True(t, n.Materialized())

	txt := n.Children(predicate.Suffix(".txt"))
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(txt))
	assert.Same(t, all[1], txt[0])

	dirs := n.Children(predicate.AcceptDir)
	assert.Equal(t, []string{"A"}, names(dirs))

	assert.Equal(t, 1, fs.ReadDirCalls(root))
}

func TestChildren_LocaleOrder(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "Zeta.txt"), "")
	mkfile(t, filepath.Join(root, "Équipe.txt"), "")
	mkfile(t, filepath.Join(root, "alpha.txt"), "")

	n := newTestProvider(fsutiltest.New()).New(root, nil)
	assert.Equal(t, []string{"alpha.txt", "Équipe.txt", "Zeta.txt"}, names(n.Children(nil)))
}

func TestInvalidate(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.txt"), "")

	fs := fsutiltest.New()
	n := newTestProvider(fs).New(root, nil)
	require.Len(t, n.Children(nil), 1)

	mkfile(t, filepath.Join(root, "c.txt"), "")
	assert.Len(t, n.Children(nil), 1, "cached listing is kept")

	n.Invalidate()
	assert.False(t, n.Materialized())
	assert.Equal(t, []string{"a.txt", "c.txt"}, names(n.Children(nil)))
	assert.Equal(t, 2, fs.ReadDirCalls(root))
}

func TestChildren_SharedAcrossGoroutines(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.png", "c.txt"} {
		mkfile(t, filepath.Join(root, name), name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	fs := fsutiltest.New()
	n := newTestProvider(fs).New(root, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			all := n.Children(predicate.AcceptAll)
			assert.Equal(t, []string{"sub", "a.txt", "b.png", "c.txt"}, names(all))
			assert.Len(t, n.Children(predicate.Suffix(".txt")), 2)
			for _, c := range all {
				c.Hash("sha256")
				c.ContentType()
				c.Children(nil)
			}
			if i%8 == 0 {
				n.Hash("md5").Set("x")
			}
			n.Hashes()
			n.Materialized()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, fs.ReadDirCalls(root))
	assert.Equal(t, 1, fs.ReadDirCalls(filepath.Join(root, "sub")))
	assert.Equal(t, "image/png", n.Children(predicate.Suffix(".png"))[0].ContentType())
}

func TestUnreadableNode(t *testing.T) {
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	mkfile(t, filepath.Join(locked, "secret.txt"), "x")
	mkfile(t, filepath.Join(root, "open.txt"), "y")

	fs := fsutiltest.New()
	fs.MakeUnreadable(locked)
	p := newTestProvider(fs)

	children := p.New(root, nil).Children(predicate.AcceptAll)
	require.Equal(t, []string{"locked", "open.txt"}, names(children))

	u := children[0]
	assert.Equal(t, KindUnreadable, u.Kind())
	assert.False(t, u.IsReadable())
	assert.True(t, u.IsDir())
	assert.True(t, u.IsLeaf())
	assert.False(t, u.Hashable())
	assert.Empty(t, u.Children(predicate.AcceptAll))
	assert.True(t, u.Materialized())
	_, hasCreated := u.Created()
	assert.False(t, hasCreated)
	assert.Equal(t, 0, fs.ReadDirCalls(locked))

	_, err := u.Open()
	assert.ErrorIs(t, err, os.ErrPermission)

	assert.Empty(t, p.New(root, nil).Children(predicate.AcceptDir), "unreadable directories are not accepted")
}

func TestFailedListing(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logger.SetLogger(zap.New(core))()

	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.txt"), "")

	fs := fsutiltest.New()
	fs.FailReadDir(root, errors.New("stale handle"))
	n := newTestProvider(fs).New(root, nil)

	assert.Empty(t, n.Children(nil))
	assert.True(t, n.Materialized())
	assert.Empty(t, n.Children(nil))
	assert.Equal(t, 1, fs.ReadDirCalls(root), "failed listing is not retried")
	assert.Equal(t, 1, logs.FilterMessageSnippet("stale handle").Len())
}

func TestAttributes(t *testing.T) {
	root := t.TempDir()
	img := filepath.Join(root, "pic.png")
	mkfile(t, img, "\x89PNG\r\n\x1a\n")
	mkfile(t, filepath.Join(root, ".hidden"), "")
	mkfile(t, filepath.Join(root, "notes.md"), "")

	p := newTestProvider(fsutiltest.New())
	dir := p.New(root, nil)
	assert.Equal(t, DirectoryLength, dir.Size())
	assert.Equal(t, "Folder", dir.TypeDescription())
	assert.Equal(t, "inode/directory", dir.ContentType())
	assert.Equal(t, depthOf(root), dir.Depth())

	file := p.New(img, dir)
	assert.EqualValues(t, 8, file.Size())
	assert.Equal(t, "Portable Network Graphic", file.TypeDescription())
	assert.Equal(t, "image/png", file.ContentType())
	assert.True(t, file.IsLeaf())
	assert.True(t, file.Hashable())
	assert.Equal(t, dir.Depth()+1, file.Depth())
	assert.Same(t, dir, file.Parent())

	hidden := p.New(filepath.Join(root, ".hidden"), dir)
	assert.True(t, hidden.IsHidden())
	assert.Equal(t, "MD File", p.New(filepath.Join(root, "notes.md"), dir).TypeDescription())

	assert.True(t, Equal(file, p.New(filepath.Join(root, ".", "pic.png"), nil)))
	assert.False(t, Equal(file, dir))
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestArchiveNode(t *testing.T) {
	root := t.TempDir()
	bundle := filepath.Join(root, "bundle.zip")
	writeZip(t, bundle, map[string]string{
		"top.txt":         "top",
		"docs/readme.txt": "hello",
	})

	p := newTestProvider(fsutiltest.New())
	dir := p.New(root, nil)
	children := dir.Children(nil)
	require.Len(t, children, 1)

	zn, ok := children[0].(*ArchiveNode)
	require.True(t, ok)
	assert.Equal(t, KindArchive, zn.Kind())
	assert.True(t, zn.IsMountPoint())
	assert.True(t, zn.IsDir())
	assert.True(t, zn.Hashable())
	assert.Equal(t, "bundle.zip", zn.Name())
	assert.Equal(t, "ZIP Archive", zn.TypeDescription())
	assert.Equal(t, bundle, zn.Path())

	entries := zn.Children(nil)
	require.Equal(t, []string{"docs", "top.txt"}, names(entries))
	docs := entries[0]
	assert.True(t, docs.IsDir())
	assert.Equal(t, DirectoryLength, docs.Size())
	assert.Equal(t, "/docs", docs.Path())

	inner := docs.Children(predicate.Suffix("txt"))
	require.Len(t, inner, 1)
	readme := inner[0]
	assert.Equal(t, "/docs/readme.txt", readme.Path())
	assert.Equal(t, zn.Key()+"!/docs/readme.txt", readme.Key())
	assert.Equal(t, zn.Depth()+2, readme.Depth())
	assert.EqualValues(t, 5, readme.Size())
	chain := PathToRoot(readme)
	require.Len(t, chain, 4)
	assert.Same(t, dir, chain[3])

	rc, err := readme.Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))
}

func TestArchiveNode_MountRetiredByOtherReader(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "bundle.zip")
	writeZip(t, bundle, map[string]string{"docs/readme.txt": "hello"})

	mounts := archive.NewRegistry(4)
	defer mounts.Close()
	p := NewProvider(fsutiltest.New(), mounts, Options{})
	zn := p.New(bundle, nil)

	held := mounts.Mount(bundle)
	require.NotNil(t, held)
	rc, err := held.Open("docs/readme.txt")
	require.NoError(t, err)
	require.True(t, mounts.Unmount(bundle))
	require.True(t, held.Retired())

	docs := zn.Children(nil)
	require.Equal(t, []string{"docs"}, names(docs))
	readme := docs[0].Children(nil)
	require.Len(t, readme, 1)
	entry, err := readme[0].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(entry)
	require.NoError(t, err)
	require.NoError(t, entry.Close())
	assert.Equal(t, "hello", string(body))

	require.NoError(t, rc.Close())
	assert.True(t, held.Closed())
}

func TestArchiveNode_Corrupt(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "broken.zip"), "garbage")

	n := newTestProvider(fsutiltest.New()).New(filepath.Join(root, "broken.zip"), nil)
	require.Equal(t, KindArchive, n.Kind())
	assert.Empty(t, n.Children(nil))
	assert.True(t, n.Materialized())
}

func TestArchiveNode_NoRegistry(t *testing.T) {
	root := t.TempDir()
	writeZip(t, filepath.Join(root, "a.zip"), map[string]string{"x": "1"})

	p := NewProvider(fsutiltest.New(), nil, Options{})
	n := p.New(filepath.Join(root, "a.zip"), nil)
	assert.Equal(t, KindRegular, n.Kind())
	assert.False(t, n.IsDir())
}

func TestWeakParent(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.txt"), "")

	p := newTestProvider(fsutiltest.New())
	child := func() Node {
		parent := p.New(root, nil)
		return parent.Children(nil)[0]
	}()

	for i := 0; i < 10 && child.Parent() != nil; i++ {
		runtime.GC()
	}
	assert.Nil(t, child.Parent(), "a child does not keep its parent alive")
	assert.Equal(t, "a.txt", child.Name())
}

func TestRootNode(t *testing.T) {
	sys := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(sys, "usr"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(sys, "etc"), 0o755))
	home := t.TempDir()

	fs := fsutiltest.New()
	fs.Home = home
	p := newTestProvider(fs)
	p.roots = func() []string { return []string{sys} }

	r := p.Root()
	assert.Same(t, r, p.Root())
	assert.Equal(t, KindRoot, r.Kind())
	assert.Nil(t, r.Parent())
	assert.Equal(t, 0, r.Depth())
	assert.Equal(t, DirectoryLength, r.Size())
	assert.True(t, r.IsReadable())
	assert.False(t, r.IsLeaf())

	children := r.Children(predicate.AcceptDir)
	require.Len(t, children, 3)
	got := map[string]bool{}
	for _, c := range children {
		got[c.Path()] = true
		assert.Same(t, r, c.Parent())
	}
	assert.True(t, got[filepath.Join(sys, "usr")])
	assert.True(t, got[filepath.Join(sys, "etc")])
	assert.True(t, got[home])
}

func TestRootNode_Drives(t *testing.T) {
	c, d := t.TempDir(), t.TempDir()
	fs := fsutiltest.New()
	fs.Home = c
	fs.MakeUnreadable(d)
	p := newTestProvider(fs)
	p.roots = func() []string { return []string{c, d} }

	children := p.Root().Children(nil)
	require.Len(t, children, 2, "a home directory equal to a drive is listed once")
	kinds := map[string]Kind{}
	for _, n := range children {
		kinds[n.Path()] = n.Kind()
	}
	assert.Equal(t, KindRegular, kinds[c])
	assert.Equal(t, KindUnreadable, kinds[d])
}

func TestHashCell(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "f"), "")
	n := newTestProvider(fsutiltest.New()).New(filepath.Join(root, "f"), nil)

	cell := n.Hash("sha256")
	_, ok := cell.Value()
	assert.False(t, ok)
	assert.Same(t, cell, n.Hash("sha256"))
	assert.Empty(t, n.Hashes())

	cell.Set("abc")
	n.Hash("md5").Fail(errors.New("boom"))
	assert.Equal(t, map[string]string{"sha256": "abc", "md5": HashErrorMarker}, n.Hashes())
	assert.EqualError(t, n.Hash("md5").Err(), "boom")

	cell.Reset()
	_, ok = cell.Value()
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "regular", KindRegular.String())
	assert.Equal(t, "unreadable", KindUnreadable.String())
	assert.Equal(t, "archive", KindArchive.String())
	assert.Equal(t, "root", KindRoot.String())
}
