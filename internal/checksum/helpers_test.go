package checksum

import (
	"archive/zip"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"filecrawl/internal/fsutil/fsutiltest"
	"filecrawl/internal/logger"
)

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

func observeErrors(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.ErrorLevel)
	t.Cleanup(logger.SetLogger(zap.New(core)))
	return logs
}

// gateFS blocks the first Open until release is closed.
type gateFS struct {
	*fsutiltest.CountingFS
	opened  chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateFS() *gateFS {
	return &gateFS{
		CountingFS: fsutiltest.New(),
		opened:     make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gateFS) Open(path string) (io.ReadCloser, error) {
	g.once.Do(func() {
		close(g.opened)
		<-g.release
	})
	return g.CountingFS.Open(path)
}

func (e *Engine) waiters(key string) int {
	e.flightMu.Lock()
	defer e.flightMu.Unlock()
	if f, ok := e.flights[key]; ok {
		return f.waiters
	}
	return 0
}
