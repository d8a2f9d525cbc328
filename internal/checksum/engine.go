// Package checksum computes file digests for nodes and caches them per
// node identity and algorithm.
package checksum

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/singleflight"

	"filecrawl/internal/logger"
	"filecrawl/internal/metrics"
	"filecrawl/internal/node"
)

const defaultMinMMapSize = 1 << 20 // 1MB

// File read buffer pool
var bufferPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 32*1024)
	},
}

// Options configures an Engine.
type Options struct {
	// Workers bounds concurrent hashing in Concurrent. Defaults to the
	// number of CPUs.
	Workers int
	// UseMMap maps local files of at least MinMMapSize bytes instead of
	// reading them.
	UseMMap     bool
	MinMMapSize int64
}

type cacheKey struct {
	key  string
	algo string
}

// Engine computes digests. A digest is computed at most once per node
// identity and algorithm; concurrent requests for the same pair share one
// computation.
type Engine struct {
	opts Options

	mu    sync.RWMutex
	cache map[cacheKey]string

	group    singleflight.Group
	flightMu sync.Mutex
	flights  map[string]*flight
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MinMMapSize <= 0 {
		opts.MinMMapSize = defaultMinMMapSize
	}
	return &Engine{opts: opts, cache: make(map[cacheKey]string), flights: make(map[string]*flight)}
}

// Compute returns the hex digest of n for algo and stores it in the node's
// hash cell. A failed computation stores node.HashErrorMarker in the cell;
// a cancelled one leaves the cell untouched.
func (e *Engine) Compute(ctx context.Context, n node.Node, algo string) (string, error) {
	factory, ok := availableAlgos[algo]
	if !ok {
		return "", &UnknownAlgorithmError{Name: algo}
	}
	if !n.IsReadable() {
		return "", &NotHashableError{Path: n.Path(), Reason: "not readable"}
	}
	if !n.Hashable() {
		return "", &NotHashableError{Path: n.Path(), Reason: "no file content"}
	}

	ck := cacheKey{key: n.Key(), algo: algo}
	cell := n.Hash(algo)
	if d, ok := e.cached(ck, cell); ok {
		metrics.ChecksumCacheHits.WithLabelValues(algo).Inc()
		cell.Set(d)
		return d, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d, err := e.share(ctx, n, ck, cell, factory)
	if err != nil {
		if isCanceled(err) {
			return "", err
		}
		metrics.ChecksumFailures.WithLabelValues(algo).Inc()
		logger.LogError("Error computing %s hash for %s: %v", algo, n.Path(), err)
		cell.Fail(err)
		return "", err
	}
	cell.Set(d)
	return d, nil
}

// share joins the computation for ck, starting it when none is running.
// The computation is cancelled only when every joined caller has left. A
// caller whose own context is live retries when the computation it joined
// was cancelled by the others.
func (e *Engine) share(ctx context.Context, n node.Node, ck cacheKey, cell *node.HashCell, factory AlgoFactory) (string, error) {
	key := ck.algo + "\x00" + ck.key
	for {
		f := e.join(ctx, key)
		ch := e.group.DoChan(key, func() (interface{}, error) {
			defer e.finish(key, f)
			if d, ok := e.cached(ck, cell); ok {
				return d, nil
			}
			d, err := e.digest(f.ctx, n, factory())
			if err != nil {
				return "", err
			}
			metrics.ChecksumsComputed.WithLabelValues(ck.algo).Inc()
			e.mu.Lock()
			e.cache[ck] = d
			e.mu.Unlock()
			return d, nil
		})

		select {
		case r := <-ch:
			e.leave(key, f)
			if r.Err != nil {
				if isCanceled(r.Err) && ctx.Err() == nil {
					continue
				}
				return "", r.Err
			}
			return r.Val.(string), nil
		case <-ctx.Done():
			e.leave(key, f)
			return "", ctx.Err()
		}
	}
}

// flight is the cancellation scope of one shared computation.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (e *Engine) join(ctx context.Context, key string) *flight {
	e.flightMu.Lock()
	defer e.flightMu.Unlock()
	f, ok := e.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		e.flights[key] = f
	}
	f.waiters++
	return f
}

func (e *Engine) leave(key string, f *flight) {
	e.flightMu.Lock()
	defer e.flightMu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if e.flights[key] == f {
		delete(e.flights, key)
	}
}

// finish detaches f once its computation has returned so later callers
// start a new one.
func (e *Engine) finish(key string, f *flight) {
	e.flightMu.Lock()
	defer e.flightMu.Unlock()
	if e.flights[key] == f {
		delete(e.flights, key)
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (e *Engine) cached(ck cacheKey, cell *node.HashCell) (string, bool) {
	e.mu.RLock()
	d, ok := e.cache[ck]
	e.mu.RUnlock()
	if ok {
		return d, true
	}
	if v, done := cell.Value(); done && cell.Err() == nil {
		return v, true
	}
	return "", false
}

// Forget drops every cached digest of n so it is computed again.
func (e *Engine) Forget(n node.Node) {
	key := n.Key()
	e.mu.Lock()
	for ck := range e.cache {
		if ck.key == key {
			delete(e.cache, ck)
		}
	}
	e.mu.Unlock()
	for algo := range n.Hashes() {
		n.Hash(algo).Reset()
	}
}

func (e *Engine) digest(ctx context.Context, n node.Node, h hash.Hash) (string, error) {
	rc, err := n.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if f, ok := rc.(*os.File); ok && e.opts.UseMMap && n.Size() >= e.opts.MinMMapSize {
		sum, err := e.digestMMap(f, h)
		if err == nil {
			return sum, nil
		}
		logger.LogDebug("mmap failed for %s, reading instead: %v", n.Path(), err)
		h.Reset()
	}

	buf := bufferPool.Get().([]byte)
	defer bufferPool.Put(buf)
	written, err := io.CopyBuffer(h, &ctxReader{ctx: ctx, r: rc}, buf)
	metrics.ChecksumBytes.Add(float64(written))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", n.Path(), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (e *Engine) digestMMap(f *os.File, h hash.Hash) (string, error) {
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer data.Unmap()
	h.Write(data)
	metrics.ChecksumBytes.Add(float64(len(data)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ctxReader stops a copy once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
