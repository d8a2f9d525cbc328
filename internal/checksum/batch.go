package checksum

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"filecrawl/internal/node"
)

// Progress is called after each node of a batch with the number of nodes
// handled so far and the batch size.
type Progress func(done, total int)

// Result is the outcome for one node of a batch.
type Result struct {
	Node   node.Node
	Digest string
	// Skipped is set for nodes without content.
	Skipped bool
	Err     error
}

// BatchResult collects the outcome of a batch.
type BatchResult struct {
	Algorithm string
	// Results is in processing order for Sequential and completion order
	// for Concurrent.
	Results []Result
	// Err joins every per-node failure and the context error, if any.
	Err error
}

// Digests maps node keys to the digests computed in the batch.
func (b *BatchResult) Digests() map[string]string {
	out := make(map[string]string, len(b.Results))
	for _, r := range b.Results {
		if r.Err == nil && !r.Skipped {
			out[r.Node.Key()] = r.Digest
		}
	}
	return out
}

// Failed returns the results of nodes whose digest could not be computed.
func (b *BatchResult) Failed() []Result {
	var failed []Result
	for _, r := range b.Results {
		if r.Err != nil && !r.Skipped {
			failed = append(failed, r)
		}
	}
	return failed
}

func (b *BatchResult) finish(ctxErr error) {
	var errs []error
	for _, r := range b.Failed() {
		errs = append(errs, r.Err)
	}
	if ctxErr != nil {
		errs = append(errs, ctxErr)
	}
	b.Err = errors.Join(errs...)
}

func (e *Engine) result(ctx context.Context, n node.Node, algo string) Result {
	d, err := e.Compute(ctx, n, algo)
	var nh *NotHashableError
	return Result{Node: n, Digest: d, Err: err, Skipped: errors.As(err, &nh)}
}

// Sequential hashes nodes one at a time. A failing node is recorded and
// the batch continues. Cancellation stops the batch before the next node.
func (e *Engine) Sequential(ctx context.Context, nodes []node.Node, algo string, progress Progress) (*BatchResult, error) {
	if !Supported(algo) {
		return nil, &UnknownAlgorithmError{Name: algo}
	}
	res := &BatchResult{Algorithm: algo, Results: make([]Result, 0, len(nodes))}
	for i, n := range nodes {
		if ctx.Err() != nil {
			break
		}
		r := e.result(ctx, n, algo)
		if r.Err != nil && ctx.Err() != nil {
			break
		}
		res.Results = append(res.Results, r)
		if progress != nil {
			progress(i+1, len(nodes))
		}
	}
	res.finish(ctx.Err())
	return res, nil
}

// Concurrent hashes nodes on a bounded pool and reports progress in
// completion order. Nodes already cached or without content are resolved without a task.
// When ctx is cancelled the outstanding tasks are cancelled and awaited,
// and the results gathered so far are returned.
func (e *Engine) Concurrent(ctx context.Context, nodes []node.Node, algo string, progress Progress) (*BatchResult, error) {
	if !Supported(algo) {
		return nil, &UnknownAlgorithmError{Name: algo}
	}
	res := &BatchResult{Algorithm: algo, Results: make([]Result, 0, len(nodes))}
	total := len(nodes)
	report := func(r Result) {
		res.Results = append(res.Results, r)
		if progress != nil {
			progress(len(res.Results), total)
		}
	}

	var todo []node.Node
	for _, n := range nodes {
		if !n.Hashable() || !n.IsReadable() {
			report(e.result(ctx, n, algo))
			continue
		}
		if _, ok := e.cached(cacheKey{key: n.Key(), algo: algo}, n.Hash(algo)); ok {
			report(e.result(ctx, n, algo))
			continue
		}
		todo = append(todo, n)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	completed := make(chan Result, len(todo))
	go func() {
		defer close(completed)
		var g errgroup.Group
		g.SetLimit(e.opts.Workers)
		for _, n := range todo {
			g.Go(func() error {
				completed <- e.result(ctx, n, algo)
				return nil
			})
		}
		g.Wait()
	}()

	var ctxErr error
collect:
	for range todo {
		select {
		case r := <-completed:
			if r.Err != nil && ctx.Err() != nil {
				ctxErr = ctx.Err()
				break collect
			}
			report(r)
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break collect
		}
	}
	cancel()
	for range completed {
	}

	res.finish(ctxErr)
	return res, nil
}
