package node

import "sync"

// HashErrorMarker is the value of a HashCell whose computation failed.
const HashErrorMarker = "Error computing Hash"

// HashCell holds the digest of one node for one algorithm.
type HashCell struct {
	mu    sync.RWMutex
	value string
	err   error
	done  bool
}

// Value returns the digest, or HashErrorMarker after a failure. ok is false
// until a computation has finished.
func (c *HashCell) Value() (value string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.done
}

// Err returns the error of the last failed computation.
func (c *HashCell) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Set stores a computed digest.
func (c *HashCell) Set(digest string) {
	c.mu.Lock()
	c.value, c.err, c.done = digest, nil, true
	c.mu.Unlock()
}

// Fail records a failed computation.
func (c *HashCell) Fail(err error) {
	c.mu.Lock()
	c.value, c.err, c.done = HashErrorMarker, err, true
	c.mu.Unlock()
}

// Reset clears the cell.
func (c *HashCell) Reset() {
	c.mu.Lock()
	c.value, c.err, c.done = "", nil, false
	c.mu.Unlock()
}
