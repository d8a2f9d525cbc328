package archive

import "errors"

// ErrMountClosed is returned by a Mount that was evicted or unmounted. A
// retired mount refuses new readers at once, while readers opened earlier
// stay usable until they are closed.
var ErrMountClosed = errors.New("archive mount closed")
