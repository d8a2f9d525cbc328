package search

import (
	"errors"
	"fmt"
)

// Sentinel errors for invalid search requests.
var (
	ErrNoRoots      = errors.New("no search roots given")
	ErrNilPredicate = errors.New("predicate is nil")
	ErrNilQueue     = errors.New("queue is nil")

	// Root validation errors
	ErrNotDirectory = errors.New("not a directory")
	ErrNotReadable  = errors.New("not readable")
)

// RootError reports a search root that could not be crawled.
type RootError struct {
	Root  string
	Cause error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("search root %s: %v", e.Root, e.Cause)
}

func (e *RootError) Unwrap() error {
	return e.Cause
}
