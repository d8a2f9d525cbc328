package checksum

import (
	"fmt"
	"strings"
)

// UnknownAlgorithmError is returned for an algorithm name that is not
// registered.
type UnknownAlgorithmError struct {
	Name string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unknown algorithm %q. Available: %s", e.Name, strings.Join(Algorithms(), ", "))
}

// NotHashableError is returned for nodes without file content such as
// directories and unreadable paths.
type NotHashableError struct {
	Path   string
	Reason string
}

func (e *NotHashableError) Error() string {
	return fmt.Sprintf("cannot hash %s: %s", e.Path, e.Reason)
}
