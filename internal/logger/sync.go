package logger

import (
	"errors"
	"syscall"
)

func isInvalidSync(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
