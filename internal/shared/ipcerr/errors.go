// Package ipcerr defines the error taxonomy shared by the broker and the shims.
//
// Every failure surfaced to a legacy call site is one of three kinds:
//   - ErrIO: transport, open or mapping failures
//   - ErrNoSpace: segment table exhaustion
//   - ErrInvalidArgument: dead or out-of-range identifiers, oversized payloads
//
// Errors are wrapped with fmt.Errorf("...: %w") so callers test with errors.Is,
// and Errno converts any of them to the errno value a C caller expects.
package ipcerr

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	ErrIO              = errors.New("i/o failure")
	ErrNoSpace         = errors.New("no space left")
	ErrInvalidArgument = errors.New("invalid argument")
)

// IO wraps cause as an ErrIO, keeping cause reachable through errors.Is/As.
func IO(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIO, cause)
}

// Errno maps err to the errno reported through the legacy sentinel-plus-errno contract.
// An ErrIO carrying an underlying syscall.Errno reports that errno; otherwise EIO.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrNoSpace):
		return syscall.ENOSPC
	case errors.Is(err, ErrInvalidArgument):
		return syscall.EINVAL
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return errno
	}
	return syscall.EIO
}
