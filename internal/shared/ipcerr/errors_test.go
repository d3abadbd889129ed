package ipcerr

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrno(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want syscall.Errno
	}{
		{"nil", nil, 0},
		{"no space", fmt.Errorf("create: %w", ErrNoSpace), syscall.ENOSPC},
		{"invalid argument", fmt.Errorf("attach 3: %w", ErrInvalidArgument), syscall.EINVAL},
		{"io with errno", IO("mmap", syscall.ENOMEM), syscall.ENOMEM},
		{"io without errno", IO("dial", errors.New("refused")), syscall.EIO},
		{"unclassified", errors.New("boom"), syscall.EIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Errno(tt.err))
		})
	}
}

func TestIOWrapsBoth(t *testing.T) {
	cause := syscall.ENOENT
	err := IO("shm_open", cause)

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "shm_open")
}
