//go:build unix

// Package mmseg reserves the anonymous, zero-filled memory segment backing
// the managed heap. On unix the segment is an anonymous private mapping so
// untouched pages cost nothing; elsewhere it falls back to a Go slice.
package mmseg

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Reserve maps an anonymous zero-filled segment of size bytes and returns
// it together with a release function.
func Reserve(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmseg: invalid segment size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, fmt.Errorf("mmseg: reserve %d bytes: %w", size, err)
	}
	release := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-release as no-op for callers.
			return nil
		}
		return err
	}
	return data, release, nil
}
