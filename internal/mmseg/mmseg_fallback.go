//go:build !unix

package mmseg

import "fmt"

// Reserve allocates a zero-filled segment of size bytes on platforms
// without anonymous mmap support.
func Reserve(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmseg: invalid segment size %d", size)
	}
	data := make([]byte, size)
	return data, func() error { return nil }, nil
}
