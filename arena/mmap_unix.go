//go:build unix

package arena

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Map reserves size bytes of anonymous, private, read-write memory outside
// the Go heap. The mapping is page-aligned and zero-filled. The returned
// cleanup unmaps it; calling cleanup twice is a no-op.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("arena: invalid mapping size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("arena: mmap %d bytes: %w", size, err)
	}
	cleanup := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		if errors.Is(err, unix.EINVAL) {
			return nil
		}
		return err
	}
	return data, cleanup, nil
}
