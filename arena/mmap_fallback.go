//go:build !unix

package arena

import "fmt"

// Map returns a zeroed aligned Go slice when anonymous mappings are not
// available. The cleanup is a no-op.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("arena: invalid mapping size %d", size)
	}
	return Zeroed(size), func() error { return nil }, nil
}
