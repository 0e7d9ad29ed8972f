// Package entropy fills the random buffers the olm engine asks for.
package entropy

import (
	"fmt"
	"io"
)

// Read returns n bytes from r. The caller wipes them when done.
func Read(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read %d random bytes: %w", n, err)
	}
	return b, nil
}
