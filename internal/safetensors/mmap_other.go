//go:build !unix

package safetensors

import (
	"errors"
	"os"
)

var errNoMmap = errors.New("mmap not supported on this platform")

// mapFile always fails here, so reads go through ReadAt.
func mapFile(*os.File, int) ([]byte, error) {
	return nil, errNoMmap
}

func unmapFile([]byte) error {
	return nil
}
