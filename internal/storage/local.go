package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalDir implements ObjectStorage over a plain directory of CSV files,
// used by the batch command and in tests.
type LocalDir struct {
	Dir string
}

func (l LocalDir) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.Dir, key))
	if err != nil {
		return nil, fmt.Errorf("open local object %s: %w", key, err)
	}
	return f, nil
}
