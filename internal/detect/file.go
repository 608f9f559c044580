package detect

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/facelock/internal/common"
)

// FileCamera is a Camera backed by image files on disk. Each Capture returns
// the next file's bytes, cycling back to the first after the last. It lets
// the pipeline run where no hardware camera binding exists.
type FileCamera struct {
	mu    sync.Mutex
	paths []string
	next  int
}

func NewFileCamera(paths ...string) *FileCamera {
	return &FileCamera{paths: paths}
}

func (c *FileCamera) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCapture, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.paths) == 0 {
		return nil, fmt.Errorf("%w: no input files", common.ErrCapture)
	}

	path := c.paths[c.next]
	c.next = (c.next + 1) % len(c.paths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCapture, err)
	}
	return data, nil
}

// IndeterminateDetector is the no-backend Detector: it reports that eye
// state cannot be measured, which routes sessions through the documented
// skip-on-indeterminate policy.
type IndeterminateDetector struct{}

func (IndeterminateDetector) Detect(ctx context.Context, raw []byte) (Result, error) {
	return Indeterminate(), nil
}
