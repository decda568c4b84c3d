package editor

import (
	"bytes"
	"context"
	"fmt"
	"goods-manager/core"
	"io"
	"os"
)

// ImageSource delivers raw image bytes, typically after waiting on a device or
// a file picker. Implementations should return ctx.Err() once ctx is done.
type ImageSource interface {
	AcquireImage(ctx context.Context) ([]byte, error)
}

// Bytes is an ImageSource that already holds its image.
type Bytes []byte

func (b Bytes) AcquireImage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// FileSource reads an image from disk.
type FileSource struct {
	Path string
}

func (f FileSource) AcquireImage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", f.Path, err)
	}
	return data, nil
}

// ReaderSource reads an image from a stream such as an upload, refusing
// payloads larger than Limit bytes when Limit is positive.
type ReaderSource struct {
	R     io.Reader
	Limit int64
}

func (r ReaderSource) AcquireImage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := r.R
	if r.Limit > 0 {
		src = io.LimitReader(r.R, r.Limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if r.Limit > 0 && int64(len(data)) > r.Limit {
		return nil, fmt.Errorf("%w: larger than %d bytes", core.ErrInvalidImage, r.Limit)
	}
	return data, nil
}
