package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// stagedReader serves an object that was fully copied into a temporary file.
// The file is removed once the reader hits EOF or is closed.
type stagedReader struct {
	file *os.File

	once     sync.Once
	closeErr error
	eof      bool
	closed   bool
}

func (r *stagedReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, os.ErrClosed
	}
	if r.eof {
		return 0, io.EOF
	}
	n, err := r.file.Read(p)
	if errors.Is(err, io.EOF) {
		r.eof = true
		r.release()
	}
	return n, err
}

func (r *stagedReader) Close() error {
	r.closed = true
	r.release()
	return r.closeErr
}

func (r *stagedReader) release() {
	r.once.Do(func() {
		closeErr := r.file.Close()
		removeErr := os.Remove(r.file.Name())
		if errors.Is(removeErr, os.ErrNotExist) {
			removeErr = nil
		}
		r.closeErr = errors.Join(closeErr, removeErr)
	})
}

// open downloads the object at p into a temporary file and returns a reader
// over it. The temporary file never outlives a failed call.
func (fs *FileSystem) open(ctx context.Context, p Path) (_ io.ReadCloser, err error) {
	body, err := fs.store.GetObject(ctx, p.Key())
	if err != nil {
		return nil, classify("open", p, err)
	}
	defer body.Close()

	f, err := os.CreateTemp(fs.tempDir, "blobfs-*")
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: "open", Path: p, Err: fmt.Errorf("create temp file: %w", err)}
	}
	r := &stagedReader{file: f}
	defer func() {
		if err != nil {
			_ = r.Close()
		}
	}()

	if _, err := io.Copy(f, body); err != nil {
		return nil, classify("open", p, fmt.Errorf("stage object: %w", err))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &Error{Kind: KindIO, Op: "open", Path: p, Err: fmt.Errorf("rewind temp file: %w", err)}
	}

	return r, nil
}
