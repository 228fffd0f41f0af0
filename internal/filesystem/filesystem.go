// Package filesystem exposes a path-oriented file API over a flat object
// store. Writes go through a chunked multipart Writer, reads are staged
// through a temporary local file, and listings are fully paginated.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

// Config configures a FileSystem.
type Config struct {
	// Store is the object store backend.
	Store objectstore.Client
	// ChunkSize is the size of every non-final part. Defaults to DefaultChunkSize.
	ChunkSize int
	// TempDir is where reads are staged. Defaults to os.TempDir().
	TempDir string
	// Observer is notified of multipart session transitions.
	Observer SessionObserver
	Logger   *slog.Logger
}

// FileSystem maps logical paths onto store keys.
type FileSystem struct {
	store     objectstore.Client
	lister    *Lister
	chunkSize int
	tempDir   string
	observer  SessionObserver
	logger    *slog.Logger
}

func New(cfg Config) (*FileSystem, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk size must not be negative")
	}

	fs := &FileSystem{
		store:     cfg.Store,
		lister:    NewLister(cfg.Store),
		chunkSize: cfg.ChunkSize,
		tempDir:   cfg.TempDir,
		observer:  cfg.Observer,
		logger:    cfg.Logger,
	}
	if fs.chunkSize == 0 {
		fs.chunkSize = DefaultChunkSize
	}
	if fs.observer == nil {
		fs.observer = nopObserver{}
	}
	if fs.logger == nil {
		fs.logger = slog.Default()
	}
	return fs, nil
}

// ChunkSize returns the configured part size.
func (fs *FileSystem) ChunkSize() int {
	return fs.chunkSize
}

// Exists probes p. Both not found and forbidden are reported as absent:
// some stores answer forbidden for keys that do not exist.
func (fs *FileSystem) Exists(ctx context.Context, p Path) (bool, error) {
	key := p.Key()

	var err error
	if h, ok := fs.store.(objectstore.Header); ok {
		_, err = h.HeadObject(ctx, key)
	} else {
		var body io.ReadCloser
		body, err = fs.store.GetObject(ctx, key)
		if err == nil {
			_ = body.Close()
		}
	}

	switch objectstore.StatusOf(err) {
	case objectstore.StatusOK:
		return true, nil
	case objectstore.StatusNotFound, objectstore.StatusForbidden:
		return false, nil
	}
	return false, classify("exists", p, err)
}

// Open returns a stream over the object at p. Unlike Exists, a forbidden
// answer surfaces as KindAccessDenied.
func (fs *FileSystem) Open(ctx context.Context, p Path) (io.ReadCloser, error) {
	return fs.open(ctx, p)
}

// ReadContents reads the whole object at p as UTF-8 text.
func (fs *FileSystem) ReadContents(ctx context.Context, p Path) (string, error) {
	r, err := fs.open(ctx, p)
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", &Error{Kind: KindIO, Op: "read", Path: p, Err: err}
	}
	return string(data), nil
}

// OutputStream returns a Writer for p. An empty contentType is omitted from
// the session.
func (fs *FileSystem) OutputStream(ctx context.Context, p Path, contentType string) *Writer {
	return newWriter(ctx, fs, p, contentType)
}

// SaveContent writes data to p through a Writer and closes it.
func (fs *FileSystem) SaveContent(ctx context.Context, p Path, data []byte, contentType string) error {
	w := fs.OutputStream(ctx, p, contentType)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// SaveString writes s to p as UTF-8 bytes.
func (fs *FileSystem) SaveString(ctx context.Context, p Path, s, contentType string) error {
	return fs.SaveContent(ctx, p, []byte(s), contentType)
}

// Move copies file into destDir and deletes the source. The two steps are not
// atomic: if the delete fails the object exists at both keys and a
// KindNonAtomicMove error is returned.
func (fs *FileSystem) Move(ctx context.Context, file, destDir Path) error {
	if file.IsRoot() {
		return errors.New("filesystem: cannot move the root path")
	}

	dst := destDir.Join(file.Name())
	if dst.Equal(file) {
		return nil
	}

	if err := fs.store.CopyObject(ctx, file.Key(), dst.Key()); err != nil {
		return classify("move", file, err)
	}
	if err := fs.store.DeleteObject(ctx, file.Key()); err != nil {
		fs.logger.Warn("move left source in place", "src", file.Key(), "dst", dst.Key(), "error", err)
		return &Error{Kind: KindNonAtomicMove, Op: "move", Path: file, Err: err}
	}
	return nil
}

// List returns the summaries of every object under prefix in store order.
func (fs *FileSystem) List(ctx context.Context, prefix Path) ([]objectstore.Summary, error) {
	summaries, err := fs.lister.All(ctx, prefix.Key())
	if err != nil {
		return nil, classify("list", prefix, err)
	}
	return summaries, nil
}

// ListFiles returns the path of every object under prefix in store order.
func (fs *FileSystem) ListFiles(ctx context.Context, prefix Path) ([]Path, error) {
	summaries, err := fs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	paths := make([]Path, 0, len(summaries))
	for _, s := range summaries {
		paths = append(paths, ParsePath(s.Key))
	}
	return paths, nil
}
