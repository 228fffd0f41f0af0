package filesystem

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

// DefaultChunkSize is the minimum part size most object stores accept for
// non-final parts.
const DefaultChunkSize = 5 * 1024 * 1024

var errNothingWritten = errors.New("session closed with nothing written")

// uploadState is the multipart session owned by a single Writer.
type uploadState struct {
	uploadID string
	// partNumber is the number of the last uploaded part; 0 before any.
	partNumber int32
	parts      []objectstore.Part
	buf        bytes.Buffer
}

// Writer buffers writes into fixed-size chunks and uploads each chunk as a
// part of a multipart session. The object becomes visible only when Close
// completes the session. A Writer is not safe for concurrent use.
type Writer struct {
	ctx         context.Context
	store       objectstore.Client
	path        Path
	key         string
	contentType string
	chunkSize   int
	observer    SessionObserver
	logger      *slog.Logger

	state  uploadState
	err    error
	closed bool
}

func newWriter(ctx context.Context, fs *FileSystem, p Path, contentType string) *Writer {
	w := &Writer{
		ctx:         ctx,
		store:       fs.store,
		path:        p,
		key:         p.Key(),
		contentType: contentType,
		chunkSize:   fs.chunkSize,
		observer:    fs.observer,
		logger:      fs.logger,
	}
	w.state.buf.Grow(w.chunkSize)
	return w
}

// Write appends p to the chunk buffer, uploading a part each time the buffer
// reaches the chunk size.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	if w.err != nil {
		return 0, w.err
	}

	written := 0
	for len(p) > 0 {
		n := min(w.chunkSize-w.state.buf.Len(), len(p))
		w.state.buf.Write(p[:n])
		written += n
		p = p[n:]

		if w.state.buf.Len() >= w.chunkSize {
			if err := w.flush(false); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Flush initiates the session if needed and uploads the buffer when it holds
// a full chunk. Partial chunks are kept until Close.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.err != nil {
		return w.err
	}
	return w.flush(false)
}

// Close uploads any trailing partial chunk and completes the session. If
// nothing was ever written no object is created.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}

	if w.state.partNumber == 0 && w.state.buf.Len() == 0 {
		w.logger.Debug("nothing written, skipping completion", "key", w.key)
		if w.state.uploadID != "" {
			w.observer.SessionFailed(w.ctx, w.state.uploadID, errNothingWritten)
		}
		return nil
	}

	if err := w.flush(true); err != nil {
		return err
	}

	if err := w.store.CompleteMultipartUpload(w.ctx, w.key, w.state.uploadID, slices.Clone(w.state.parts)); err != nil {
		return w.fail(w.sessionError("complete", err))
	}
	w.observer.SessionCompleted(w.ctx, w.state.uploadID)
	w.logger.Debug("completed upload", "key", w.key, "upload_id", w.state.uploadID, "parts", len(w.state.parts))
	return nil
}

// Abandon closes the writer without completing its session, for callers
// whose source failed mid-stream. Buffered bytes are dropped. An initiated
// session is reported failed and left on the store.
func (w *Writer) Abandon(cause error) {
	if w.closed {
		return
	}
	w.closed = true
	if w.err != nil || w.state.uploadID == "" {
		return
	}
	w.err = cause
	w.observer.SessionFailed(w.ctx, w.state.uploadID, cause)
	w.logger.Debug("abandoned upload", "key", w.key, "upload_id", w.state.uploadID, "parts", len(w.state.parts))
}

func (w *Writer) flush(force bool) error {
	s := &w.state

	if s.uploadID == "" {
		uploadID, err := w.store.InitiateMultipartUpload(w.ctx, w.key, w.contentType)
		if err != nil {
			return w.fail(classify("initiate upload", w.path, err))
		}
		s.uploadID = uploadID
		w.observer.SessionInitiated(w.ctx, w.key, uploadID, w.contentType)
	}

	if s.buf.Len() == 0 && s.partNumber > 0 {
		return nil
	}
	if !force && s.buf.Len() < w.chunkSize {
		return nil
	}

	size := s.buf.Len()
	number := s.partNumber + 1
	w.logger.Debug("uploading part", "key", w.key, "part", number, "size", humanize.IBytes(uint64(size)))

	tag, err := w.store.UploadPart(w.ctx, w.key, s.uploadID, number, s.buf.Bytes())
	if err != nil {
		return w.fail(w.sessionError("upload part", err))
	}

	part := objectstore.Part{Number: number, Tag: tag}
	s.partNumber = number
	s.parts = append(s.parts, part)
	s.buf.Reset()
	w.observer.PartUploaded(w.ctx, s.uploadID, part, size)
	return nil
}

// sessionError classifies a failure inside an initiated session. Once a part
// has been uploaded the session is orphaned on the store.
func (w *Writer) sessionError(op string, err error) *Error {
	fe := classify(op, w.path, err)
	if len(w.state.parts) > 0 {
		fe.Kind = KindSessionIncomplete
	}
	fe.UploadID = w.state.uploadID
	fe.Parts = len(w.state.parts)
	return fe
}

func (w *Writer) fail(err *Error) error {
	w.err = err
	if w.state.uploadID != "" {
		w.observer.SessionFailed(w.ctx, w.state.uploadID, err)
	}
	return err
}

// Path returns the logical path the writer targets.
func (w *Writer) Path() Path {
	return w.path
}

// UploadID returns the session identifier, or "" before the first flush.
func (w *Writer) UploadID() string {
	return w.state.uploadID
}

// Parts returns the acknowledged parts in upload order.
func (w *Writer) Parts() []objectstore.Part {
	return slices.Clone(w.state.parts)
}

// Buffered returns the number of bytes waiting for the next part.
func (w *Writer) Buffered() int {
	return w.state.buf.Len()
}
