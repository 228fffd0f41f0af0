package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/guregu/null/v6"
	"github.com/zeebo/blake3"

	"github.com/beanbocchi/blobfs/internal/utils/progressr"
	"github.com/beanbocchi/blobfs/pkg/validator"
)

// sniffLen is how much of the content is buffered for type detection.
const sniffLen = 3072

type PushParams struct {
	Path        string      `validate:"required,max=1024,objectpath"`
	ContentType null.String `validate:"omitnil,max=255"`
	// Size is the expected length for progress reporting, 0 when unknown.
	Size    int64     `validate:"gte=0"`
	Content io.Reader `validate:"required"`
}

type PushResult struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
	ContentType string `json:"content_type,omitempty"`
}

// Push streams Content into a new object at Path. The returned hash is the
// hex BLAKE3 digest of everything written. If Content fails mid-stream the
// writer is abandoned, so no truncated object is completed; a session that
// was already started is reported failed to the session observers.
func (s *Service) Push(ctx context.Context, params PushParams) (result PushResult, err error) {
	if err := validator.Validate(&params); err != nil {
		return PushResult{}, err
	}
	p, err := parsePath(params.Path)
	if err != nil {
		return PushResult{}, err
	}

	start := time.Now()
	defer func() { s.observe("write", result.Size, err, start) }()

	content := params.Content
	contentType := params.ContentType.ValueOrZero()
	if contentType == "" && s.detectContentType {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(content, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return PushResult{}, fmt.Errorf("read content: %w", err)
		}
		head = head[:n]
		if n > 0 {
			contentType = mimetype.Detect(head).String()
		}
		content = io.MultiReader(bytes.NewReader(head), content)
	}

	src := &sourceReader{Reader: content}
	hasher := blake3.New()
	progress := progressr.NewReader(io.TeeReader(src, hasher), params.Size)

	w := s.fs.OutputStream(ctx, p, contentType)
	stop := s.reportProgress(ctx, p.Key(), progress)
	_, err = io.Copy(w, progress)
	stop()

	if src.err != nil {
		err := fmt.Errorf("read content: %w", src.err)
		if id := w.UploadID(); id != "" {
			s.logger.Warn("source failed, leaving session open on the store", "upload_id", id, "error", src.err)
		}
		w.Abandon(err)
		return PushResult{}, err
	}
	if err != nil {
		return PushResult{}, err
	}
	if err := w.Close(); err != nil {
		return PushResult{}, err
	}

	s.logger.Info("pushed file", "key", p.Key(), "size", humanize.IBytes(uint64(progress.Count())), "parts", len(w.Parts()))
	return PushResult{
		Key:         p.Key(),
		Size:        progress.Count(),
		Hash:        hex.EncodeToString(hasher.Sum(nil)),
		ContentType: contentType,
	}, nil
}

// sourceReader remembers the first non-EOF error of the caller's stream so
// it can be told apart from store failures surfaced by the writer.
type sourceReader struct {
	io.Reader
	err error
}

func (r *sourceReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}

// reportProgress logs upload progress every second until the returned func is called.
func (s *Service) reportProgress(ctx context.Context, key string, progress *progressr.Reader) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if pct := progress.Progress(); pct > 0 {
					s.logger.Info("upload progress", "key", key, "progress", fmt.Sprintf("%.0f%%", pct*100))
				} else {
					s.logger.Info("upload progress", "key", key, "read", humanize.IBytes(uint64(progress.Count())))
				}
			}
		}
	}()
	return func() { close(done) }
}
