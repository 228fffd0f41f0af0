package service

import (
	"context"
	"io"
	"time"

	"github.com/beanbocchi/blobfs/internal/utils/ioutil"
	"github.com/beanbocchi/blobfs/pkg/validator"
)

type PullParams struct {
	Path string `validate:"required,max=1024,objectpath"`
}

// Pull opens the object at Path. The body is staged locally before it is
// returned, so a missing or forbidden object fails here rather than mid-read.
func (s *Service) Pull(ctx context.Context, params PullParams) (io.ReadCloser, error) {
	if err := validator.Validate(&params); err != nil {
		return nil, err
	}
	p, err := parsePath(params.Path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := s.fs.Open(ctx, p)
	if err != nil {
		s.observe("read", 0, err, start)
		return nil, err
	}
	return &observedReader{CountingReader: ioutil.NewCountingReader(body), body: body, done: func(n int64) {
		s.observe("read", n, nil, start)
	}}, nil
}

// observedReader reports the bytes read once, on Close.
type observedReader struct {
	*ioutil.CountingReader
	body io.Closer
	done func(n int64)
}

func (r *observedReader) Close() error {
	if r.done != nil {
		r.done(r.Count())
		r.done = nil
	}
	return r.body.Close()
}
