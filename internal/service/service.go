package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/filesystem"
	"github.com/beanbocchi/blobfs/internal/model"
	"github.com/beanbocchi/blobfs/pkg/sqlc"
)

// Recorder receives one observation per file operation.
type Recorder interface {
	Observe(op string, bytes int64, err error, dur time.Duration)
}

type Config struct {
	FileSystem *filesystem.FileSystem
	// Store is the client FileSystem was built on; sessions are aborted through it.
	Store   objectstore.Client
	Storage *sqlc.Storage
	// Recorder is optional.
	Recorder Recorder
	// DetectContentType sniffs pushed content that arrives without a type.
	DetectContentType bool
	Logger            *slog.Logger
}

type Service struct {
	fs                *filesystem.FileSystem
	store             objectstore.Client
	storage           *sqlc.Storage
	recorder          Recorder
	detectContentType bool
	logger            *slog.Logger
}

func NewService(cfg Config) (*Service, error) {
	if cfg.FileSystem == nil {
		return nil, fmt.Errorf("file system is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		fs:                cfg.FileSystem,
		store:             cfg.Store,
		storage:           cfg.Storage,
		recorder:          cfg.Recorder,
		detectContentType: cfg.DetectContentType,
		logger:            logger,
	}, nil
}

func (s *Service) observe(op string, bytes int64, err error, start time.Time) {
	if s.recorder != nil {
		s.recorder.Observe(op, bytes, err, time.Since(start))
	}
}

// parsePath rejects paths with no segments.
func parsePath(raw string) (filesystem.Path, error) {
	p := filesystem.ParsePath(raw)
	if p.IsRoot() {
		return filesystem.Path{}, model.ErrInvalidPath.Fmt(raw)
	}
	return p, nil
}
