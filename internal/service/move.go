package service

import (
	"context"
	"time"

	"github.com/beanbocchi/blobfs/internal/filesystem"
	"github.com/beanbocchi/blobfs/pkg/validator"
)

type ExistsParams struct {
	Path string `validate:"required,max=1024,objectpath"`
}

// Exists reports whether Path holds an object. A forbidden probe reports false.
func (s *Service) Exists(ctx context.Context, params ExistsParams) (bool, error) {
	if err := validator.Validate(&params); err != nil {
		return false, err
	}
	p, err := parsePath(params.Path)
	if err != nil {
		return false, err
	}

	start := time.Now()
	ok, err := s.fs.Exists(ctx, p)
	s.observe("exists", 0, err, start)
	return ok, err
}

type MoveParams struct {
	Source  string `json:"source" validate:"required,max=1024,objectpath"`
	DestDir string `json:"dest_dir" validate:"max=1024,objectpath"`
}

// Move copies Source into DestDir under the same name and deletes Source.
// An empty DestDir moves to the root.
func (s *Service) Move(ctx context.Context, params MoveParams) error {
	if err := validator.Validate(&params); err != nil {
		return err
	}
	src, err := parsePath(params.Source)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.fs.Move(ctx, src, filesystem.ParsePath(params.DestDir))
	s.observe("move", 0, err, start)
	return err
}
