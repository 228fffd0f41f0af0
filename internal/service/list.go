package service

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"github.com/beanbocchi/blobfs/internal/db"
	"github.com/beanbocchi/blobfs/internal/filesystem"
	"github.com/beanbocchi/blobfs/internal/model"
	"github.com/beanbocchi/blobfs/pkg/validator"
)

type FileInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

type ListFilesParams struct {
	Prefix string `validate:"max=1024,objectpath"`
}

// ListFiles returns every object under Prefix in store order.
func (s *Service) ListFiles(ctx context.Context, params ListFilesParams) ([]FileInfo, error) {
	if err := validator.Validate(&params); err != nil {
		return nil, err
	}

	start := time.Now()
	summaries, err := s.fs.List(ctx, filesystem.ParsePath(params.Prefix))
	s.observe("list", 0, err, start)
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(summaries))
	for _, summary := range summaries {
		files = append(files, FileInfo{
			Path:         summary.Key,
			Size:         summary.Size,
			ETag:         summary.ETag,
			LastModified: summary.LastModified,
		})
	}
	return files, nil
}

type ListSessionsParams struct {
	State null.String `validate:"omitnil,oneof=open completed failed aborted"`
	model.PaginationParams
}

// ListSessions pages through the session journal, newest first.
func (s *Service) ListSessions(ctx context.Context, params ListSessionsParams) (model.PaginateResult[db.Session], error) {
	if err := validator.Validate(&params); err != nil {
		return model.PaginateResult[db.Session]{}, err
	}

	limit := params.GetLimit()
	sessions, err := s.storage.ListSessions(ctx, db.ListSessionsParams{
		State:  params.State.Ptr(),
		Limit:  int64(limit) + 1,
		Offset: int64(params.Offset()),
	})
	if err != nil {
		return model.PaginateResult[db.Session]{}, fmt.Errorf("list sessions: %w", err)
	}

	hasMore := len(sessions) > int(limit)
	if hasMore {
		sessions = sessions[:limit]
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	return model.PaginateResult[db.Session]{
		PageParams: params.PaginationParams,
		Data:       sessions,
		HasMore:    hasMore,
	}, nil
}
