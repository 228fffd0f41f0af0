package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/smithy-go/ptr"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/db"
	"github.com/beanbocchi/blobfs/internal/filesystem"
	"github.com/beanbocchi/blobfs/pkg/sqlc"
)

// Session states recorded in the journal.
const (
	StateOpen      = "open"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateAborted   = "aborted"
)

// Journal records every multipart session in the database so sessions
// left on the store can be found and aborted later. Journal writes never
// fail the upload; errors are logged.
type Journal struct {
	storage *sqlc.Storage
	logger  *slog.Logger
	now     func() time.Time
}

var _ filesystem.SessionObserver = (*Journal)(nil)

func NewJournal(storage *sqlc.Storage, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		storage: storage,
		logger:  logger.With("component", "journal"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (j *Journal) SessionInitiated(ctx context.Context, key, uploadID, contentType string) {
	now := j.now()
	var ct *string
	if contentType != "" {
		ct = ptr.String(contentType)
	}
	if _, err := j.storage.CreateSession(context.WithoutCancel(ctx), db.CreateSessionParams{
		UploadID:    uploadID,
		ObjectKey:   key,
		ContentType: ct,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		j.logger.Error("failed to record session", "upload_id", uploadID, "key", key, "error", err)
	}
}

func (j *Journal) PartUploaded(ctx context.Context, uploadID string, part objectstore.Part, size int) {
	if err := j.storage.RecordPart(context.WithoutCancel(ctx), db.RecordPartParams{
		Bytes:     int64(size),
		UpdatedAt: j.now(),
		UploadID:  uploadID,
	}); err != nil {
		j.logger.Error("failed to record part", "upload_id", uploadID, "part", part.Number, "error", err)
	}
}

func (j *Journal) SessionCompleted(ctx context.Context, uploadID string) {
	j.setState(ctx, uploadID, StateCompleted, nil)
}

func (j *Journal) SessionFailed(ctx context.Context, uploadID string, err error) {
	j.setState(ctx, uploadID, StateFailed, err)
}

func (j *Journal) setState(ctx context.Context, uploadID, state string, cause error) {
	var msg *string
	if cause != nil {
		msg = ptr.String(cause.Error())
	}
	if err := j.storage.UpdateSessionState(context.WithoutCancel(ctx), db.UpdateSessionStateParams{
		State:        state,
		ErrorMessage: msg,
		UpdatedAt:    j.now(),
		UploadID:     uploadID,
	}); err != nil {
		j.logger.Error("failed to record session state", "upload_id", uploadID, "state", state, "error", err)
	}
}
