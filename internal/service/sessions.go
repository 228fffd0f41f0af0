package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/db"
	"github.com/beanbocchi/blobfs/internal/model"
	"github.com/beanbocchi/blobfs/pkg/sqlc"
	"github.com/beanbocchi/blobfs/pkg/validator"
)

type AbortSessionParams struct {
	UploadID string `validate:"required,max=1024"`
}

// AbortSession discards a session left on the store by a failed or
// abandoned write. Completed and already aborted sessions are rejected.
// A session the store no longer knows is still marked aborted.
func (s *Service) AbortSession(ctx context.Context, params AbortSessionParams) error {
	if err := validator.Validate(&params); err != nil {
		return err
	}

	var session db.Session
	err := s.storage.InTx(ctx, func(tx *sqlc.TxStorage) error {
		var err error
		session, err = tx.GetSession(ctx, params.UploadID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrSessionNotFound.Fmt(params.UploadID)
			}
			return fmt.Errorf("get session: %w", err)
		}
		if session.State == StateCompleted || session.State == StateAborted {
			return model.ErrSessionNotAbortable.Fmt(params.UploadID, session.State)
		}

		if err := s.store.AbortMultipartUpload(ctx, session.ObjectKey, session.UploadID); err != nil {
			if !objectstore.IsNotFound(err) {
				return fmt.Errorf("abort upload: %w", err)
			}
			s.logger.Warn("session already gone from store", "upload_id", session.UploadID, "key", session.ObjectKey)
		}

		if err := tx.UpdateSessionState(ctx, db.UpdateSessionStateParams{
			State:        StateAborted,
			ErrorMessage: session.ErrorMessage,
			UpdatedAt:    time.Now().UTC(),
			UploadID:     session.UploadID,
		}); err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("aborted session", "upload_id", session.UploadID, "key", session.ObjectKey, "parts", session.Parts)
	return nil
}
