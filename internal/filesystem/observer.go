package filesystem

import (
	"context"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

// SessionObserver is notified of multipart session transitions. Observers
// must not block for long; they run on the writer's goroutine.
type SessionObserver interface {
	SessionInitiated(ctx context.Context, key, uploadID, contentType string)
	PartUploaded(ctx context.Context, uploadID string, part objectstore.Part, size int)
	SessionCompleted(ctx context.Context, uploadID string)
	SessionFailed(ctx context.Context, uploadID string, err error)
}

// Observers fans out notifications to every observer in order.
type Observers []SessionObserver

func (o Observers) SessionInitiated(ctx context.Context, key, uploadID, contentType string) {
	for _, obs := range o {
		obs.SessionInitiated(ctx, key, uploadID, contentType)
	}
}

func (o Observers) PartUploaded(ctx context.Context, uploadID string, part objectstore.Part, size int) {
	for _, obs := range o {
		obs.PartUploaded(ctx, uploadID, part, size)
	}
}

func (o Observers) SessionCompleted(ctx context.Context, uploadID string) {
	for _, obs := range o {
		obs.SessionCompleted(ctx, uploadID)
	}
}

func (o Observers) SessionFailed(ctx context.Context, uploadID string, err error) {
	for _, obs := range o {
		obs.SessionFailed(ctx, uploadID, err)
	}
}

type nopObserver struct{}

func (nopObserver) SessionInitiated(context.Context, string, string, string) {}
func (nopObserver) PartUploaded(context.Context, string, objectstore.Part, int) {}
func (nopObserver) SessionCompleted(context.Context, string) {}
func (nopObserver) SessionFailed(context.Context, string, error) {}
