package filesystem

import (
	"context"
	"io"
	"sync"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/memory"
)

// mockStore delegates to an in-memory store unless a XxxFunc override is set,
// and records the multipart calls it sees.
type mockStore struct {
	*memory.Store

	InitiateFunc   func(ctx context.Context, key, contentType string) (string, error)
	UploadPartFunc func(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error)
	CompleteFunc   func(ctx context.Context, key, uploadID string, parts []objectstore.Part) error
	GetObjectFunc  func(ctx context.Context, key string) (io.ReadCloser, error)
	HeadObjectFunc func(ctx context.Context, key string) (objectstore.Summary, error)
	CopyObjectFunc func(ctx context.Context, srcKey, dstKey string) error
	DeleteFunc     func(ctx context.Context, key string) error
	ListFunc       func(ctx context.Context, prefix, token string) (objectstore.Page, error)

	mu           sync.Mutex
	initiated    []string
	contentTypes []string
	partSizes    []int
	partNumbers  []int32
	completed    [][]objectstore.Part
	listCalls    int
}

func newMockStore(pageSize int) *mockStore {
	return &mockStore{Store: memory.NewStore(memory.Config{PageSize: pageSize})}
}

func (m *mockStore) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	m.mu.Lock()
	m.initiated = append(m.initiated, key)
	m.contentTypes = append(m.contentTypes, contentType)
	m.mu.Unlock()

	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, key, contentType)
	}
	return m.Store.InitiateMultipartUpload(ctx, key, contentType)
}

func (m *mockStore) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	m.mu.Lock()
	m.partSizes = append(m.partSizes, len(data))
	m.partNumbers = append(m.partNumbers, partNumber)
	m.mu.Unlock()

	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, key, uploadID, partNumber, data)
	}
	return m.Store.UploadPart(ctx, key, uploadID, partNumber, data)
}

func (m *mockStore) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.Part) error {
	m.mu.Lock()
	m.completed = append(m.completed, parts)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, key, uploadID, parts)
	}
	return m.Store.CompleteMultipartUpload(ctx, key, uploadID, parts)
}

func (m *mockStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, key)
	}
	return m.Store.GetObject(ctx, key)
}

func (m *mockStore) HeadObject(ctx context.Context, key string) (objectstore.Summary, error) {
	if m.HeadObjectFunc != nil {
		return m.HeadObjectFunc(ctx, key)
	}
	return m.Store.HeadObject(ctx, key)
}

func (m *mockStore) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	if m.CopyObjectFunc != nil {
		return m.CopyObjectFunc(ctx, srcKey, dstKey)
	}
	return m.Store.CopyObject(ctx, srcKey, dstKey)
}

func (m *mockStore) DeleteObject(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return m.Store.DeleteObject(ctx, key)
}

func (m *mockStore) ListObjects(ctx context.Context, prefix, token string) (objectstore.Page, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx, prefix, token)
	}
	return m.Store.ListObjects(ctx, prefix, token)
}

// getOnly hides HeadObject so Exists falls back to a discarded GET.
type getOnly struct {
	objectstore.Client
}

// recordingObserver captures session transitions.
type recordingObserver struct {
	events []string
}

func (r *recordingObserver) SessionInitiated(_ context.Context, key, uploadID, _ string) {
	r.events = append(r.events, "initiated")
}

func (r *recordingObserver) PartUploaded(_ context.Context, _ string, part objectstore.Part, _ int) {
	r.events = append(r.events, "part")
}

func (r *recordingObserver) SessionCompleted(context.Context, string) {
	r.events = append(r.events, "completed")
}

func (r *recordingObserver) SessionFailed(context.Context, string, error) {
	r.events = append(r.events, "failed")
}
