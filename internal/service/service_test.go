package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/memory"
	"github.com/beanbocchi/blobfs/internal/filesystem"
	"github.com/beanbocchi/blobfs/internal/model"
	"github.com/beanbocchi/blobfs/internal/utils/blake3"
	"github.com/beanbocchi/blobfs/pkg/sqlc"
)

type observation struct {
	op    string
	bytes int64
	err   error
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (r *fakeRecorder) Observe(op string, bytes int64, err error, dur time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{op: op, bytes: bytes, err: err})
}

func (r *fakeRecorder) last() observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.obs[len(r.obs)-1]
}

type testEnv struct {
	svc      *Service
	store    *memory.Store
	storage  *sqlc.Storage
	recorder *fakeRecorder
}

func newTestEnv(t *testing.T, detect bool) *testEnv {
	t.Helper()

	sqlDB, err := sqlc.Open(filepath.Join(t.TempDir(), "blobfs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	storage := sqlc.NewStorage(sqlDB)

	store := memory.NewStore(memory.Config{PageSize: 2})
	fsys, err := filesystem.New(filesystem.Config{
		Store:     store,
		ChunkSize: 4,
		TempDir:   t.TempDir(),
		Observer:  NewJournal(storage, nil),
	})
	require.NoError(t, err)

	recorder := &fakeRecorder{}
	svc, err := NewService(Config{
		FileSystem:        fsys,
		Store:             store,
		Storage:           storage,
		Recorder:          recorder,
		DetectContentType: detect,
	})
	require.NoError(t, err)

	return &testEnv{svc: svc, store: store, storage: storage, recorder: recorder}
}

// failureCounter records failed sessions; its other notifications are no-ops.
type failureCounter struct {
	filesystem.Observers
	failed []string
}

func (c *failureCounter) SessionFailed(_ context.Context, uploadID string, _ error) {
	c.failed = append(c.failed, uploadID)
}

func (e *testEnv) push(t *testing.T, path, content string) PushResult {
	t.Helper()
	result, err := e.svc.Push(context.Background(), PushParams{Path: path, Content: strings.NewReader(content)})
	require.NoError(t, err)
	return result
}

func errorCode(err error) string {
	var coded model.ErrorWithCode
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

func TestNewService(t *testing.T) {
	_, err := NewService(Config{})
	assert.EqualError(t, err, "file system is required")
}

func TestPush(t *testing.T) {
	ctx := context.Background()

	t.Run("stores content and journals the session", func(t *testing.T) {
		env := newTestEnv(t, false)
		result := env.push(t, "docs/readme.txt", "hello world")

		assert.Equal(t, "docs/readme.txt", result.Key)
		assert.Equal(t, int64(11), result.Size)
		assert.Equal(t, blake3.Sum([]byte("hello world")), result.Hash)
		assert.Equal(t, []string{"docs/readme.txt"}, env.store.Keys())

		sessions, err := env.svc.ListSessions(ctx, ListSessionsParams{})
		require.NoError(t, err)
		require.Len(t, sessions.Data, 1)
		s := sessions.Data[0]
		assert.Equal(t, StateCompleted, s.State)
		assert.Equal(t, int64(3), s.Parts)
		assert.Equal(t, int64(11), s.Bytes)

		assert.Equal(t, observation{op: "write", bytes: 11}, env.recorder.last())
	})

	t.Run("keeps explicit content type", func(t *testing.T) {
		env := newTestEnv(t, true)
		_, err := env.svc.Push(ctx, PushParams{
			Path:        "a.bin",
			ContentType: null.StringFrom("application/x-custom"),
			Content:     strings.NewReader(`{"a":1}`),
		})
		require.NoError(t, err)

		ct, ok := env.store.ContentType("a.bin")
		require.True(t, ok)
		assert.Equal(t, "application/x-custom", ct)
	})

	t.Run("detects content type", func(t *testing.T) {
		env := newTestEnv(t, true)
		result := env.push(t, "data.json", `{"name":"blobfs","parts":3}`)

		assert.Equal(t, "application/json", result.ContentType)
		ct, _ := env.store.ContentType("data.json")
		assert.Equal(t, "application/json", ct)
		assert.Equal(t, int64(27), result.Size)
	})

	t.Run("empty content creates nothing", func(t *testing.T) {
		env := newTestEnv(t, true)
		result := env.push(t, "empty.txt", "")

		assert.Equal(t, int64(0), result.Size)
		assert.Empty(t, env.store.Keys())
	})

	t.Run("source failure leaves session failed", func(t *testing.T) {
		env := newTestEnv(t, false)
		cause := errors.New("client hung up")
		_, err := env.svc.Push(ctx, PushParams{
			Path:    "partial.bin",
			Content: io.MultiReader(strings.NewReader("0123456789"), iotest.ErrReader(cause)),
		})
		require.ErrorIs(t, err, cause)

		assert.Empty(t, env.store.Keys())
		assert.Len(t, env.store.PendingUploads(), 1)

		sessions, err := env.svc.ListSessions(ctx, ListSessionsParams{State: null.StringFrom(StateFailed)})
		require.NoError(t, err)
		require.Len(t, sessions.Data, 1)
		assert.Equal(t, int64(2), sessions.Data[0].Parts)
		require.NotNil(t, sessions.Data[0].ErrorMessage)
		assert.Contains(t, *sessions.Data[0].ErrorMessage, "client hung up")
	})

	t.Run("source failure reaches every observer", func(t *testing.T) {
		env := newTestEnv(t, false)
		counter := &failureCounter{}
		fsys, err := filesystem.New(filesystem.Config{
			Store:     env.store,
			ChunkSize: 4,
			TempDir:   t.TempDir(),
			Observer:  filesystem.Observers{NewJournal(env.storage, nil), counter},
		})
		require.NoError(t, err)
		svc, err := NewService(Config{FileSystem: fsys, Store: env.store, Storage: env.storage})
		require.NoError(t, err)

		_, err = svc.Push(ctx, PushParams{
			Path:    "partial.bin",
			Content: io.MultiReader(strings.NewReader("0123456789"), iotest.ErrReader(errors.New("reset"))),
		})
		require.Error(t, err)

		require.Len(t, counter.failed, 1)
		sessions, err := svc.ListSessions(ctx, ListSessionsParams{State: null.StringFrom(StateFailed)})
		require.NoError(t, err)
		require.Len(t, sessions.Data, 1)
		assert.Equal(t, counter.failed[0], sessions.Data[0].UploadID)
	})

	t.Run("rejects invalid paths", func(t *testing.T) {
		env := newTestEnv(t, false)

		_, err := env.svc.Push(ctx, PushParams{Path: "///", Content: strings.NewReader("x")})
		assert.Equal(t, "path.invalid", errorCode(err))

		_, err = env.svc.Push(ctx, PushParams{Path: "", Content: strings.NewReader("x")})
		assert.Equal(t, "validation", errorCode(err))

		_, err = env.svc.Push(ctx, PushParams{Path: "a/../etc/passwd", Content: strings.NewReader("x")})
		assert.Equal(t, "validation", errorCode(err))
		assert.Empty(t, env.store.PendingUploads())
	})
}

func TestPullExistsMove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	env.push(t, "in/report.csv", "a,b,c")

	body, err := env.svc.Pull(ctx, PullParams{Path: "in/report.csv"})
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "a,b,c", string(data))
	assert.Equal(t, observation{op: "read", bytes: 5}, env.recorder.last())

	_, err = env.svc.Pull(ctx, PullParams{Path: "in/missing.csv"})
	assert.ErrorIs(t, err, filesystem.ErrNotFound)

	require.NoError(t, env.svc.Move(ctx, MoveParams{Source: "in/report.csv", DestDir: "out"}))

	ok, err := env.svc.Exists(ctx, ExistsParams{Path: "in/report.csv"})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = env.svc.Exists(ctx, ExistsParams{Path: "out/report.csv"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListFiles(t *testing.T) {
	env := newTestEnv(t, false)
	for _, key := range []string{"logs/1", "logs/2", "logs/3", "other/1"} {
		env.push(t, key, key)
	}

	files, err := env.svc.ListFiles(context.Background(), ListFilesParams{Prefix: "logs"})
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"logs/1", "logs/2", "logs/3"}, paths)
	assert.Equal(t, int64(6), files[0].Size)
}

func TestListSessionsPagination(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	for _, key := range []string{"a", "b", "c"} {
		env.push(t, key, "data")
	}

	first, err := env.svc.ListSessions(ctx, ListSessionsParams{PaginationParams: model.PaginationParams{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, first.Data, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, null.Int32From(2), first.NextPage())

	second, err := env.svc.ListSessions(ctx, ListSessionsParams{PaginationParams: model.PaginationParams{
		Page:  null.Int32From(2),
		Limit: 2,
	}})
	require.NoError(t, err)
	assert.Len(t, second.Data, 1)
	assert.False(t, second.NextPage().Valid)

	_, err = env.svc.ListSessions(ctx, ListSessionsParams{State: null.StringFrom("bogus")})
	assert.Equal(t, "validation", errorCode(err))
}

func TestAbortSession(t *testing.T) {
	ctx := context.Background()

	t.Run("aborts a failed session", func(t *testing.T) {
		env := newTestEnv(t, false)
		_, err := env.svc.Push(ctx, PushParams{
			Path:    "broken.bin",
			Content: io.MultiReader(strings.NewReader("0123456789"), iotest.ErrReader(errors.New("eof"))),
		})
		require.Error(t, err)
		pending := env.store.PendingUploads()
		require.Len(t, pending, 1)

		require.NoError(t, env.svc.AbortSession(ctx, AbortSessionParams{UploadID: pending[0]}))
		assert.Empty(t, env.store.PendingUploads())

		session, err := env.storage.GetSession(ctx, pending[0])
		require.NoError(t, err)
		assert.Equal(t, StateAborted, session.State)

		err = env.svc.AbortSession(ctx, AbortSessionParams{UploadID: pending[0]})
		assert.Equal(t, "session.not_abortable", errorCode(err))
	})

	t.Run("rejects completed sessions", func(t *testing.T) {
		env := newTestEnv(t, false)
		env.push(t, "done.txt", "done")

		sessions, err := env.svc.ListSessions(ctx, ListSessionsParams{})
		require.NoError(t, err)
		require.Len(t, sessions.Data, 1)

		err = env.svc.AbortSession(ctx, AbortSessionParams{UploadID: sessions.Data[0].UploadID})
		assert.Equal(t, "session.not_abortable", errorCode(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		env := newTestEnv(t, false)
		err := env.svc.AbortSession(ctx, AbortSessionParams{UploadID: "nope"})
		assert.Equal(t, "session.not_found", errorCode(err))
	})
}

func TestJournalRecordsStoreFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)

	failing := &failingParts{Store: env.store, after: 1}
	fsys, err := filesystem.New(filesystem.Config{
		Store:     failing,
		ChunkSize: 4,
		TempDir:   t.TempDir(),
		Observer:  NewJournal(env.storage, nil),
	})
	require.NoError(t, err)

	err = fsys.SaveString(ctx, filesystem.NewPath("x.bin"), "0123456789", "")
	require.ErrorIs(t, err, filesystem.ErrSessionIncomplete)

	sessions, err := env.svc.ListSessions(ctx, ListSessionsParams{State: null.StringFrom(StateFailed)})
	require.NoError(t, err)
	require.Len(t, sessions.Data, 1)
	assert.Equal(t, "x.bin", sessions.Data[0].ObjectKey)
	assert.Equal(t, int64(1), sessions.Data[0].Parts)
}

// failingParts fails every part upload after the first `after` succeed.
type failingParts struct {
	*memory.Store
	after int
	seen  int
}

func (f *failingParts) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	f.seen++
	if f.seen > f.after {
		return "", objectstore.NewStatusError("upload part", key, objectstore.StatusUnknown, errors.New("connection reset"))
	}
	return f.Store.UploadPart(ctx, key, uploadID, partNumber, data)
}
