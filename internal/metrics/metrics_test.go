package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbocchi/blobfs/internal/client/objectstore/memory"
	"github.com/beanbocchi/blobfs/internal/filesystem"
)

func TestSessionMetrics(t *testing.T) {
	ctx := context.Background()
	m := New()

	fsys, err := filesystem.New(filesystem.Config{
		Store:     memory.NewStore(memory.Config{}),
		ChunkSize: 4,
		TempDir:   t.TempDir(),
		Observer:  m,
	})
	require.NoError(t, err)

	require.NoError(t, fsys.SaveString(ctx, filesystem.NewPath("a", "b.txt"), "0123456789", ""))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("initiated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.sessions.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.parts))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.partBytes))
}

func TestObserve(t *testing.T) {
	m := New()
	m.Observe("read", 42, nil, time.Millisecond)
	m.Observe("read", 0, filesystem.ErrNotFound, time.Millisecond)
	m.Observe("read", 0, errors.New("plain"), time.Millisecond)

	assert.Equal(t, 42.0, testutil.ToFloat64(m.bytes.WithLabelValues("read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("read", "not found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("read", "unknown")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe("write", 1, nil, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `blobfs_fs_ops_total{op="write",result="ok"} 1`))
}
