package filesystem

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

func TestListFilesCompleteness(t *testing.T) {
	const n = 1050
	ctx := context.Background()
	store := newMockStore(100)
	fs := newTestFS(t, store, 0)

	want := make(map[string]bool, n)
	for i := range n {
		p := NewPath("data", fmt.Sprintf("file-%05d.txt", i))
		require.NoError(t, fs.SaveString(ctx, p, "x", ""))
		want[p.Key()] = true
	}
	require.NoError(t, fs.SaveString(ctx, NewPath("other", "file.txt"), "x", ""))

	paths, err := fs.ListFiles(ctx, NewPath("data"))
	require.NoError(t, err)
	require.Len(t, paths, n)

	seen := make(map[string]bool, n)
	for _, p := range paths {
		assert.False(t, seen[p.Key()], "duplicate %s", p)
		assert.True(t, want[p.Key()], "unexpected %s", p)
		seen[p.Key()] = true
	}
	assert.Equal(t, 11, store.listCalls)
}

func TestListFilesEmpty(t *testing.T) {
	fs := newTestFS(t, newMockStore(0), 0)
	paths, err := fs.ListFiles(context.Background(), NewPath("nothing"))
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestListerErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("truncated page without token", func(t *testing.T) {
		store := newMockStore(0)
		store.ListFunc = func(context.Context, string, string) (objectstore.Page, error) {
			return objectstore.Page{
				Objects:   []objectstore.Summary{{Key: "a"}},
				Truncated: true,
			}, nil
		}

		_, err := NewLister(store).All(ctx, "")
		assert.ErrorIs(t, err, errMissingContinuation)
	})

	t.Run("failure on a later page discards results", func(t *testing.T) {
		boom := errors.New("throttled")
		store := newMockStore(0)
		store.ListFunc = func(_ context.Context, _ string, token string) (objectstore.Page, error) {
			if token == "" {
				return objectstore.Page{
					Objects:           []objectstore.Summary{{Key: "a"}},
					Truncated:         true,
					ContinuationToken: "a",
				}, nil
			}
			return objectstore.Page{}, boom
		}
		fs := newTestFS(t, store, 0)

		paths, err := fs.ListFiles(ctx, Path{})
		assert.Nil(t, paths)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, ErrIO)
	})
}

func TestListerObjectsIsLazy(t *testing.T) {
	ctx := context.Background()
	store := newMockStore(10)
	fs := newTestFS(t, store, 0)
	for i := range 35 {
		require.NoError(t, fs.SaveString(ctx, NewPath(fmt.Sprintf("k%02d", i)), "x", ""))
	}

	var keys []string
	for obj, err := range NewLister(store).Objects(ctx, "") {
		require.NoError(t, err)
		keys = append(keys, obj.Key)
		if len(keys) == 5 {
			break
		}
	}
	assert.Equal(t, []string{"k00", "k01", "k02", "k03", "k04"}, keys)
	assert.Equal(t, 1, store.listCalls)
}
