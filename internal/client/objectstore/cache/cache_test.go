package cache

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/local"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/memory"
)

// countingPrimary counts the GETs that reach the primary store.
type countingPrimary struct {
	*memory.Store
	gets atomic.Int32
}

func (p *countingPrimary) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	p.gets.Add(1)
	return p.Store.GetObject(ctx, key)
}

func put(t *testing.T, c objectstore.Client, key, content string) {
	t.Helper()
	ctx := context.Background()
	id, err := c.InitiateMultipartUpload(ctx, key, "")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	tag, err := c.UploadPart(ctx, key, id, 1, []byte(content))
	if err != nil {
		t.Fatalf("upload part: %v", err)
	}
	if err := c.CompleteMultipartUpload(ctx, key, id, []objectstore.Part{{Number: 1, Tag: tag}}); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func read(t *testing.T, c objectstore.Client, key string) string {
	t.Helper()
	body, err := c.GetObject(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(data)
}

func newTestCache(t *testing.T, maxSize int64) (*CacheClient, *countingPrimary, *local.ClientImpl, *LRUEvictionPolicy) {
	t.Helper()
	store, err := local.NewClient(local.LocalConfig{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create cache store: %v", err)
	}
	primary := &countingPrimary{Store: memory.NewStore(memory.Config{})}
	policy := NewLRUEvictionPolicy(maxSize)

	client, err := NewCacheClient(CacheConfig{Cache: store, Primary: primary, EvictionPolicy: policy})
	if err != nil {
		t.Fatalf("failed to create cache client: %v", err)
	}
	return client, primary, store, policy
}

func TestNewCacheClient(t *testing.T) {
	primary := memory.NewStore(memory.Config{})
	store, err := local.NewClient(local.LocalConfig{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create cache store: %v", err)
	}
	policy := NewLRUEvictionPolicy(0)

	tests := []struct {
		name    string
		cfg     CacheConfig
		wantErr string
	}{
		{"missing cache", CacheConfig{Primary: primary, EvictionPolicy: policy}, "cache storage client is required"},
		{"missing primary", CacheConfig{Cache: store, EvictionPolicy: policy}, "primary storage client is required"},
		{"missing policy", CacheConfig{Cache: store, Primary: primary}, "eviction policy is required"},
		{"success", CacheConfig{Cache: store, Primary: primary, EvictionPolicy: policy}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCacheClient(tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCacheGetObject(t *testing.T) {
	t.Run("second read is served from cache", func(t *testing.T) {
		client, primary, _, policy := newTestCache(t, 0)
		put(t, client, "docs/a.txt", "hello")

		if got := read(t, client, "docs/a.txt"); got != "hello" {
			t.Fatalf("expected hello, got %q", got)
		}
		if got := read(t, client, "docs/a.txt"); got != "hello" {
			t.Fatalf("expected hello, got %q", got)
		}
		if n := primary.gets.Load(); n != 1 {
			t.Errorf("expected 1 primary get, got %d", n)
		}
		if policy.Size() != 5 {
			t.Errorf("expected tracked size 5, got %d", policy.Size())
		}
	})

	t.Run("missing object reports not found", func(t *testing.T) {
		client, _, _, _ := newTestCache(t, 0)
		_, err := client.GetObject(context.Background(), "missing")
		if !objectstore.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("least recently used object is evicted", func(t *testing.T) {
		client, primary, store, _ := newTestCache(t, 10)
		put(t, client, "a", "aaaaaa")
		put(t, client, "b", "bbbbbb")

		read(t, client, "a")
		read(t, client, "b")

		if _, err := store.GetObject(context.Background(), "a"); !objectstore.IsNotFound(err) {
			t.Errorf("expected a to be evicted, got %v", err)
		}
		read(t, client, "a")
		if n := primary.gets.Load(); n != 3 {
			t.Errorf("expected 3 primary gets, got %d", n)
		}
	})

	t.Run("object larger than the cache is still served", func(t *testing.T) {
		client, _, _, policy := newTestCache(t, 4)
		put(t, client, "big", "0123456789")

		if got := read(t, client, "big"); got != "0123456789" {
			t.Fatalf("expected full content, got %q", got)
		}
		if policy.Size() != 0 {
			t.Errorf("expected nothing tracked, got %d", policy.Size())
		}
	})
}

func TestCacheInvalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrite drops the cached copy", func(t *testing.T) {
		client, _, _, _ := newTestCache(t, 0)
		put(t, client, "k", "old")
		read(t, client, "k")

		put(t, client, "k", "new")
		if got := read(t, client, "k"); got != "new" {
			t.Fatalf("expected new, got %q", got)
		}
	})

	t.Run("copy drops the destination", func(t *testing.T) {
		client, _, _, _ := newTestCache(t, 0)
		put(t, client, "src", "source")
		put(t, client, "dst", "stale")
		read(t, client, "dst")

		if err := client.CopyObject(ctx, "src", "dst"); err != nil {
			t.Fatalf("copy: %v", err)
		}
		if got := read(t, client, "dst"); got != "source" {
			t.Fatalf("expected source, got %q", got)
		}
	})

	t.Run("delete removes both copies", func(t *testing.T) {
		client, _, store, policy := newTestCache(t, 0)
		put(t, client, "k", "value")
		read(t, client, "k")

		if err := client.DeleteObject(ctx, "k"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := store.GetObject(ctx, "k"); !objectstore.IsNotFound(err) {
			t.Errorf("expected cached copy removed, got %v", err)
		}
		if _, err := client.GetObject(ctx, "k"); !objectstore.IsNotFound(err) {
			t.Errorf("expected not found, got %v", err)
		}
		if policy.Size() != 0 {
			t.Errorf("expected nothing tracked, got %d", policy.Size())
		}
	})
}

func TestCacheHeadObject(t *testing.T) {
	client, primary, _, _ := newTestCache(t, 0)
	put(t, client, "k", "value")

	s, err := client.HeadObject(context.Background(), "k")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if s.Size != 5 {
		t.Errorf("expected size 5, got %d", s.Size)
	}
	if n := primary.gets.Load(); n != 0 {
		t.Errorf("expected no primary gets, got %d", n)
	}
}
