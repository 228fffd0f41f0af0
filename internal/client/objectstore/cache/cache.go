package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/utils/ioutil"
)

// EvictionPolicy defines the interface for cache eviction strategies.
type EvictionPolicy interface {
	// Access is called when a cache key is read.
	Access(key string)
	// Add is called when a new item is successfully added to the cache, it returns the keys that should be evicted.
	Add(key string, size int64) []string
	// Remove is called when an item is removed from the cache.
	Remove(key string)
}

// Store is the storage holding cached object bodies.
type Store interface {
	PutObject(ctx context.Context, key string, content io.Reader) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, key string) error
}

// CacheConfig configures the cache storage.
type CacheConfig struct {
	// Cache is the cache storage client.
	Cache Store
	// Primary is the primary storage client (e.g., S3).
	Primary objectstore.Client
	// EvictionPolicy is the eviction policy for the cache (e.g., LRU with size management).
	EvictionPolicy EvictionPolicy
	Logger         *slog.Logger
}

// CacheClient is a read-through cache in front of a primary store. Writes go
// to the primary only; any call that changes an object drops its cached copy.
type CacheClient struct {
	cache          Store
	primary        objectstore.Client
	evictionPolicy EvictionPolicy
	logger         *slog.Logger
}

var (
	_ objectstore.Client = (*CacheClient)(nil)
	_ objectstore.Header = (*CacheClient)(nil)
)

// NewCacheClient creates a new cache storage client.
func NewCacheClient(cfg CacheConfig) (*CacheClient, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache storage client is required")
	}
	if cfg.Primary == nil {
		return nil, fmt.Errorf("primary storage client is required")
	}
	if cfg.EvictionPolicy == nil {
		return nil, fmt.Errorf("eviction policy is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CacheClient{
		cache:          cfg.Cache,
		primary:        cfg.Primary,
		evictionPolicy: cfg.EvictionPolicy,
		logger:         logger.With("component", "cache"),
	}, nil
}

func (c *CacheClient) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	return c.primary.InitiateMultipartUpload(ctx, key, contentType)
}

func (c *CacheClient) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	return c.primary.UploadPart(ctx, key, uploadID, partNumber, data)
}

// CompleteMultipartUpload completes the upload on the primary and drops any
// stale cached copy of key.
func (c *CacheClient) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.Part) error {
	if err := c.primary.CompleteMultipartUpload(ctx, key, uploadID, parts); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

func (c *CacheClient) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	return c.primary.AbortMultipartUpload(ctx, key, uploadID)
}

// GetObject retrieves an object from cache first, then falls back to primary.
// A primary hit is copied into the cache before it is returned.
func (c *CacheClient) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := c.cache.GetObject(ctx, key)
	if err == nil {
		// Found in cache - update access time for LRU
		c.evictionPolicy.Access(key)
		return reader, nil
	}

	primaryReader, err := c.primary.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}

	counted := ioutil.NewCountingReader(primaryReader)
	putErr := c.cache.PutObject(ctx, key, counted)
	closeErr := primaryReader.Close()
	if putErr != nil || closeErr != nil {
		c.logger.Warn("failed to cache object", "key", key, "error", firstErr(putErr, closeErr))
		c.drop(ctx, key)
		return c.primary.GetObject(ctx, key)
	}

	// Notify eviction policy that item was successfully added, it returns the keys that should be evicted.
	for _, evictKey := range c.evictionPolicy.Add(key, counted.Count()) {
		if err := c.cache.DeleteObject(ctx, evictKey); err != nil {
			c.logger.Warn("failed to evict object", "key", evictKey, "error", err)
		}
	}

	reader, err = c.cache.GetObject(ctx, key)
	if err != nil {
		c.logger.Warn("failed to read cached object", "key", key, "error", err)
		return c.primary.GetObject(ctx, key)
	}
	return reader, nil
}

// HeadObject asks the primary, which is authoritative for existence.
func (c *CacheClient) HeadObject(ctx context.Context, key string) (objectstore.Summary, error) {
	if h, ok := c.primary.(objectstore.Header); ok {
		return h.HeadObject(ctx, key)
	}
	body, err := c.GetObject(ctx, key)
	if err != nil {
		return objectstore.Summary{}, err
	}
	_ = body.Close()
	return objectstore.Summary{Key: key}, nil
}

func (c *CacheClient) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	if err := c.primary.CopyObject(ctx, srcKey, dstKey); err != nil {
		return err
	}
	c.invalidate(ctx, dstKey)
	return nil
}

// DeleteObject deletes an object from both cache and primary storage.
func (c *CacheClient) DeleteObject(ctx context.Context, key string) error {
	c.invalidate(ctx, key)

	if err := c.primary.DeleteObject(ctx, key); err != nil {
		return err
	}
	return nil
}

func (c *CacheClient) ListObjects(ctx context.Context, prefix, continuationToken string) (objectstore.Page, error) {
	return c.primary.ListObjects(ctx, prefix, continuationToken)
}

func (c *CacheClient) invalidate(ctx context.Context, key string) {
	if err := c.cache.DeleteObject(ctx, key); err != nil && !objectstore.IsNotFound(err) {
		c.logger.Warn("failed to delete from cache", "key", key, "error", err)
		return
	}
	c.evictionPolicy.Remove(key)
}

func (c *CacheClient) drop(ctx context.Context, key string) {
	_ = c.cache.DeleteObject(ctx, key)
	c.evictionPolicy.Remove(key)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
