// Package memory is an in-process object store with multipart sessions and
// paginated listings. It backs tests and the "memory" filestore type.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/utils/blake3"
)

// DefaultPageSize matches the listing page size of S3.
const DefaultPageSize = 1000

type object struct {
	data        []byte
	contentType string
	etag        string
	modified    time.Time
}

type upload struct {
	key         string
	contentType string
	parts       map[int32][]byte
	tags        map[int32]string
}

type Config struct {
	// PageSize is the maximum number of objects per listing page.
	PageSize int
}

type Store struct {
	mu       sync.RWMutex
	objects  map[string]object
	uploads  map[string]*upload
	pageSize int
}

var (
	_ objectstore.Client = (*Store)(nil)
	_ objectstore.Header = (*Store)(nil)
)

func NewStore(cfg Config) *Store {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{
		objects:  make(map[string]object),
		uploads:  make(map[string]*upload),
		pageSize: pageSize,
	}
}

func (s *Store) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.uploads[id] = &upload{
		key:         key,
		contentType: contentType,
		parts:       make(map[int32][]byte),
		tags:        make(map[int32]string),
	}
	return id, nil
}

func (s *Store) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.uploads[uploadID]
	if !ok || up.key != key {
		return "", objectstore.NewStatusError("upload part", key, objectstore.StatusNotFound, fmt.Errorf("no such upload %s", uploadID))
	}
	if partNumber < 1 {
		return "", fmt.Errorf("invalid part number %d", partNumber)
	}

	tag := blake3.Tag(data)
	up.parts[partNumber] = bytes.Clone(data)
	up.tags[partNumber] = tag
	return tag, nil
}

func (s *Store) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.uploads[uploadID]
	if !ok || up.key != key {
		return objectstore.NewStatusError("complete upload", key, objectstore.StatusNotFound, fmt.Errorf("no such upload %s", uploadID))
	}
	if len(parts) == 0 {
		return fmt.Errorf("complete upload %s: no parts", uploadID)
	}

	var buf bytes.Buffer
	for i, part := range parts {
		if i > 0 && part.Number <= parts[i-1].Number {
			return fmt.Errorf("complete upload %s: parts out of order at %d", uploadID, part.Number)
		}
		data, ok := up.parts[part.Number]
		if !ok || up.tags[part.Number] != part.Tag {
			return fmt.Errorf("complete upload %s: invalid part %d", uploadID, part.Number)
		}
		buf.Write(data)
	}

	s.objects[key] = object{
		data:        buf.Bytes(),
		contentType: up.contentType,
		etag:        blake3.Tag(buf.Bytes()),
		modified:    time.Now().UTC(),
	}
	delete(s.uploads, uploadID)
	return nil
}

func (s *Store) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uploads[uploadID]; !ok {
		return objectstore.NewStatusError("abort upload", key, objectstore.StatusNotFound, fmt.Errorf("no such upload %s", uploadID))
	}
	delete(s.uploads, uploadID)
	return nil
}

func (s *Store) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, notFound("get object", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) HeadObject(ctx context.Context, key string) (objectstore.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return objectstore.Summary{}, notFound("head object", key)
	}
	return summary(key, obj), nil
}

func (s *Store) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[srcKey]
	if !ok {
		return notFound("copy object", srcKey)
	}
	obj.modified = time.Now().UTC()
	s.objects[dstKey] = obj
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// ListObjects returns keys under prefix in lexical order. The continuation
// token is the last key of the previous page.
func (s *Store) ListObjects(ctx context.Context, prefix, continuationToken string) (objectstore.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) && key > continuationToken {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var page objectstore.Page
	if len(keys) > s.pageSize {
		keys = keys[:s.pageSize]
		page.Truncated = true
		page.ContinuationToken = keys[len(keys)-1]
	}
	for _, key := range keys {
		page.Objects = append(page.Objects, summary(key, s.objects[key]))
	}
	return page, nil
}

// Keys returns every stored key in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.objects))
}

// PendingUploads returns the IDs of sessions that were neither completed nor
// aborted.
func (s *Store) PendingUploads() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.uploads))
}

// ContentType returns the content type an object was stored with.
func (s *Store) ContentType(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	return obj.contentType, ok
}

func summary(key string, obj object) objectstore.Summary {
	return objectstore.Summary{
		Key:          key,
		Size:         int64(len(obj.data)),
		ETag:         obj.etag,
		LastModified: obj.modified,
	}
}

func notFound(op, key string) error {
	return objectstore.NewStatusError(op, key, objectstore.StatusNotFound, fmt.Errorf("no such key"))
}
