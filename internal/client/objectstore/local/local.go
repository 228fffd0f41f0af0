package local

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	blake3util "github.com/beanbocchi/blobfs/internal/utils/blake3"
)

const (
	uploadsDir     = ".uploads"
	metadataSuffix = ".metadata.json"
	tempPrefix     = ".blobfs-tmp-"
	sessionFile    = "session.json"

	DefaultPageSize = 1000
)

type metadata struct {
	ContentType  string    `json:"contentType,omitempty"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"lastModified"`
}

type session struct {
	Key         string    `json:"key"`
	ContentType string    `json:"contentType,omitempty"`
	Created     time.Time `json:"created"`
}

type ClientImpl struct {
	root     string
	pageSize int
	locks    sync.Map // map[string]*sync.RWMutex
}

var (
	_ objectstore.Client = (*ClientImpl)(nil)
	_ objectstore.Header = (*ClientImpl)(nil)
)

type LocalConfig struct {
	// Root is the base directory where objects are stored on disk (e.g., ./data)
	Root string
	// PageSize is the maximum number of objects per listing page.
	PageSize int
}

func NewClient(cfg LocalConfig) (*ClientImpl, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("local root is required")
	}
	if err := os.MkdirAll(filepath.Join(cfg.Root, uploadsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ClientImpl{root: cfg.Root, pageSize: pageSize}, nil
}

func (c *ClientImpl) getLock(key string) *sync.RWMutex {
	lock, _ := c.locks.LoadOrStore(key, &sync.RWMutex{})
	return lock.(*sync.RWMutex)
}

// fullPath resolves key under root. Keys that escape root or collide with the
// store's own bookkeeping files are refused with StatusForbidden.
func (c *ClientImpl) fullPath(key string) (string, error) {
	if key == "" || strings.Contains(key, "\x00") {
		return "", refuse(key, "invalid key")
	}
	if strings.HasSuffix(key, metadataSuffix) || key == uploadsDir || strings.HasPrefix(key, uploadsDir+"/") {
		return "", refuse(key, "reserved key")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", refuse(key, "invalid key")
		}
		if strings.HasPrefix(seg, tempPrefix) {
			return "", refuse(key, "reserved key")
		}
	}
	return filepath.Join(c.root, filepath.FromSlash(key)), nil
}

func refuse(key, reason string) error {
	return objectstore.NewStatusError("resolve key", key, objectstore.StatusForbidden, fmt.Errorf("%s %q", reason, key))
}

func (c *ClientImpl) sessionDir(uploadID string) (string, error) {
	if _, err := uuid.Parse(uploadID); err != nil {
		return "", objectstore.NewStatusError("resolve upload", "", objectstore.StatusNotFound, fmt.Errorf("invalid upload id %q", uploadID))
	}
	return filepath.Join(c.root, uploadsDir, uploadID), nil
}

func partPath(dir string, partNumber int32) string {
	return filepath.Join(dir, fmt.Sprintf("part-%05d", partNumber))
}

func (c *ClientImpl) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	if _, err := c.fullPath(key); err != nil {
		return "", err
	}

	uploadID := uuid.NewString()
	dir, _ := c.sessionDir(uploadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", wrap("initiate upload", key, fmt.Errorf("mkdir: %w", err))
	}

	data, err := sonic.Marshal(session{Key: key, ContentType: contentType, Created: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sessionFile), data, 0o644); err != nil {
		os.RemoveAll(dir)
		return "", wrap("initiate upload", key, fmt.Errorf("write session: %w", err))
	}
	return uploadID, nil
}

func (c *ClientImpl) loadSession(op, key, uploadID string) (string, session, error) {
	dir, err := c.sessionDir(uploadID)
	if err != nil {
		return "", session{}, err
	}
	data, err := os.ReadFile(filepath.Join(dir, sessionFile))
	if err != nil {
		return "", session{}, wrap(op, key, fmt.Errorf("read session %s: %w", uploadID, err))
	}

	var s session
	if err := sonic.Unmarshal(data, &s); err != nil {
		return "", session{}, fmt.Errorf("unmarshal session %s: %w", uploadID, err)
	}
	if s.Key != key {
		return "", session{}, objectstore.NewStatusError(op, key, objectstore.StatusNotFound, fmt.Errorf("upload %s belongs to %s", uploadID, s.Key))
	}
	return dir, s, nil
}

func (c *ClientImpl) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	if partNumber < 1 {
		return "", fmt.Errorf("invalid part number %d", partNumber)
	}
	dir, _, err := c.loadSession("upload part", key, uploadID)
	if err != nil {
		return "", err
	}

	if err := writeAtomic(partPath(dir, partNumber), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return "", wrap("upload part", key, err)
	}
	return blake3util.Tag(data), nil
}

// CompleteMultipartUpload concatenates the listed parts into the object,
// verifying each part against its tag.
func (c *ClientImpl) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.Part) error {
	if len(parts) == 0 {
		return fmt.Errorf("complete upload %s: no parts", uploadID)
	}
	dir, s, err := c.loadSession("complete upload", key, uploadID)
	if err != nil {
		return err
	}
	path, err := c.fullPath(key)
	if err != nil {
		return err
	}

	lock := c.getLock(key)
	lock.Lock()
	defer lock.Unlock()

	hash := blake3.New()
	var size int64
	err = writeAtomic(path, func(w io.Writer) error {
		out := io.MultiWriter(w, hash)
		for i, part := range parts {
			if i > 0 && part.Number <= parts[i-1].Number {
				return fmt.Errorf("parts out of order at %d", part.Number)
			}
			n, err := copyPart(out, partPath(dir, part.Number), part.Tag)
			if err != nil {
				return fmt.Errorf("part %d: %w", part.Number, err)
			}
			size += n
		}
		return nil
	})
	if err != nil {
		return wrap("complete upload", key, err)
	}

	meta := metadata{
		ContentType:  s.ContentType,
		Size:         size,
		ETag:         tagOf(hash),
		LastModified: time.Now().UTC(),
	}
	if err := c.saveMetadata(path, meta); err != nil {
		return wrap("complete upload", key, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove session %s: %w", uploadID, err)
	}
	return nil
}

func tagOf(h *blake3.Hasher) string {
	return `"` + hex.EncodeToString(h.Sum(nil)) + `"`
}

func copyPart(w io.Writer, path, tag string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	hash := blake3.New()
	n, err := io.Copy(io.MultiWriter(w, hash), f)
	if err != nil {
		return n, err
	}
	if got := tagOf(hash); got != tag {
		return n, fmt.Errorf("tag mismatch: have %s, want %s", got, tag)
	}
	return n, nil
}

func (c *ClientImpl) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	dir, _, err := c.loadSession("abort upload", key, uploadID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove session %s: %w", uploadID, err)
	}
	return nil
}

// PutObject stores content in a single request. It is used by the read cache.
func (c *ClientImpl) PutObject(ctx context.Context, key string, content io.Reader) error {
	path, err := c.fullPath(key)
	if err != nil {
		return err
	}

	lock := c.getLock(key)
	lock.Lock()
	defer lock.Unlock()

	hash := blake3.New()
	var size int64
	if err := writeAtomic(path, func(w io.Writer) error {
		n, err := io.Copy(io.MultiWriter(w, hash), content)
		size = n
		return err
	}); err != nil {
		return wrap("put object", key, err)
	}

	return c.saveMetadata(path, metadata{
		Size:         size,
		ETag:         tagOf(hash),
		LastModified: time.Now().UTC(),
	})
}

func (c *ClientImpl) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := c.fullPath(key)
	if err != nil {
		return nil, err
	}

	lock := c.getLock(key)
	lock.RLock()
	defer lock.RUnlock()

	file, err := os.Open(path)
	if err != nil {
		return nil, wrap("get object", key, fmt.Errorf("open file: %w", err))
	}
	// A key that is only a prefix of other keys maps to a directory.
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, wrap("get object", key, fmt.Errorf("stat file: %w", err))
	}
	if info.IsDir() {
		file.Close()
		return nil, wrap("get object", key, fs.ErrNotExist)
	}
	return file, nil
}

func (c *ClientImpl) HeadObject(ctx context.Context, key string) (objectstore.Summary, error) {
	path, err := c.fullPath(key)
	if err != nil {
		return objectstore.Summary{}, err
	}

	lock := c.getLock(key)
	lock.RLock()
	defer lock.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		return objectstore.Summary{}, wrap("head object", key, err)
	}
	if info.IsDir() {
		return objectstore.Summary{}, wrap("head object", key, fs.ErrNotExist)
	}
	return c.summary(key, path, info), nil
}

func (c *ClientImpl) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	src, err := c.fullPath(srcKey)
	if err != nil {
		return err
	}
	dst, err := c.fullPath(dstKey)
	if err != nil {
		return err
	}

	srcLock, dstLock := c.getLock(srcKey), c.getLock(dstKey)
	srcLock.RLock()
	defer srcLock.RUnlock()
	if srcKey != dstKey {
		dstLock.Lock()
		defer dstLock.Unlock()
	}

	in, err := os.Open(src)
	if err != nil {
		return wrap("copy object", srcKey, err)
	}
	defer in.Close()
	if info, err := in.Stat(); err != nil {
		return wrap("copy object", srcKey, err)
	} else if info.IsDir() {
		return wrap("copy object", srcKey, fs.ErrNotExist)
	}

	if err := writeAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}); err != nil {
		return wrap("copy object", dstKey, err)
	}

	meta, err := c.loadMetadata(src)
	if err != nil {
		info, statErr := in.Stat()
		if statErr != nil {
			return wrap("copy object", srcKey, statErr)
		}
		meta = metadata{Size: info.Size()}
	}
	meta.LastModified = time.Now().UTC()
	return c.saveMetadata(dst, meta)
}

// DeleteObject removes the object and its metadata. Deleting a missing key
// succeeds.
func (c *ClientImpl) DeleteObject(ctx context.Context, key string) error {
	path, err := c.fullPath(key)
	if err != nil {
		return err
	}

	lock := c.getLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return wrap("delete object", key, fmt.Errorf("remove file: %w", err))
	}
	if err := os.Remove(path + metadataSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove metadata: %w", err)
	}
	return nil
}

// ListObjects walks root and returns keys under prefix in lexical order. The
// continuation token is the last key of the previous page.
func (c *ClientImpl) ListObjects(ctx context.Context, prefix, continuationToken string) (objectstore.Page, error) {
	type entry struct {
		key  string
		path string
		info fs.FileInfo
	}
	var entries []entry

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != c.root && d.Name() == uploadsDir && filepath.Dir(path) == filepath.Clean(c.root) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, metadataSuffix) || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}

		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) || key <= continuationToken {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, entry{key: key, path: path, info: info})
		return nil
	})
	if err != nil {
		return objectstore.Page{}, wrap("list objects", prefix, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	var page objectstore.Page
	if len(entries) > c.pageSize {
		entries = entries[:c.pageSize]
		page.Truncated = true
		page.ContinuationToken = entries[len(entries)-1].key
	}
	for _, e := range entries {
		page.Objects = append(page.Objects, c.summary(e.key, e.path, e.info))
	}
	return page, nil
}

func (c *ClientImpl) summary(key, path string, info fs.FileInfo) objectstore.Summary {
	s := objectstore.Summary{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime().UTC(),
	}
	if meta, err := c.loadMetadata(path); err == nil {
		s.ETag = meta.ETag
	}
	return s
}

// ContentType returns the content type recorded when the object was completed.
func (c *ClientImpl) ContentType(key string) (string, error) {
	path, err := c.fullPath(key)
	if err != nil {
		return "", err
	}
	meta, err := c.loadMetadata(path)
	if err != nil {
		return "", wrap("content type", key, err)
	}
	return meta.ContentType, nil
}

func (c *ClientImpl) saveMetadata(path string, meta metadata) error {
	data, err := sonic.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return writeAtomic(path+metadataSuffix, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func (c *ClientImpl) loadMetadata(path string) (metadata, error) {
	var meta metadata
	data, err := os.ReadFile(path + metadataSuffix)
	if err != nil {
		return meta, err
	}
	if err := sonic.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, nil
}

// writeAtomic writes to a temp file next to path and renames it into place so
// a mid-write crash never leaves a partial file.
func writeAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmpPath := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func wrap(op, key string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return objectstore.NewStatusError(op, key, objectstore.StatusNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return objectstore.NewStatusError(op, key, objectstore.StatusForbidden, err)
	}
	return objectstore.NewStatusError(op, key, objectstore.StatusUnknown, err)
}
