package stoj

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"storj.io/uplink"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/utils/blake3"
)

const contentTypeKey = "content-type"

type ClientImpl struct {
	project  *uplink.Project
	bucket   string
	pageSize int

	contentTypes *pendingTypes
}

var (
	_ objectstore.Client = (*ClientImpl)(nil)
	_ objectstore.Header = (*ClientImpl)(nil)
)

type StorjConfig struct {
	// AccessGrant is the Storj access grant string
	AccessGrant string
	// Bucket is the bucket name where objects will be stored
	Bucket string
	// PageSize caps the number of keys per listing page.
	PageSize int
}

// NewClient creates a new Storj objectstore client
func NewClient(ctx context.Context, cfg StorjConfig) (*ClientImpl, error) {
	if cfg.AccessGrant == "" {
		return nil, fmt.Errorf("access grant is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	access, err := uplink.ParseAccess(cfg.AccessGrant)
	if err != nil {
		return nil, fmt.Errorf("parse access grant: %w", err)
	}

	project, err := uplink.OpenProject(ctx, access)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}

	if _, err := project.EnsureBucket(ctx, cfg.Bucket); err != nil {
		project.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &ClientImpl{
		project:      project,
		bucket:       cfg.Bucket,
		pageSize:     pageSize,
		contentTypes: newPendingTypes(pendingTTL),
	}, nil
}

// Close closes the Storj project connection
func (c *ClientImpl) Close() error {
	if c.project != nil {
		return c.project.Close()
	}
	return nil
}

// InitiateMultipartUpload begins a new upload. The content type is applied as
// custom metadata when the upload is committed within pendingTTL; later
// commits store no content type.
func (c *ClientImpl) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	info, err := c.project.BeginUpload(ctx, c.bucket, key, nil)
	if err != nil {
		return "", classify("begin upload", key, err)
	}

	if contentType != "" {
		c.contentTypes.remember(info.UploadID, contentType)
	}
	return info.UploadID, nil
}

// UploadPart writes data as a single part and tags it with its BLAKE3 digest.
func (c *ClientImpl) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	if partNumber < 1 {
		return "", fmt.Errorf("invalid part number %d", partNumber)
	}

	part, err := c.project.UploadPart(ctx, c.bucket, key, uploadID, uint32(partNumber))
	if err != nil {
		return "", classify("upload part", key, err)
	}

	if _, err := part.Write(data); err != nil {
		_ = part.Abort()
		return "", classify("write part", key, err)
	}

	tag := blake3.Tag(data)
	if err := part.SetETag([]byte(tag)); err != nil {
		_ = part.Abort()
		return "", fmt.Errorf("set part etag: %w", err)
	}
	if err := part.Commit(); err != nil {
		return "", classify("commit part", key, err)
	}
	return tag, nil
}

// CompleteMultipartUpload commits the upload. Storj assembles every committed
// part in part-number order, so parts only needs to be non-empty.
func (c *ClientImpl) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.Part) error {
	if len(parts) == 0 {
		return fmt.Errorf("complete upload %s: no parts", uploadID)
	}

	contentType, ok := c.contentTypes.lookup(uploadID)

	var opts *uplink.CommitUploadOptions
	if ok {
		opts = &uplink.CommitUploadOptions{
			CustomMetadata: uplink.CustomMetadata{contentTypeKey: contentType},
		}
	}

	if _, err := c.project.CommitUpload(ctx, c.bucket, key, uploadID, opts); err != nil {
		return classify("commit upload", key, err)
	}

	c.contentTypes.forget(uploadID)
	return nil
}

// AbortMultipartUpload discards an upload and all of its parts.
func (c *ClientImpl) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	if err := c.project.AbortUpload(ctx, c.bucket, key, uploadID); err != nil {
		return classify("abort upload", key, err)
	}
	c.contentTypes.forget(uploadID)
	return nil
}

// GetObject downloads an object from Storj
func (c *ClientImpl) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	download, err := c.project.DownloadObject(ctx, c.bucket, key, nil)
	if err != nil {
		return nil, classify("download object", key, err)
	}
	return download, nil
}

func (c *ClientImpl) HeadObject(ctx context.Context, key string) (objectstore.Summary, error) {
	obj, err := c.project.StatObject(ctx, c.bucket, key)
	if err != nil {
		return objectstore.Summary{}, classify("stat object", key, err)
	}
	return summary(obj), nil
}

// CopyObject performs a server-side copy within the bucket.
func (c *ClientImpl) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	if _, err := c.project.CopyObject(ctx, c.bucket, srcKey, c.bucket, dstKey, nil); err != nil {
		return classify("copy object", srcKey, err)
	}
	return nil
}

// DeleteObject deletes an object from Storj
func (c *ClientImpl) DeleteObject(ctx context.Context, key string) error {
	if _, err := c.project.DeleteObject(ctx, c.bucket, key); err != nil {
		return classify("delete object", key, err)
	}
	return nil
}

// ListObjects lists recursively from the deepest directory of prefix and
// filters the rest client side, since uplink only accepts prefixes ending in
// a slash. Listing order follows the encrypted keys, so the continuation token
// is the last key returned and the next page resumes right after it.
func (c *ClientImpl) ListObjects(ctx context.Context, prefix, continuationToken string) (objectstore.Page, error) {
	dirPrefix := ""
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		dirPrefix = prefix[:i+1]
	}

	it := c.project.ListObjects(ctx, c.bucket, &uplink.ListObjectsOptions{
		Prefix:    dirPrefix,
		Recursive: true,
		System:    true,
	})

	var page objectstore.Page
	resumed := continuationToken == ""
	for it.Next() {
		obj := it.Item()
		if obj.IsPrefix || !strings.HasPrefix(obj.Key, prefix) {
			continue
		}
		if !resumed {
			resumed = obj.Key == continuationToken
			continue
		}
		if len(page.Objects) == c.pageSize {
			page.Truncated = true
			page.ContinuationToken = page.Objects[len(page.Objects)-1].Key
			break
		}
		page.Objects = append(page.Objects, summary(obj))
	}
	if err := it.Err(); err != nil {
		return objectstore.Page{}, classify("list objects", prefix, err)
	}
	if !resumed {
		return objectstore.Page{}, objectstore.NewStatusError("list objects", prefix, objectstore.StatusUnknown,
			fmt.Errorf("continuation key %q no longer listed", continuationToken))
	}
	return page, nil
}

func summary(obj *uplink.Object) objectstore.Summary {
	return objectstore.Summary{
		Key:          obj.Key,
		Size:         obj.System.ContentLength,
		LastModified: obj.System.Created,
	}
}

func classify(op, key string, err error) error {
	if err == nil {
		return nil
	}

	status := objectstore.StatusUnknown
	switch {
	case errors.Is(err, uplink.ErrObjectNotFound),
		errors.Is(err, uplink.ErrBucketNotFound),
		errors.Is(err, uplink.ErrUploadIDInvalid):
		status = objectstore.StatusNotFound
	case errors.Is(err, uplink.ErrPermissionDenied):
		status = objectstore.StatusForbidden
	}
	return objectstore.NewStatusError(op, key, status, err)
}
