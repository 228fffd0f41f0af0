// Package minio implements objectstore.Client on MinIO through the low-level
// minio-go Core API, which exposes the multipart calls directly.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

type MinioConfig struct {
	// Endpoint is host[:port] without scheme.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
	// PageSize caps the number of keys per listing page.
	PageSize int
}

type ClientImpl struct {
	core     *minio.Core
	bucket   string
	pageSize int
}

var (
	_ objectstore.Client = (*ClientImpl)(nil)
	_ objectstore.Header = (*ClientImpl)(nil)
)

func NewClient(ctx context.Context, cfg MinioConfig) (*ClientImpl, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	core, err := minio.NewCore(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := core.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := core.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &ClientImpl{core: core, bucket: cfg.Bucket, pageSize: pageSize}, nil
}

func (c *ClientImpl) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	uploadID, err := c.core.NewMultipartUpload(ctx, c.bucket, key, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", classify("new multipart upload", key, err)
	}
	return uploadID, nil
}

func (c *ClientImpl) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	part, err := c.core.PutObjectPart(ctx, c.bucket, key, uploadID, int(partNumber),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectPartOptions{})
	if err != nil {
		return "", classify("put object part", key, err)
	}
	return part.ETag, nil
}

func (c *ClientImpl) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.Part) error {
	completed := make([]minio.CompletePart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, minio.CompletePart{PartNumber: int(part.Number), ETag: part.Tag})
	}

	_, err := c.core.CompleteMultipartUpload(ctx, c.bucket, key, uploadID, completed, minio.PutObjectOptions{})
	return classify("complete multipart upload", key, err)
}

func (c *ClientImpl) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	return classify("abort multipart upload", key, c.core.AbortMultipartUpload(ctx, c.bucket, key, uploadID))
}

func (c *ClientImpl) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	body, _, _, err := c.core.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify("get object", key, err)
	}
	return body, nil
}

func (c *ClientImpl) HeadObject(ctx context.Context, key string) (objectstore.Summary, error) {
	info, err := c.core.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return objectstore.Summary{}, classify("stat object", key, err)
	}
	return summary(info), nil
}

func (c *ClientImpl) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := c.core.Client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: c.bucket, Object: srcKey},
	)
	return classify("copy object", srcKey, err)
}

func (c *ClientImpl) DeleteObject(ctx context.Context, key string) error {
	return classify("remove object", key, c.core.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}))
}

func (c *ClientImpl) ListObjects(ctx context.Context, prefix, continuationToken string) (objectstore.Page, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.Page{}, err
	}

	result, err := c.core.ListObjectsV2(c.bucket, prefix, "", continuationToken, "", c.pageSize)
	if err != nil {
		return objectstore.Page{}, classify("list objects", prefix, err)
	}

	page := objectstore.Page{
		Truncated:         result.IsTruncated,
		ContinuationToken: result.NextContinuationToken,
		Objects:           make([]objectstore.Summary, 0, len(result.Contents)),
	}
	for _, info := range result.Contents {
		page.Objects = append(page.Objects, summary(info))
	}
	return page, nil
}

func summary(info minio.ObjectInfo) objectstore.Summary {
	return objectstore.Summary{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}
}

func classify(op, key string, err error) error {
	if err == nil {
		return nil
	}

	var resp minio.ErrorResponse
	errors.As(err, &resp)
	status := objectstore.StatusUnknown
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchUpload" || resp.Code == "NoSuchBucket":
		status = objectstore.StatusNotFound
	case resp.Code == "AccessDenied":
		status = objectstore.StatusForbidden
	case resp.StatusCode == http.StatusNotFound:
		status = objectstore.StatusNotFound
	case resp.StatusCode == http.StatusForbidden:
		status = objectstore.StatusForbidden
	}
	return objectstore.NewStatusError(op, key, status, err)
}
