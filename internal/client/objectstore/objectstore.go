package objectstore

import (
	"context"
	"io"
	"time"
)

// Part is the acknowledgment of one uploaded part of a multipart session.
type Part struct {
	Number int32
	Tag    string
}

// Summary is a read-only projection of a remote object produced by listing.
type Summary struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Page is a single page of a prefix listing.
type Page struct {
	Objects []Summary
	// Truncated reports whether more pages exist after this one.
	Truncated bool
	// ContinuationToken is passed back to ListObjects to fetch the next page.
	ContinuationToken string
}

// Client is the capability set required from an object storage backend.
// A Client is bound to a single bucket.
type Client interface {
	InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error)
	UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) error
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error

	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	CopyObject(ctx context.Context, srcKey, dstKey string) error
	DeleteObject(ctx context.Context, key string) error
	ListObjects(ctx context.Context, prefix, continuationToken string) (Page, error)
}

// Header is implemented by clients that can probe an object without
// transferring its body.
type Header interface {
	HeadObject(ctx context.Context, key string) (Summary, error)
}
