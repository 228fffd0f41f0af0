// Package s3 implements objectstore.Client on Amazon S3 and S3-compatible
// services through aws-sdk-go-v2. A client is bound to a single bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

// API is the subset of the S3 client used by ClientImpl.
type API interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Config struct {
	// Bucket is the bucket every key is resolved against.
	Bucket string
	// Region defaults to us-east-1 when neither this nor the environment sets one.
	Region string
	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string
	// AccessKeyID and SecretAccessKey select static credentials. When empty
	// the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	// PageSize caps the number of keys per listing page. Zero lets the
	// service decide.
	PageSize int32
}

type ClientImpl struct {
	api      API
	bucket   string
	pageSize int32
}

var (
	_ objectstore.Client = (*ClientImpl)(nil)
	_ objectstore.Header = (*ClientImpl)(nil)
)

// NewClient builds an S3 client from cfg using the default AWS config chain.
func NewClient(ctx context.Context, cfg S3Config) (*ClientImpl, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithAPI(api, cfg.Bucket, cfg.PageSize)
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api API, bucket string, pageSize int32) (*ClientImpl, error) {
	if api == nil {
		return nil, fmt.Errorf("api is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &ClientImpl{api: api, bucket: bucket, pageSize: pageSize}, nil
}

func (c *ClientImpl) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := c.api.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", classify("create multipart upload", key, err)
	}
	if aws.ToString(out.UploadId) == "" {
		return "", fmt.Errorf("create multipart upload %s: empty upload id", key)
	}
	return aws.ToString(out.UploadId), nil
}

func (c *ClientImpl) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	out, err := c.api.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", classify("upload part", key, err)
	}
	return aws.ToString(out.ETag), nil
}

func (c *ClientImpl) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.Part) error {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(part.Tag),
			PartNumber: aws.Int32(part.Number),
		})
	}

	_, err := c.api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(c.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	return classify("complete multipart upload", key, err)
}

func (c *ClientImpl) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	_, err := c.api.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	return classify("abort multipart upload", key, err)
}

func (c *ClientImpl) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify("get object", key, err)
	}
	return out.Body, nil
}

func (c *ClientImpl) HeadObject(ctx context.Context, key string) (objectstore.Summary, error) {
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return objectstore.Summary{}, classify("head object", key, err)
	}
	return objectstore.Summary{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         aws.ToString(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// CopyObject performs a server-side copy within the bucket.
func (c *ClientImpl) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := c.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(c.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(c.bucket, srcKey)),
	})
	return classify("copy object", srcKey, err)
}

func (c *ClientImpl) DeleteObject(ctx context.Context, key string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return classify("delete object", key, err)
}

func (c *ClientImpl) ListObjects(ctx context.Context, prefix, continuationToken string) (objectstore.Page, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}
	if c.pageSize > 0 {
		input.MaxKeys = aws.Int32(c.pageSize)
	}

	out, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return objectstore.Page{}, classify("list objects", prefix, err)
	}

	page := objectstore.Page{
		Truncated:         aws.ToBool(out.IsTruncated),
		ContinuationToken: aws.ToString(out.NextContinuationToken),
		Objects:           make([]objectstore.Summary, 0, len(out.Contents)),
	}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, objectstore.Summary{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         aws.ToString(obj.ETag),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return page, nil
}

func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// classify maps SDK errors onto objectstore statuses, first by error code and
// then by HTTP status.
func classify(op, key string, err error) error {
	if err == nil {
		return nil
	}

	status := objectstore.StatusUnknown
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchUpload", "NoSuchBucket":
			status = objectstore.StatusNotFound
		case "AccessDenied", "Forbidden", "AllAccessDisabled":
			status = objectstore.StatusForbidden
		}
	}
	if status == objectstore.StatusUnknown {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.HTTPStatusCode() {
			case http.StatusNotFound:
				status = objectstore.StatusNotFound
			case http.StatusForbidden:
				status = objectstore.StatusForbidden
			}
		}
	}
	return objectstore.NewStatusError(op, key, status, err)
}
