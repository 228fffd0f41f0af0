package sdk

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zeebo/blake3"
)

// Client is the blobfs SDK client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new SDK client
// baseURL is the base URL of the API, e.g., "http://localhost:8080/api/v1"
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithHTTPClient creates an SDK client with a custom HTTP client
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// PushRequest is the request parameters for Push
type PushRequest struct {
	Path        string
	Content     io.Reader
	ContentType string
	// Size is sent as Content-Length when positive.
	Size int64
}

// PushResponse is the response from Push
type PushResponse struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
	ContentType string `json:"content_type,omitempty"`
}

// Push streams Content to Path. The BLAKE3 hash reported by the server is
// checked against the one computed while sending.
func (c *Client) Push(ctx context.Context, req PushRequest) (*PushResponse, error) {
	hasher := blake3.New()
	body := io.TeeReader(req.Content, hasher)

	httpReq, err := c.newRequest(ctx, http.MethodPut, filesPath(req.Path), nil, body)
	if err != nil {
		return nil, err
	}
	if req.Size > 0 {
		httpReq.ContentLength = req.Size
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	var pushResp PushResponse
	if err := c.doRequest(httpReq, &pushResp); err != nil {
		return nil, err
	}

	if got := hex.EncodeToString(hasher.Sum(nil)); got != pushResp.Hash {
		return nil, fmt.Errorf("hash mismatch: sent %s, server stored %s", got, pushResp.Hash)
	}
	return &pushResp, nil
}

// PullRequest is the request parameters for Pull
type PullRequest struct {
	Path string
	// Hash is the expected hex BLAKE3 digest, checked when set.
	Hash string
}

// PullResponse describes a completed download
type PullResponse struct {
	Size int64
	Hash string
}

// Pull streams the file at Path to dst with minimal buffering
func (c *Client) Pull(ctx context.Context, req PullRequest, dst io.Writer) (*PullResponse, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, filesPath(req.Path), nil, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send pull request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeResponse(resp, nil)
	}

	hasher := blake3.New()
	n, err := io.Copy(io.MultiWriter(dst, hasher), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stream download: %w", err)
	}

	got := hex.EncodeToString(hasher.Sum(nil))
	if req.Hash != "" && got != req.Hash {
		return nil, fmt.Errorf("hash mismatch: expected %s, got %s", req.Hash, got)
	}
	return &PullResponse{Size: n, Hash: got}, nil
}

// Exists reports whether a file is stored at path.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	httpReq, err := c.newRequest(ctx, http.MethodHead, filesPath(path), nil, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("send exists request: %w", err)
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("exists failed with status %d", resp.StatusCode)
	}
}

// MoveRequest is the request parameters for Move
type MoveRequest struct {
	Source  string `json:"source"`
	DestDir string `json:"dest_dir"`
}

// Move moves Source into DestDir, keeping its name
func (c *Client) Move(ctx context.Context, req MoveRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/move", req, nil)
}

// FileInfo describes a stored file
type FileInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ListFiles lists every file under prefix
func (c *Client) ListFiles(ctx context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo
	if err := c.doGET(ctx, "/files", map[string]string{"prefix": prefix}, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Session is an upload session recorded by the server
type Session struct {
	UploadID     string    `json:"upload_id"`
	ObjectKey    string    `json:"object_key"`
	ContentType  *string   `json:"content_type"`
	State        string    `json:"state"`
	Parts        int64     `json:"parts"`
	Bytes        int64     `json:"bytes"`
	ErrorMessage *string   `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListSessionsRequest is the request parameters for ListSessions
type ListSessionsRequest struct {
	State string
	Page  *int32
	Limit *int32
}

// SessionPage is one page of sessions
type SessionPage struct {
	Data       []Session `json:"data"`
	Pagination struct {
		Limit    int32  `json:"limit"`
		Page     *int32 `json:"page"`
		NextPage *int32 `json:"next_page"`
	} `json:"pagination"`
}

// ListSessions lists upload sessions, newest first
func (c *Client) ListSessions(ctx context.Context, req *ListSessionsRequest) (*SessionPage, error) {
	query := map[string]string{}
	if req != nil {
		query["state"] = req.State
		if req.Page != nil {
			query["page"] = strconv.Itoa(int(*req.Page))
		}
		if req.Limit != nil {
			query["limit"] = strconv.Itoa(int(*req.Limit))
		}
	}

	var page SessionPage
	if err := c.doGET(ctx, "/sessions", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AbortSession discards the stored parts of an unfinished upload
func (c *Client) AbortSession(ctx context.Context, uploadID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(uploadID), nil, nil)
}
