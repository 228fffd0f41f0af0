package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/beanbocchi/blobfs/internal/model"
)

// filesPath returns the escaped API path of a file.
func filesPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/files/" + strings.Join(segments, "/")
}

func (c *Client) newRequest(ctx context.Context, method, path string, query map[string]string, body io.Reader) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if len(query) > 0 {
		q := httpReq.URL.Query()
		for key, value := range query {
			if value == "" {
				continue
			}
			q.Set(key, value)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	return httpReq, nil
}

func (c *Client) doGET(ctx context.Context, path string, query map[string]string, out any) error {
	httpReq, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.doRequest(httpReq, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := sonic.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = strings.NewReader(string(data))
	}

	httpReq, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return c.doRequest(httpReq, out)
}

// doRequest sends req and decodes the data of the response into out, which
// may be nil.
func (c *Client) doRequest(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	var commonResp struct {
		Data  json.RawMessage `json:"data"`
		Error *model.Error    `json:"error"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := sonic.Unmarshal(body, &commonResp); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("request failed with status code: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if commonResp.Error != nil {
		return commonResp.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	if out == nil || len(commonResp.Data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(commonResp.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}
