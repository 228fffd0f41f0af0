package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
)

// mockClient is a mock implementation of objectstore.Client for testing
type mockClient struct {
	mu            sync.Mutex
	sessions      map[string]string // uploadID -> key
	buffers       map[string][]byte // uploadID -> assembled parts
	objects       map[string][]byte
	completes     []string
	deletes       []string
	nextID        int
	downloadErr   error
	completeDelay time.Duration
	downloadDelay time.Duration
	copyDelay     time.Duration
}

func newMockClient() *mockClient {
	return &mockClient{
		sessions: make(map[string]string),
		buffers:  make(map[string][]byte),
		objects:  make(map[string][]byte),
	}
}

func (m *mockClient) InitiateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("upload-%d", m.nextID)
	m.sessions[id] = key
	return id, nil
}

func (m *mockClient) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers[uploadID] = append(m.buffers[uploadID], data...)
	return fmt.Sprintf("tag-%d", partNumber), nil
}

func (m *mockClient) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []objectstore.Part) error {
	if m.completeDelay > 0 {
		time.Sleep(m.completeDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = m.buffers[uploadID]
	m.completes = append(m.completes, key)
	delete(m.sessions, uploadID)
	delete(m.buffers, uploadID)
	return nil
}

func (m *mockClient) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, uploadID)
	delete(m.buffers, uploadID)
	return nil
}

func (m *mockClient) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.downloadDelay > 0 {
		time.Sleep(m.downloadDelay)
	}
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, objectstore.NewStatusError("get", key, objectstore.StatusNotFound, errors.New("not found"))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockClient) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	if m.copyDelay > 0 {
		time.Sleep(m.copyDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[srcKey]
	if !ok {
		return errors.New("not found")
	}
	m.objects[dstKey] = data
	return nil
}

func (m *mockClient) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	delete(m.objects, key)
	return nil
}

func (m *mockClient) ListObjects(ctx context.Context, prefix, token string) (objectstore.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var page objectstore.Page
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			page.Objects = append(page.Objects, objectstore.Summary{Key: key, Size: int64(len(data))})
		}
	}
	return page, nil
}

// put stores content through a one-part session.
func put(ctx context.Context, c objectstore.Client, key, content string) error {
	id, err := c.InitiateMultipartUpload(ctx, key, "")
	if err != nil {
		return err
	}
	tag, err := c.UploadPart(ctx, key, id, 1, []byte(content))
	if err != nil {
		return err
	}
	return c.CompleteMultipartUpload(ctx, key, id, []objectstore.Part{{Number: 1, Tag: tag}})
}

func TestNewSyncClient(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := newMockClient()
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if client == nil {
			t.Fatal("expected client to be non-nil")
		}
	})

	t.Run("nil client returns error", func(t *testing.T) {
		_, err := NewSyncClient(SyncConfig{Client: nil})
		if err == nil {
			t.Fatal("expected error for nil client")
		}
		if !strings.Contains(err.Error(), "client is required") {
			t.Errorf("expected error about client being required, got %v", err)
		}
	})
}

func TestSyncComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock := newMockClient()
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if err := put(ctx, client, "test.txt", "test content"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(mock.objects["test.txt"]) != "test content" {
			t.Errorf("expected content %q, got %q", "test content", string(mock.objects["test.txt"]))
		}
	})

	t.Run("concurrent completions to same key are serialized", func(t *testing.T) {
		mock := newMockClient()
		mock.completeDelay = 10 * time.Millisecond
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		var wg sync.WaitGroup
		errs := make([]error, 3)

		start := time.Now()
		for i := range 3 {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				errs[idx] = put(ctx, client, "concurrent.txt", fmt.Sprintf("content%d", idx))
			}(i)
		}
		wg.Wait()
		duration := time.Since(start)

		for i, err := range errs {
			if err != nil {
				t.Errorf("upload %d failed: %v", i, err)
			}
		}
		if duration < 30*time.Millisecond {
			t.Errorf("expected serialized completions, took %v", duration)
		}
		if len(mock.objects) != 1 {
			t.Errorf("expected 1 object, got %d", len(mock.objects))
		}
	})

	t.Run("concurrent completions to different keys are parallel", func(t *testing.T) {
		mock := newMockClient()
		mock.completeDelay = 20 * time.Millisecond
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		var wg sync.WaitGroup
		keys := []string{"key1.txt", "key2.txt", "key3.txt"}

		start := time.Now()
		for _, key := range keys {
			wg.Add(1)
			go func(k string) {
				defer wg.Done()
				put(ctx, client, k, "content")
			}(key)
		}
		wg.Wait()
		duration := time.Since(start)

		// With parallel execution, should take roughly the same time as one
		// completion (not 3x the time)
		if duration > 55*time.Millisecond {
			t.Errorf("expected parallel execution, took %v", duration)
		}
		if len(mock.objects) != 3 {
			t.Errorf("expected 3 objects, got %d", len(mock.objects))
		}
	})
}

func TestSyncGetObject(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock := newMockClient()
		mock.objects["test.txt"] = []byte("test content")
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		reader, err := client.GetObject(ctx, "test.txt")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if string(data) != "test content" {
			t.Errorf("expected %q, got %q", "test content", string(data))
		}
	})

	t.Run("not found status survives wrapping", func(t *testing.T) {
		client, err := NewSyncClient(SyncConfig{Client: newMockClient()})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		_, err = client.GetObject(ctx, "missing")
		if !objectstore.IsNotFound(err) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("concurrent downloads to same key are parallel", func(t *testing.T) {
		mock := newMockClient()
		mock.objects["test.txt"] = []byte("test content")
		mock.downloadDelay = 20 * time.Millisecond
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		var wg sync.WaitGroup
		results := make([][]byte, 3)

		start := time.Now()
		for i := range 3 {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				reader, err := client.GetObject(ctx, "test.txt")
				if err != nil {
					return
				}
				defer reader.Close()
				data, _ := io.ReadAll(reader)
				results[idx] = data
			}(i)
		}
		wg.Wait()
		duration := time.Since(start)

		// With parallel reads, should take roughly the same time as one download
		if duration > 55*time.Millisecond {
			t.Errorf("expected parallel reads, took %v", duration)
		}
		for i, data := range results {
			if string(data) != "test content" {
				t.Errorf("download %d: expected %q, got %q", i, "test content", string(data))
			}
		}
	})

	t.Run("read lock released on close", func(t *testing.T) {
		mock := newMockClient()
		mock.objects["test.txt"] = []byte("test content")
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		reader, err := client.GetObject(ctx, "test.txt")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := reader.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		// After close, a completion (write lock) must not block
		done := make(chan error, 1)
		go func() { done <- put(ctx, client, "test.txt", "new content") }()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("upload failed: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("completion blocked after reader was closed")
		}
	})

	t.Run("download error releases lock", func(t *testing.T) {
		mock := newMockClient()
		mock.downloadErr = errors.New("download failed")
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if _, err := client.GetObject(ctx, "test.txt"); err == nil {
			t.Fatal("expected error")
		}
		if err := put(ctx, client, "test.txt", "content"); err != nil {
			t.Fatalf("expected upload to succeed after download error, got %v", err)
		}
	})
}

func TestSyncHeadObject(t *testing.T) {
	ctx := context.Background()
	mock := newMockClient()
	mock.objects["present"] = []byte("x")
	client, err := NewSyncClient(SyncConfig{Client: mock})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	s, err := client.HeadObject(ctx, "present")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.Key != "present" {
		t.Errorf("expected key %q, got %q", "present", s.Key)
	}

	if _, err := client.HeadObject(ctx, "absent"); !objectstore.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSyncCopyAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete", func(t *testing.T) {
		mock := newMockClient()
		mock.objects["test.txt"] = []byte("content")
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if err := client.DeleteObject(ctx, "test.txt"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(mock.deletes) == 0 || mock.deletes[0] != "test.txt" {
			t.Errorf("expected test.txt to be deleted")
		}
	})

	t.Run("opposing copies do not deadlock", func(t *testing.T) {
		mock := newMockClient()
		mock.objects["a"] = []byte("a")
		mock.objects["b"] = []byte("b")
		mock.copyDelay = 5 * time.Millisecond
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			var wg sync.WaitGroup
			for range 10 {
				wg.Add(2)
				go func() { defer wg.Done(); client.CopyObject(ctx, "a", "b") }()
				go func() { defer wg.Done(); client.CopyObject(ctx, "b", "a") }()
			}
			wg.Wait()
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("copies deadlocked")
		}
	})

	t.Run("copy onto itself", func(t *testing.T) {
		mock := newMockClient()
		mock.objects["a"] = []byte("a")
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if err := client.CopyObject(ctx, "a", "a"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestSyncReadWriteLocking(t *testing.T) {
	ctx := context.Background()

	t.Run("write blocks reads", func(t *testing.T) {
		mock := newMockClient()
		mock.completeDelay = 50 * time.Millisecond
		client, err := NewSyncClient(SyncConfig{Client: mock})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		key := "lock.txt"
		id, _ := client.InitiateMultipartUpload(ctx, key, "")
		tag, _ := client.UploadPart(ctx, key, id, 1, []byte("content"))

		readStarted := make(chan bool)
		readDone := make(chan bool)

		// Start completion (write lock)
		go func() {
			client.CompleteMultipartUpload(ctx, key, id, []objectstore.Part{{Number: 1, Tag: tag}})
		}()

		// Small delay to ensure completion starts first
		time.Sleep(5 * time.Millisecond)

		go func() {
			readStarted <- true
			reader, _ := client.GetObject(ctx, key)
			if reader != nil {
				reader.Close()
			}
			readDone <- true
		}()

		<-readStarted

		select {
		case <-readDone:
			t.Error("read should be blocked by write")
		case <-time.After(20 * time.Millisecond):
			// Good, read is blocked
		}

		select {
		case <-readDone:
			// Good
		case <-time.After(200 * time.Millisecond):
			t.Error("read should complete after write")
		}
	})
}
