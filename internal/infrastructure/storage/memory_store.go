package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"tailorchat/internal/domain/service"
)

// MemoryStore keeps objects in process. Used when no bucket is configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
	baseURL string
}

type storedObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]storedObject),
		baseURL: baseURL,
	}
}

func (s *MemoryStore) UploadFile(ctx context.Context, file io.Reader, fileType, filename, folder string) (*service.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, readerWithContext(ctx, file)); err != nil {
		return nil, fmt.Errorf("failed to buffer file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectName := ObjectName(folder, filename)

	s.mu.Lock()
	s.objects[objectName] = storedObject{data: buf.Bytes(), contentType: fileType}
	s.mu.Unlock()

	return &service.UploadResult{
		URL:        s.baseURL + "/" + objectName,
		ObjectName: objectName,
		Size:       int64(buf.Len()),
	}, nil
}

func (s *MemoryStore) DeleteFile(ctx context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectName)
	return nil
}

// Get returns the stored bytes and content type of objectName.
func (s *MemoryStore) Get(objectName string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[objectName]
	return obj.data, obj.contentType, ok
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *MemoryStore) Close() error { return nil }

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
