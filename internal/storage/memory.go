package storage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryBlobStore keeps blobs in process. Read URLs point at a fake host and
// are only meaningful to tests and local development.
type MemoryBlobStore struct {
	mu         sync.RWMutex
	containers map[string]map[string]BlobInfo
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{containers: make(map[string]map[string]BlobInfo)}
}

// Put stores an empty blob of the given size. Used to seed builds.
func (s *MemoryBlobStore) Put(container, name string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blobs, ok := s.containers[container]
	if !ok {
		blobs = make(map[string]BlobInfo)
		s.containers[container] = blobs
	}
	blobs[name] = BlobInfo{Name: name, Size: size, LastModified: time.Now().UTC()}
}

func (s *MemoryBlobStore) ContainerExists(_ context.Context, container string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.containers[container]
	return ok, nil
}

func (s *MemoryBlobStore) CreateContainer(_ context.Context, container string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[container]; !ok {
		s.containers[container] = make(map[string]BlobInfo)
	}
	return nil
}

func (s *MemoryBlobStore) ListBlobs(_ context.Context, container, prefix string) ([]BlobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blobs, ok := s.containers[container]
	if !ok {
		return nil, ErrNotFound
	}
	var result []BlobInfo
	for name, info := range blobs {
		if strings.HasPrefix(name, prefix) {
			result = append(result, info)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryBlobStore) BlobExists(_ context.Context, container, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.containers[container][name]
	return ok, nil
}

func (s *MemoryBlobStore) CopyBlob(_ context.Context, srcContainer, srcName, dstContainer, dstName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.containers[srcContainer][srcName]
	if !ok {
		return ErrNotFound
	}
	dst, ok := s.containers[dstContainer]
	if !ok {
		return ErrNotFound
	}
	info.Name = dstName
	info.LastModified = time.Now().UTC()
	dst[dstName] = info
	return nil
}

func (s *MemoryBlobStore) ReadURL(_ context.Context, container, name string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.containers[container][name]; !ok {
		return "", ErrNotFound
	}
	expiry := time.Now().UTC().Add(ttl).Format(time.RFC3339)
	return fmt.Sprintf("memory://%s/%s?se=%s", container, url.PathEscape(name), url.QueryEscape(expiry)), nil
}

func (s *MemoryBlobStore) DeleteBlob(_ context.Context, container, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[container][name]; !ok {
		return ErrNotFound
	}
	delete(s.containers[container], name)
	return nil
}
