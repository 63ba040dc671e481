package calls

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// BlobStore persists decoded audio bytes and returns a stable reference.
type BlobStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// DirBlobStore writes blobs under a local directory.
type DirBlobStore struct {
	Dir string
}

func (s DirBlobStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// MemoryBlobStore keeps blobs in a map; test use only.
type MemoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// FailWith, when set, makes every Save fail. Lets tests exercise the
	// non-fatal recording-store path.
	FailWith error
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: map[string][]byte{}}
}

func (s *MemoryBlobStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if s.FailWith != nil {
		return "", s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = data
	return name, nil
}

func (s *MemoryBlobStore) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[name]
	return b, ok
}
