package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"callcenter-platform/internal/company"

	"github.com/redis/go-redis/v9"
)

var ErrPreviewNotFound = errors.New("importer: preview session not found")

// PreviewStore buffers parsed-but-unconfirmed rows under an import-session
// id. Entries expire on their own after the TTL.
type PreviewStore interface {
	Put(ctx context.Context, id string, rows []company.Company, ttl time.Duration) error
	Get(ctx context.Context, id string) ([]company.Company, error)
	Delete(ctx context.Context, id string) error
}

const previewKeyPrefix = "import:preview:"

type RedisPreviewStore struct {
	rdb *redis.Client
}

func NewRedisPreviewStore(rdb *redis.Client) *RedisPreviewStore {
	return &RedisPreviewStore{rdb: rdb}
}

func (s *RedisPreviewStore) Put(ctx context.Context, id string, rows []company.Company, ttl time.Duration) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("importer: encode preview: %w", err)
	}
	if err := s.rdb.Set(ctx, previewKeyPrefix+id, payload, ttl).Err(); err != nil {
		return fmt.Errorf("importer: store preview: %w", err)
	}
	return nil
}

func (s *RedisPreviewStore) Get(ctx context.Context, id string) ([]company.Company, error) {
	payload, err := s.rdb.Get(ctx, previewKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPreviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("importer: load preview: %w", err)
	}
	var rows []company.Company
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("importer: decode preview: %w", err)
	}
	return rows, nil
}

func (s *RedisPreviewStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, previewKeyPrefix+id).Err()
}

// MemoryPreviewStore is an in-memory PreviewStore used by tests. TTLs are
// recorded but never enforced.
type MemoryPreviewStore struct {
	mu      sync.Mutex
	entries map[string][]company.Company
}

func NewMemoryPreviewStore() *MemoryPreviewStore {
	return &MemoryPreviewStore{entries: make(map[string][]company.Company)}
}

func (s *MemoryPreviewStore) Put(ctx context.Context, id string, rows []company.Company, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = append([]company.Company(nil), rows...)
	return nil
}

func (s *MemoryPreviewStore) Get(ctx context.Context, id string) ([]company.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.entries[id]
	if !ok {
		return nil, ErrPreviewNotFound
	}
	return append([]company.Company(nil), rows...), nil
}

func (s *MemoryPreviewStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
