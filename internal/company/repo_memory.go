package company

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory repository useful for tests.
// It is not intended for production use.

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Company
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: map[string]Company{}}
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.snapshot()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) ListByStatusThenName(ctx context.Context) ([]Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.snapshot()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

func (r *MemoryRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[Status]int{}
	for _, c := range r.rows {
		out[c.Status]++
	}
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	r.rows[id] = c
	return nil
}

func (r *MemoryRepo) ReplaceAll(ctx context.Context, rows []Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make(map[string]Company, len(rows))
	now := time.Now().UTC()
	for _, c := range rows {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.CreatedAt = now
		c.UpdatedAt = now
		next[c.ID] = c
	}
	r.rows = next
	return nil
}

func (r *MemoryRepo) Insert(ctx context.Context, c Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	r.rows[c.ID] = c
	return nil
}

func (r *MemoryRepo) snapshot() []Company {
	out := make([]Company, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, c)
	}
	return out
}
