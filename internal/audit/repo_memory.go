package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryLogRepo is a simple in-memory append-only repository useful for
// tests. It is not intended for production use.
type MemoryLogRepo struct {
	mu   sync.Mutex
	logs []Log
}

func NewMemoryLogRepo() *MemoryLogRepo { return &MemoryLogRepo{} }

func (r *MemoryLogRepo) Append(ctx context.Context, l Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
	return nil
}

func (r *MemoryLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	var deleted int64
	for _, l := range r.logs {
		if l.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return deleted, nil
}

func (r *MemoryLogRepo) Logs() []Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Log, len(r.logs))
	copy(out, r.logs)
	return out
}

// MemorySessionRepo is the in-memory SessionRepository counterpart.
type MemorySessionRepo struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{snapshots: make(map[string]Snapshot)}
}

func (r *MemorySessionRepo) Upsert(ctx context.Context, s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.snapshots[s.SessionKey]; ok {
		if prev.LoginAt != nil {
			s.LoginAt = prev.LoginAt
		}
		// Deactivation is permanent for a session key; only a fresh
		// login key starts active.
		s.IsActive = prev.IsActive
	}
	r.snapshots[s.SessionKey] = s
	return nil
}

func (r *MemorySessionRepo) MarkInactive(ctx context.Context, sessionKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.snapshots[sessionKey]; ok {
		s.IsActive = false
		r.snapshots[sessionKey] = s
	}
	return nil
}

func (r *MemorySessionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for k, s := range r.snapshots {
		if s.LastActivity.Before(cutoff) {
			delete(r.snapshots, k)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemorySessionRepo) Get(sessionKey string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snapshots[sessionKey]
	return s, ok
}

func (r *MemorySessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}
