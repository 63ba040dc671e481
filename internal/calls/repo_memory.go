package calls

import (
	"context"
	"sort"
	"sync"

	"callcenter-platform/internal/company"
)

// MemoryRepo is an in-memory repository useful for tests.
// It is not intended for production use.

type MemoryRepo struct {
	mu         sync.Mutex
	records    []CallRecord
	recordings []Recording

	// Companies, when set, receives the status advance so tests can assert
	// the transactional pairing.
	Companies company.Repository
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) CreateWithCompanyStatus(ctx context.Context, rec CallRecord, status company.Status) (CallRecord, error) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	if r.Companies != nil {
		if err := r.Companies.UpdateStatus(ctx, rec.CompanyID, status); err != nil {
			return CallRecord{}, err
		}
	}
	return rec, nil
}

func (r *MemoryRepo) InsertRecording(ctx context.Context, rec Recording) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordings = append(r.recordings, rec)
	return rec, nil
}

func (r *MemoryRepo) ListAll(ctx context.Context) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, len(r.records))
	copy(out, r.records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) LatestPerCompany(ctx context.Context) (map[string]CallRecord, error) {
	all, _ := r.ListAll(ctx)
	out := map[string]CallRecord{}
	for _, c := range all {
		if _, seen := out[c.CompanyID]; !seen {
			out[c.CompanyID] = c
		}
	}
	return out, nil
}

func (r *MemoryRepo) LatestRecordingPerCall(ctx context.Context) (map[string]Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]Recording{}
	for _, rec := range r.recordings {
		prev, seen := out[rec.CallID]
		if !seen || rec.CreatedAt.After(prev.CreatedAt) {
			out[rec.CallID] = rec
		}
	}
	return out, nil
}

// Records returns a copy of everything appended so far.
func (r *MemoryRepo) Records() []CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Recordings returns a copy of stored recordings.
func (r *MemoryRepo) Recordings() []Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recording, len(r.recordings))
	copy(out, r.recordings)
	return out
}
