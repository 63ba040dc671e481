package company

import (
	"context"
	"errors"
)

// Service mediates reads and the few writes allowed outside the call
// workflow.

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (Company, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}

// Reset moves an in_progress company back to pending, e.g. when an agent
// abandons the call form. Any other status is left untouched; the current
// status is returned either way.
func (s *Service) Reset(ctx context.Context, id string) (Status, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if c.Status != StatusInProgress {
		return c.Status, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusPending); err != nil {
		return "", err
	}
	return StatusPending, nil
}

// SeedIfEmpty inserts a small demo base the first time the service runs
// against an empty table. Existing data is never touched.
func (s *Service) SeedIfEmpty(ctx context.Context) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	seed := []Company{
		{Name: "Tech Horizon", Phone: "+33 6 11 22 33 44", Product: "SaaS", Activity: "Logiciels", Location: "Paris", LegalForm: "SARL", NIU: "FR1234567", ValidityScore: 8.5, Status: StatusPending},
		{Name: "AgriNova", Phone: "+33 6 55 66 77 88", Product: "AgriTech", Activity: "Agriculture", Location: "Lyon", LegalForm: "SAS", NIU: "FR9876543", ValidityScore: 7.1, Status: StatusPending},
		{Name: "EcoBuild", Phone: "+33 1 44 55 66 77", Product: "Construction", Activity: "BTP", Location: "Marseille", LegalForm: "SARL", NIU: "FR5558888", ValidityScore: 6.4, Status: StatusPending},
		{Name: "DataPulse", Phone: "+33 7 22 33 44 55", Product: "Data", Activity: "Analyse", Location: "Toulouse", LegalForm: "SAS", NIU: "FR2224444", ValidityScore: 9.2, Status: StatusPending},
	}
	for _, c := range seed {
		if err := s.repo.Insert(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAll validates and commits a full-table replace. The import
// pipeline is the only caller.
func (s *Service) ReplaceAll(ctx context.Context, rows []Company) error {
	if len(rows) == 0 {
		return errors.New("company: refusing to replace with an empty set")
	}
	for i := range rows {
		if !IsValidStatus(rows[i].Status) {
			rows[i].Status = StatusPending
		}
	}
	return s.repo.ReplaceAll(ctx, rows)
}
