package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"callcenter-platform/internal/company"
)

func newTestService(t *testing.T) (*Service, *company.MemoryRepo, *MemoryPreviewStore) {
	t.Helper()
	repo := company.NewMemoryRepo()
	store := NewMemoryPreviewStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(NewParser(255), store, company.NewService(repo), 30*time.Minute, log)
	return svc, repo, store
}

func TestPreviewBuffersWithoutWriting(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestService(t)

	id, rows, err := svc.Preview(ctx, []byte("name,phone\nTech Horizon,699000001\n"))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}

	if got, _ := repo.List(ctx); len(got) != 0 {
		t.Fatalf("companies written at preview time: %d", len(got))
	}
	if buffered, err := store.Get(ctx, id); err != nil || len(buffered) != 1 {
		t.Fatalf("buffered = %v, %v", buffered, err)
	}
}

func TestConfirmFromSession(t *testing.T) {
	ctx := context.Background()
	svc, repo, store := newTestService(t)

	id, _, err := svc.Preview(ctx, []byte("name,phone\nTech Horizon,699000001\nAgriNova,699000002\n"))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	n, err := svc.Confirm(ctx, id, nil)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if got, _ := repo.List(ctx); len(got) != 2 {
		t.Fatalf("companies = %d, want 2", len(got))
	}

	// Preview buffer is cleared on confirm.
	if _, err := store.Get(ctx, id); !errors.Is(err, ErrPreviewNotFound) {
		t.Fatalf("preview still buffered after confirm: %v", err)
	}
}

func TestConfirmReplacesEverything(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	idA, _, err := svc.Preview(ctx, []byte("name,phone\nTech Horizon,1\nAgriNova,2\nEcoBuild,3\n"))
	if err != nil {
		t.Fatalf("Preview A: %v", err)
	}
	if _, err := svc.Confirm(ctx, idA, nil); err != nil {
		t.Fatalf("Confirm A: %v", err)
	}

	idB, _, err := svc.Preview(ctx, []byte("name,phone\nDataPulse,4\n"))
	if err != nil {
		t.Fatalf("Preview B: %v", err)
	}
	if _, err := svc.Confirm(ctx, idB, nil); err != nil {
		t.Fatalf("Confirm B: %v", err)
	}

	got, _ := repo.List(ctx)
	if len(got) != 1 || got[0].Name != "DataPulse" {
		t.Fatalf("companies = %+v, want exactly DataPulse", got)
	}
}

func TestConfirmEmptyRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	// No session, no inline rows.
	if _, err := svc.Confirm(ctx, "", nil); !errors.Is(err, ErrNothingToImport) {
		t.Fatalf("err = %v, want ErrNothingToImport", err)
	}

	// Unknown session id behaves the same.
	if _, err := svc.Confirm(ctx, "missing", nil); !errors.Is(err, ErrNothingToImport) {
		t.Fatalf("err = %v, want ErrNothingToImport", err)
	}

	// Empty preview (empty file) cannot be confirmed either.
	id, rows, err := svc.Preview(ctx, nil)
	if err != nil || len(rows) != 0 {
		t.Fatalf("Preview: %v, rows = %v", err, rows)
	}
	if _, err := svc.Confirm(ctx, id, nil); !errors.Is(err, ErrNothingToImport) {
		t.Fatalf("err = %v, want ErrNothingToImport", err)
	}
}

func TestConfirmInlineRowsTakePrecedence(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	id, _, err := svc.Preview(ctx, []byte("name,phone\nTech Horizon,1\n"))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	inline := []company.Company{{Name: "EcoBuild", Phone: "3", Status: company.StatusPending}}
	n, err := svc.Confirm(ctx, id, inline)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	got, _ := repo.List(ctx)
	if len(got) != 1 || got[0].Name != "EcoBuild" {
		t.Fatalf("companies = %+v, want EcoBuild", got)
	}
}
