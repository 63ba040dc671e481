package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"callcenter-platform/internal/rbac"
)

func newTestService(t *testing.T) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, log), repo
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, "marie", "s3cret", rbac.RoleAgent)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	u, err := svc.Authenticate(ctx, "marie", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.ID != created.ID {
		t.Fatalf("got user %s, want %s", u.ID, created.ID)
	}

	if _, err := svc.Authenticate(ctx, "marie", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrBadCredentials", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown user: err = %v, want ErrBadCredentials", err)
	}
}

func TestAuthenticateInactive(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	u, err := svc.Create(ctx, "paul", "s3cret", rbac.RoleAgent)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	u.IsActive = false
	if err := repo.Insert(ctx, u); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "paul", "s3cret"); !errors.Is(err, ErrInactive) {
		t.Fatalf("err = %v, want ErrInactive", err)
	}
	if _, err := svc.AuthenticateByCode(ctx, "s3cret"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("code on inactive account: err = %v, want ErrBadCredentials", err)
	}
}

func TestAuthenticateByCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.Create(ctx, "marie", "alpha", rbac.RoleAgent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "paul", "bravo", rbac.RoleSupervisor); err != nil {
		t.Fatalf("Create: %v", err)
	}

	u, err := svc.AuthenticateByCode(ctx, "bravo")
	if err != nil {
		t.Fatalf("AuthenticateByCode: %v", err)
	}
	if u.Username != "paul" {
		t.Fatalf("got %q, want paul", u.Username)
	}

	if _, err := svc.AuthenticateByCode(ctx, "charlie"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("err = %v, want ErrBadCredentials", err)
	}
}

func TestCreateRejectsInvalidRole(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Create(context.Background(), "x", "y", "owner"); err == nil {
		t.Fatal("Create with invalid role succeeded")
	}
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	if err := svc.SeedIfEmpty(ctx, "admin", "changeme"); err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	users, _ := repo.List(ctx)
	if len(users) != 1 || users[0].Role != rbac.RoleAdmin {
		t.Fatalf("users = %+v, want one admin", users)
	}

	// Second call is a no-op.
	if err := svc.SeedIfEmpty(ctx, "admin2", "changeme"); err != nil {
		t.Fatalf("SeedIfEmpty again: %v", err)
	}
	users, _ = repo.List(ctx)
	if len(users) != 1 {
		t.Fatalf("len(users) = %d after reseed, want 1", len(users))
	}

	// Unset credentials are a no-op too.
	empty, _ := newTestService(t)
	if err := empty.SeedIfEmpty(ctx, "", ""); err != nil {
		t.Fatalf("SeedIfEmpty unset: %v", err)
	}
}
