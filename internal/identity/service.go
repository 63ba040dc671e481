package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"callcenter-platform/internal/rbac"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials = errors.New("identity: bad credentials")
	ErrInactive       = errors.New("identity: user inactive")
)

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		// Burn a comparison anyway so missing users cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// AuthenticateByCode verifies a shared access code against every active
// account and signs in as the first one that matches. Agents on the floor
// share terminals; the code is the only credential they type.
func (s *Service) AuthenticateByCode(ctx context.Context, code string) (*User, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if bcrypt.CompareHashAndPassword([]byte(users[i].PasswordHash), []byte(code)) == nil {
			return &users[i], nil
		}
	}
	return nil, ErrBadCredentials
}

// Create hashes the password and inserts the account.
func (s *Service) Create(ctx context.Context, username, password, role string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrBadCredentials
	}
	if !rbac.IsValidRole(role) {
		return nil, fmt.Errorf("identity: invalid role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SeedIfEmpty creates the bootstrap admin when the user table is empty.
// No-op when credentials are unset or any account already exists.
func (s *Service) SeedIfEmpty(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	if _, err := s.Create(ctx, username, password, rbac.RoleAdmin); err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", "username", username)
	return nil
}

// dummyHash is a valid bcrypt hash of a throwaway string, used only for
// constant-time failure paths.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("invalid"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()
