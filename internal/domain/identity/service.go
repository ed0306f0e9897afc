package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ambulink/ambulink/internal/platform/auth"
)

// ErrInvalidCredentials covers unknown users, wrong passwords, and disabled
// accounts alike so a login response never reveals which failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterParams collects everything needed to create an account.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	Role        string
	FullName    *string
	HospitalID  *uuid.UUID
	AmbulanceID *string
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	if p.Username == "" || p.Email == "" || p.Password == "" {
		return nil, fmt.Errorf("username, email and password are required")
	}
	switch p.Role {
	case auth.RoleParamedic, auth.RolePhysician, auth.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", p.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: string(hash),
		Role:         p.Role,
		FullName:     p.FullName,
		HospitalID:   p.HospitalID,
		AmbulanceID:  p.AmbulanceID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies the credentials and returns the matching active user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
