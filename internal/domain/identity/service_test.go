package identity

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/ambulink/ambulink/internal/platform/auth"
)

type mockRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[string]*User)}
}

func (m *mockRepo) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uuid.New()
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func TestService_Register(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	ambulance := "AMB-07"
	u, err := svc.Register(ctx, RegisterParams{
		Username:    "medic1",
		Email:       "medic1@dispatch.example",
		Password:    "fieldpass",
		Role:        auth.RoleParamedic,
		AmbulanceID: &ambulance,
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if u.Role != auth.RoleParamedic {
		t.Errorf("expected role %s, got %s", auth.RoleParamedic, u.Role)
	}
	if u.AmbulanceID == nil || *u.AmbulanceID != "AMB-07" {
		t.Error("expected ambulance assignment to be kept")
	}
	if !u.IsActive {
		t.Error("expected new user to be active")
	}
	if u.PasswordHash == "fieldpass" || u.PasswordHash == "" {
		t.Error("expected password to be hashed")
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterParams{Email: "a@b.example", Password: "pass", Role: auth.RoleAdmin}); err == nil {
		t.Error("expected error for empty username")
	}
	if _, err := svc.Register(ctx, RegisterParams{Username: "user", Password: "pass", Role: auth.RoleAdmin}); err == nil {
		t.Error("expected error for empty email")
	}
	if _, err := svc.Register(ctx, RegisterParams{Username: "user", Email: "a@b.example", Role: auth.RoleAdmin}); err == nil {
		t.Error("expected error for empty password")
	}
	if _, err := svc.Register(ctx, RegisterParams{Username: "user", Email: "a@b.example", Password: "pass", Role: "janitor"}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestService_Authenticate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{
		Username: "dr-jones",
		Email:    "jones@stmarys.example",
		Password: "rounds2024",
		Role:     auth.RolePhysician,
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		u, err := svc.Authenticate(ctx, "dr-jones", "rounds2024")
		if err != nil {
			t.Fatalf("Authenticate() error: %v", err)
		}
		if u.Username != "dr-jones" {
			t.Errorf("expected dr-jones, got %s", u.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "dr-jones", "wrong"); err != ErrInvalidCredentials {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "nobody", "rounds2024"); err != ErrInvalidCredentials {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		repo.mu.Lock()
		repo.users["dr-jones"].IsActive = false
		repo.mu.Unlock()

		if _, err := svc.Authenticate(ctx, "dr-jones", "rounds2024"); err != ErrInvalidCredentials {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
