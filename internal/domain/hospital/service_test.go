package hospital

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	mu        sync.Mutex
	hospitals []*Hospital
	createErr error
}

func (m *mockRepo) Create(ctx context.Context, h *Hospital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	h.ID = uuid.New()
	m.hospitals = append(m.hospitals, h)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hospitals {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := len(m.hospitals)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return m.hospitals[offset:end], total, nil
}

func (m *mockRepo) FirstActive(ctx context.Context) (*Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hospitals {
		if h.IsActive {
			return h, nil
		}
	}
	return nil, ErrNotFound
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(&mockRepo{})
	ctx := context.Background()

	tests := []struct {
		name    string
		h       Hospital
		wantErr bool
	}{
		{"valid", Hospital{Name: "General", BedCapacity: 100}, false},
		{"missing name", Hospital{BedCapacity: 100}, true},
		{"negative capacity", Hospital{Name: "General", BedCapacity: -1}, true},
		{"negative occupancy", Hospital{Name: "General", CurrentOccupancy: -5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(ctx, &tt.h)
			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_Select_FirstActive(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	inactive := &Hospital{Name: "Closed", IsActive: false}
	first := &Hospital{Name: "First Active", IsActive: true}
	second := &Hospital{Name: "Second Active", IsActive: true}
	for _, h := range []*Hospital{inactive, first, second} {
		if err := svc.Create(ctx, h); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	got, err := svc.Select(ctx)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got.Name != "First Active" {
		t.Errorf("expected First Active, got %s", got.Name)
	}
}

func TestService_Select_NoneActive(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Create(ctx, &Hospital{Name: "Closed", IsActive: false}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	_, err := svc.Select(ctx)
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHospital_AvailableBeds(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		occupied int
		want     int
	}{
		{"free beds", 100, 60, 40},
		{"full", 50, 50, 0},
		{"overfull clamps to zero", 20, 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Hospital{BedCapacity: tt.capacity, CurrentOccupancy: tt.occupied}
			if got := h.AvailableBeds(); got != tt.want {
				t.Errorf("AvailableBeds() = %d, want %d", got, tt.want)
			}
		})
	}
}
