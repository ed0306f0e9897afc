package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Selector chooses the destination facility for a new case. The default
// policy takes the first active hospital; geographic or load-aware policies
// can replace it without touching the intake pipeline.
type Selector interface {
	Select(ctx context.Context) (*Hospital, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	if h.BedCapacity < 0 {
		return fmt.Errorf("bed_capacity must not be negative")
	}
	if h.CurrentOccupancy < 0 {
		return fmt.Errorf("current_occupancy must not be negative")
	}
	return s.repo.Create(ctx, h)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Select implements Selector with the first-active policy.
func (s *Service) Select(ctx context.Context) (*Hospital, error) {
	return s.repo.FirstActive(ctx)
}
