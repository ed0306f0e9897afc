package hospital

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no hospital matches the query.
var ErrNotFound = errors.New("hospital not found")

type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	List(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
	// FirstActive returns the oldest registered hospital still accepting
	// patients, or ErrNotFound when none is active.
	FirstActive(ctx context.Context) (*Hospital, error)
}
