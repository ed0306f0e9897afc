package alert

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no alert matches the business id.
var ErrNotFound = errors.New("alert not found")

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetByAlertID(ctx context.Context, alertID string) (*Alert, error)
	AlertIDExists(ctx context.Context, alertID string) (bool, error)
	// ListUnacknowledged returns pending alerts for a facility, newest first.
	ListUnacknowledged(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Alert, int, error)
	// Acknowledge stamps the alert with the acknowledging user. Repeating
	// it overwrites the previous stamp.
	Acknowledge(ctx context.Context, alertID, userID string) (*Alert, error)
}
