package alert

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/ambulink/ambulink/internal/platform/triage"
)

const (
	alertIDPrefix = "ALR-"
	idAttempts    = 5
)

// SeverityForTier maps a triage tier onto an alert severity. Only the two
// immediate-attention tiers rank critical.
func SeverityForTier(t triage.Tier) string {
	if triage.IsCriticalTier(t) {
		return SeverityCritical
	}
	return SeverityMedium
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewAlertID allocates a collision-free business id of the form ALR-xxxxxxxx.
func (s *Service) NewAlertID(ctx context.Context) (string, error) {
	for i := 0; i < idAttempts; i++ {
		var b [4]byte
		if _, err := rand.Read(b[:]); err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		id := alertIDPrefix + hex.EncodeToString(b[:])
		exists, err := s.repo.AlertIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts allocating alert id", idAttempts)
}

func (s *Service) Create(ctx context.Context, a *Alert) error {
	if a.AlertID == "" {
		return fmt.Errorf("alert_id is required")
	}
	if a.CaseID == "" {
		return fmt.Errorf("case_id is required")
	}
	if a.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if a.Type == "" {
		return fmt.Errorf("type is required")
	}
	if a.Department == "" {
		a.Department = "emergency"
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, alertID string) (*Alert, error) {
	return s.repo.GetByAlertID(ctx, alertID)
}

func (s *Service) ListUnacknowledged(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Alert, int, error) {
	return s.repo.ListUnacknowledged(ctx, hospitalID, limit, offset)
}

// Acknowledge stamps the alert as seen by userID. Acknowledging twice is
// last-write-wins, never an error.
func (s *Service) Acknowledge(ctx context.Context, alertID, userID string) (*Alert, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.repo.Acknowledge(ctx, alertID, userID)
}
