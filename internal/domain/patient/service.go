package patient

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	caseIDPrefix   = "PAT-"
	recordIDPrefix = "MRN-"
	idAttempts     = 5
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func randomSuffix() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// NewCaseID allocates a collision-free business id of the form PAT-xxxxxxxx.
func (s *Service) NewCaseID(ctx context.Context) (string, error) {
	for i := 0; i < idAttempts; i++ {
		suffix, err := randomSuffix()
		if err != nil {
			return "", err
		}
		id := caseIDPrefix + suffix
		exists, err := s.repo.CaseIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts allocating case id", idAttempts)
}

// NewRecordID allocates a collision-free business id of the form MRN-xxxxxxxx.
func (s *Service) NewRecordID(ctx context.Context) (string, error) {
	for i := 0; i < idAttempts; i++ {
		suffix, err := randomSuffix()
		if err != nil {
			return "", err
		}
		id := recordIDPrefix + suffix
		exists, err := s.repo.RecordIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts allocating record id", idAttempts)
}

func (s *Service) CreateCase(ctx context.Context, c *Case) error {
	if c.CaseID == "" {
		return fmt.Errorf("case_id is required")
	}
	if c.ChiefComplaint == "" {
		return fmt.Errorf("chief_complaint is required")
	}
	return s.repo.CreateCase(ctx, c)
}

func (s *Service) GetCase(ctx context.Context, caseID string) (*Case, error) {
	return s.repo.GetCase(ctx, caseID)
}

func (s *Service) ListCases(ctx context.Context, limit, offset int) ([]*Case, int, error) {
	return s.repo.ListCases(ctx, limit, offset)
}

func (s *Service) UpdateVitals(ctx context.Context, caseID string, v Vitals) (*Case, error) {
	return s.repo.UpdateVitals(ctx, caseID, v)
}

func (s *Service) CreateRecord(ctx context.Context, r *Record) error {
	if r.RecordID == "" {
		return fmt.Errorf("record_id is required")
	}
	if r.CaseID == "" {
		return fmt.Errorf("case_id is required")
	}
	return s.repo.CreateRecord(ctx, r)
}

func (s *Service) GetRecordByCase(ctx context.Context, caseID string) (*Record, error) {
	return s.repo.GetRecordByCase(ctx, caseID)
}

// FinalizeRecord marks the case's record as physician-approved.
func (s *Service) FinalizeRecord(ctx context.Context, caseID, finalizedBy string) (*Record, error) {
	if finalizedBy == "" {
		return nil, fmt.Errorf("finalized_by is required")
	}
	return s.repo.FinalizeRecord(ctx, caseID, finalizedBy)
}
