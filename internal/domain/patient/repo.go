package patient

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no case matches the business id.
	ErrNotFound = errors.New("case not found")
	// ErrRecordNotFound is returned when a case has no clinical record.
	ErrRecordNotFound = errors.New("patient record not found")
)

type Repository interface {
	CreateCase(ctx context.Context, c *Case) error
	GetCase(ctx context.Context, caseID string) (*Case, error)
	ListCases(ctx context.Context, limit, offset int) ([]*Case, int, error)
	CaseIDExists(ctx context.Context, caseID string) (bool, error)
	// UpdateVitals merges the non-nil fields of v into the stored vitals in
	// a single statement and returns the updated case. Concurrent updates
	// to disjoint fields both survive.
	UpdateVitals(ctx context.Context, caseID string, v Vitals) (*Case, error)

	CreateRecord(ctx context.Context, r *Record) error
	GetRecordByCase(ctx context.Context, caseID string) (*Record, error)
	RecordIDExists(ctx context.Context, recordID string) (bool, error)
	// FinalizeRecord marks the record as physician-approved. Finalization
	// is one-way; repeating it only refreshes the approver.
	FinalizeRecord(ctx context.Context, caseID, finalizedBy string) (*Record, error)
}
