// Package audit maintains the append-only access ledger. Every guarded
// operation is wrapped by Auditor.Record, which writes exactly one entry
// whatever the operation's outcome.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Action is the verb recorded for an audited operation.
type Action string

const (
	ActionRead   Action = "READ"
	ActionWrite  Action = "WRITE"
	ActionDelete Action = "DELETE"
	ActionExport Action = "EXPORT"
)

// Outcome classifies how an audited operation ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// ErrDenied marks an operation that was refused after authorization, inside
// the audited boundary. Wrap it so the ledger records "denied" rather than
// "error".
var ErrDenied = errors.New("audit: operation denied")

// Entry is one immutable row of the access ledger.
type Entry struct {
	ID           int64          `json:"id"`
	UserID       string         `json:"user_id"`
	Action       Action         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	IPAddress    string         `json:"ip_address"`
	Status       Outcome        `json:"status"`
	Details      map[string]any `json:"details,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Ledger persists audit entries. Append-only; entries are never updated or
// deleted.
type Ledger interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit, offset int) ([]*Entry, int, error)
}

// Op describes the operation being audited.
type Op struct {
	ActorID      string
	Action       Action
	ResourceType string
	ResourceID   string
	Origin       string
}

// Auditor wraps operations with ledger writes.
type Auditor struct {
	ledger Ledger
	logger zerolog.Logger
}

func NewAuditor(ledger Ledger, logger zerolog.Logger) *Auditor {
	return &Auditor{ledger: ledger, logger: logger}
}

// Record runs fn and appends exactly one ledger entry reflecting its outcome,
// then returns fn's error unchanged. The entry is written from a deferred
// closure so that even a panic inside fn leaves a trace before propagating.
// A ledger write failure is logged and never masks the operation's own
// result: auditing here is observational.
func (a *Auditor) Record(ctx context.Context, op Op, fn func(ctx context.Context) error) (opErr error) {
	defer func() {
		entry := &Entry{
			UserID:       op.ActorID,
			Action:       op.Action,
			ResourceType: op.ResourceType,
			ResourceID:   op.ResourceID,
			IPAddress:    op.Origin,
			Status:       OutcomeSuccess,
			Timestamp:    time.Now().UTC(),
		}
		rec := recover()
		switch {
		case rec != nil:
			entry.Status = OutcomeError
			entry.Details = map[string]any{"panic": fmt.Sprint(rec)}
		case opErr != nil:
			entry.Status = OutcomeError
			if errors.Is(opErr, ErrDenied) {
				entry.Status = OutcomeDenied
			}
			entry.Details = map[string]any{"error": opErr.Error()}
		}

		if err := a.ledger.Append(ctx, entry); err != nil {
			a.logger.Error().Err(err).
				Str("actor", op.ActorID).
				Str("action", string(op.Action)).
				Str("resource_type", op.ResourceType).
				Str("resource_id", op.ResourceID).
				Msg("failed to append audit entry")
		}

		if rec != nil {
			panic(rec)
		}
	}()

	return fn(ctx)
}
