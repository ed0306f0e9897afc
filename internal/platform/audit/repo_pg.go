package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ledgerPG struct{ pool *pgxpool.Pool }

// NewLedgerPG creates a Ledger backed by the audit_logs table.
func NewLedgerPG(pool *pgxpool.Pool) Ledger { return &ledgerPG{pool: pool} }

func (r *ledgerPG) Append(ctx context.Context, e *Entry) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO audit_logs (user_id, action, resource_type, resource_id, ip_address, status, details, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		e.UserID, e.Action, e.ResourceType, e.ResourceID, e.IPAddress, e.Status, e.Details, e.Timestamp,
	).Scan(&e.ID)
}

func (r *ledgerPG) List(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, action, resource_type, resource_id, ip_address, status, details, timestamp
		FROM audit_logs ORDER BY timestamp DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.IPAddress, &e.Status, &e.Details, &e.Timestamp); err != nil {
			return nil, 0, err
		}
		items = append(items, &e)
	}
	return items, total, rows.Err()
}
