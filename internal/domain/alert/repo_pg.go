package alert

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const alertCols = `id, alert_id, case_id, hospital_id, type, severity, message,
	department, acknowledged, acknowledged_by, acknowledged_at, created_at`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.AlertID, &a.CaseID, &a.HospitalID, &a.Type, &a.Severity,
		&a.Message, &a.Department, &a.Acknowledged, &a.AcknowledgedBy, &a.AcknowledgedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO alerts (id, alert_id, case_id, hospital_id, type, severity, message, department)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		a.ID, a.AlertID, a.CaseID, a.HospitalID, a.Type, a.Severity, a.Message, a.Department,
	).Scan(&a.CreatedAt)
}

func (r *repoPG) GetByAlertID(ctx context.Context, alertID string) (*Alert, error) {
	return scanAlert(r.pool.QueryRow(ctx,
		`SELECT `+alertCols+` FROM alerts WHERE alert_id = $1`, alertID))
}

func (r *repoPG) AlertIDExists(ctx context.Context, alertID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM alerts WHERE alert_id = $1)`, alertID).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListUnacknowledged(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Alert, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM alerts WHERE hospital_id = $1 AND NOT acknowledged`,
		hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+alertCols+` FROM alerts
		 WHERE hospital_id = $1 AND NOT acknowledged
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Acknowledge(ctx context.Context, alertID, userID string) (*Alert, error) {
	return scanAlert(r.pool.QueryRow(ctx, `
		UPDATE alerts SET acknowledged = TRUE, acknowledged_by = $2, acknowledged_at = NOW()
		WHERE alert_id = $1
		RETURNING `+alertCols,
		alertID, userID))
}
