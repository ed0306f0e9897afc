package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ambulink/ambulink/internal/platform/notes"
	"github.com/ambulink/ambulink/internal/platform/phi"
)

// repoPG stores cases in PostgreSQL with protected fields encrypted at the
// repository boundary. Code above this layer only ever sees plaintext.
type repoPG struct {
	pool   *pgxpool.Pool
	codec  *phi.Codec
	logger zerolog.Logger
}

func NewRepoPG(pool *pgxpool.Pool, codec *phi.Codec, logger zerolog.Logger) Repository {
	return &repoPG{pool: pool, codec: codec, logger: logger}
}

const caseCols = `id, case_id, demographics, medical_history, chief_complaint,
	heart_rate, blood_pressure, oxygen_saturation, respiratory_rate, temperature,
	triage_level, risk_score, ambulance_id, origin_lat, origin_lon,
	hospital_id, eta, created_at, updated_at`

// scanCase decodes one row. A protected field that cannot be reversed
// degrades to its zero value and flags the case instead of failing the read.
func (r *repoPG) scanCase(row pgx.Row) (*Case, error) {
	var (
		c          Case
		demogToken string
		histToken  *string
	)
	err := row.Scan(&c.ID, &c.CaseID, &demogToken, &histToken, &c.ChiefComplaint,
		&c.Vitals.HeartRate, &c.Vitals.BloodPressure, &c.Vitals.OxygenSaturation,
		&c.Vitals.RespiratoryRate, &c.Vitals.Temperature,
		&c.TriageLevel, &c.RiskScore, &c.AmbulanceID, &c.OriginLat, &c.OriginLon,
		&c.HospitalID, &c.ETA, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.codec.Reveal(demogToken, &c.Demographics); err != nil {
		if !errors.Is(err, phi.ErrDecodeFailure) {
			return nil, err
		}
		c.Demographics = Demographics{}
		c.PHIUnavailable = true
		r.logger.Warn().Str("case_id", c.CaseID).Msg("demographics unreadable, serving degraded case")
	}
	if histToken != nil {
		if err := r.codec.Reveal(*histToken, &c.MedicalHistory); err != nil {
			if !errors.Is(err, phi.ErrDecodeFailure) {
				return nil, err
			}
			c.MedicalHistory = nil
			c.PHIUnavailable = true
			r.logger.Warn().Str("case_id", c.CaseID).Msg("medical history unreadable, serving degraded case")
		}
	}
	return &c, nil
}

func (r *repoPG) CreateCase(ctx context.Context, c *Case) error {
	demogToken, err := r.codec.Protect(c.Demographics)
	if err != nil {
		return err
	}
	var histToken *string
	if len(c.MedicalHistory) > 0 {
		token, err := r.codec.Protect(c.MedicalHistory)
		if err != nil {
			return err
		}
		histToken = &token
	}

	c.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, case_id, demographics, medical_history, chief_complaint,
			heart_rate, blood_pressure, oxygen_saturation, respiratory_rate, temperature,
			triage_level, risk_score, ambulance_id, origin_lat, origin_lon, hospital_id, eta)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at, updated_at`,
		c.ID, c.CaseID, demogToken, histToken, c.ChiefComplaint,
		c.Vitals.HeartRate, c.Vitals.BloodPressure, c.Vitals.OxygenSaturation,
		c.Vitals.RespiratoryRate, c.Vitals.Temperature,
		c.TriageLevel, c.RiskScore, c.AmbulanceID, c.OriginLat, c.OriginLon,
		c.HospitalID, c.ETA,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetCase(ctx context.Context, caseID string) (*Case, error) {
	return r.scanCase(r.pool.QueryRow(ctx,
		`SELECT `+caseCols+` FROM patients WHERE case_id = $1`, caseID))
}

func (r *repoPG) ListCases(ctx context.Context, limit, offset int) ([]*Case, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+caseCols+` FROM patients ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Case
	for rows.Next() {
		c, err := r.scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CaseIDExists(ctx context.Context, caseID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE case_id = $1)`, caseID).Scan(&exists)
	return exists, err
}

// UpdateVitals merges in one UPDATE so two paramedics patching disjoint
// fields never clobber each other.
func (r *repoPG) UpdateVitals(ctx context.Context, caseID string, v Vitals) (*Case, error) {
	return r.scanCase(r.pool.QueryRow(ctx, `
		UPDATE patients SET
			heart_rate        = COALESCE($2, heart_rate),
			blood_pressure    = COALESCE($3, blood_pressure),
			oxygen_saturation = COALESCE($4, oxygen_saturation),
			respiratory_rate  = COALESCE($5, respiratory_rate),
			temperature       = COALESCE($6, temperature),
			updated_at        = NOW()
		WHERE case_id = $1
		RETURNING `+caseCols,
		caseID, v.HeartRate, v.BloodPressure, v.OxygenSaturation,
		v.RespiratoryRate, v.Temperature))
}

const recordCols = `id, record_id, case_id, content, generated_by_ai, confidence,
	is_finalized, finalized_by, created_at, updated_at`

func (r *repoPG) scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec          Record
		contentToken string
	)
	err := row.Scan(&rec.ID, &rec.RecordID, &rec.CaseID, &contentToken,
		&rec.GeneratedByAI, &rec.Confidence, &rec.IsFinalized, &rec.FinalizedBy,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.codec.Reveal(contentToken, &rec.Content); err != nil {
		if !errors.Is(err, phi.ErrDecodeFailure) {
			return nil, err
		}
		rec.Content = notes.StructuredNote{}
		rec.ContentError = true
		r.logger.Warn().Str("record_id", rec.RecordID).Msg("record content unreadable, serving degraded record")
	}
	return &rec, nil
}

func (r *repoPG) CreateRecord(ctx context.Context, rec *Record) error {
	contentToken, err := r.codec.Protect(rec.Content)
	if err != nil {
		return err
	}

	rec.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient_records (id, record_id, case_id, content,
			generated_by_ai, confidence, is_finalized, finalized_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		rec.ID, rec.RecordID, rec.CaseID, contentToken,
		rec.GeneratedByAI, rec.Confidence, rec.IsFinalized, rec.FinalizedBy,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

func (r *repoPG) GetRecordByCase(ctx context.Context, caseID string) (*Record, error) {
	return r.scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM patient_records WHERE case_id = $1
		ORDER BY created_at DESC LIMIT 1`, caseID))
}

func (r *repoPG) RecordIDExists(ctx context.Context, recordID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient_records WHERE record_id = $1)`, recordID).Scan(&exists)
	return exists, err
}

// FinalizeRecord signs off the newest record for the case; earlier drafts
// are left untouched.
func (r *repoPG) FinalizeRecord(ctx context.Context, caseID, finalizedBy string) (*Record, error) {
	return r.scanRecord(r.pool.QueryRow(ctx, `
		UPDATE patient_records SET is_finalized = TRUE, finalized_by = $2, updated_at = NOW()
		WHERE id = (
			SELECT id FROM patient_records
			WHERE case_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		RETURNING `+recordCols,
		caseID, finalizedBy))
}
