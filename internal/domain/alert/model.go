package alert

import (
	"time"

	"github.com/google/uuid"
)

// Alert types raised by the intake pipeline.
const (
	TypePatientArrival = "patient_arrival"
	TypeHighRisk       = "high_risk"
	TypeCritical       = "critical"
)

// HighRiskScore is the risk score at or above which a non-critical case
// still raises a high_risk alert.
const HighRiskScore = 70.0

// Severity buckets. Critical triage tiers map to critical, everything else
// to medium.
const (
	SeverityCritical = "critical"
	SeverityMedium   = "medium"
)

// Alert maps to the alerts table.
type Alert struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	AlertID        string     `db:"alert_id" json:"alert_id"`
	CaseID         string     `db:"case_id" json:"case_id"`
	HospitalID     uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	Type           string     `db:"type" json:"type"`
	Severity       string     `db:"severity" json:"severity"`
	Message        string     `db:"message" json:"message"`
	Department     string     `db:"department" json:"department"`
	Acknowledged   bool       `db:"acknowledged" json:"acknowledged"`
	AcknowledgedBy *string    `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
