package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/ambulink/ambulink/internal/platform/notes"
	"github.com/ambulink/ambulink/internal/platform/triage"
)

// Demographics is the identifying slice of a case. It is encrypted as a
// single unit before it reaches the database.
type Demographics struct {
	Name   string `json:"name"`
	Age    *int   `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
}

// Vitals are the measurements streamed from the field. Nil means the
// measurement has not been taken; updates merge field by field.
type Vitals struct {
	HeartRate        *int     `json:"heart_rate,omitempty"`
	BloodPressure    *string  `json:"blood_pressure,omitempty"`
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
	RespiratoryRate  *int     `json:"respiratory_rate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
}

// TriageVitals converts the stored vitals into the classifier's input shape.
func (v Vitals) TriageVitals() triage.Vitals {
	return triage.Vitals{
		HeartRate:        v.HeartRate,
		BloodPressure:    v.BloodPressure,
		OxygenSaturation: v.OxygenSaturation,
		Temperature:      v.Temperature,
		RespiratoryRate:  v.RespiratoryRate,
	}
}

// Case maps to the patients table. Demographics and MedicalHistory are
// stored as ciphertext; PHIUnavailable marks a case whose protected fields
// could not be decoded on read.
type Case struct {
	ID             uuid.UUID      `json:"-"`
	CaseID         string         `json:"case_id"`
	Demographics   Demographics   `json:"demographics"`
	MedicalHistory map[string]any `json:"medical_history,omitempty"`
	PHIUnavailable bool           `json:"phi_unavailable,omitempty"`
	ChiefComplaint string         `json:"chief_complaint"`
	Vitals         Vitals         `json:"vitals"`
	TriageLevel    triage.Tier    `json:"triage_level"`
	RiskScore      float64        `json:"risk_score"`
	AmbulanceID    string         `json:"ambulance_id,omitempty"`
	OriginLat      *float64       `json:"origin_lat,omitempty"`
	OriginLon      *float64       `json:"origin_lon,omitempty"`
	HospitalID     *uuid.UUID     `json:"hospital_id,omitempty"`
	ETA            *time.Time     `json:"eta,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Record maps to the patient_records table. Content is the structured
// clinical note, encrypted as a unit at rest.
type Record struct {
	ID            uuid.UUID            `json:"-"`
	RecordID      string               `json:"record_id"`
	CaseID        string               `json:"case_id"`
	Content       notes.StructuredNote `json:"content"`
	ContentError  bool                 `json:"content_error,omitempty"`
	GeneratedByAI bool                 `json:"generated_by_ai"`
	Confidence    float64              `json:"confidence"`
	IsFinalized   bool                 `json:"is_finalized"`
	FinalizedBy   *string              `json:"finalized_by,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}
