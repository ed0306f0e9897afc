// Package intake runs the field-to-facility pipeline: classify the incoming
// case, route it to a facility, persist everything, and broadcast the alert.
// Each downstream stage degrades independently; a submitted case is never
// lost to a classifier, routing, or broadcast failure.
package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ambulink/ambulink/internal/domain/alert"
	"github.com/ambulink/ambulink/internal/domain/hospital"
	"github.com/ambulink/ambulink/internal/domain/patient"
	"github.com/ambulink/ambulink/internal/platform/notes"
	"github.com/ambulink/ambulink/internal/platform/triage"
	"github.com/ambulink/ambulink/internal/platform/websocket"
)

// transportETA is the fixed arrival estimate stamped on routed cases until
// live tracking replaces it.
const transportETA = 15 * time.Minute

// Request is a case submission from field personnel.
type Request struct {
	Name           string         `json:"name"`
	Age            *int           `json:"age,omitempty"`
	Gender         string         `json:"gender,omitempty"`
	ChiefComplaint string         `json:"chief_complaint"`
	MedicalHistory map[string]any `json:"medical_history,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Vitals         patient.Vitals `json:"vitals"`
	Department     string         `json:"department,omitempty"`
	AmbulanceID    string         `json:"ambulance_id,omitempty"`
	OriginLat      *float64       `json:"origin_lat,omitempty"`
	OriginLon      *float64       `json:"origin_lon,omitempty"`
}

// Outcome is everything the pipeline produced for one submission. Routing,
// Record, and Alert may be absent when their stage degraded.
type Outcome struct {
	Case   *patient.Case      `json:"case"`
	Triage triage.Result      `json:"triage"`
	Record *patient.Record    `json:"record,omitempty"`
	Alert  *alert.Alert       `json:"alert,omitempty"`
	Routed *hospital.Hospital `json:"routed_to,omitempty"`
}

type Service struct {
	patients   *patient.Service
	alerts     *alert.Service
	selector   hospital.Selector
	classifier *triage.Classifier
	structurer *notes.Structurer
	publisher  websocket.Publisher
	logger     zerolog.Logger
}

func NewService(
	patients *patient.Service,
	alerts *alert.Service,
	selector hospital.Selector,
	classifier *triage.Classifier,
	structurer *notes.Structurer,
	publisher websocket.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		patients:   patients,
		alerts:     alerts,
		selector:   selector,
		classifier: classifier,
		structurer: structurer,
		publisher:  publisher,
		logger:     logger,
	}
}

// Intake runs the full pipeline for one submission. The case row is the only
// hard requirement: classification falls back to the neutral tier, routing
// may leave the case unassigned, and record, alert, and broadcast failures
// are logged without failing the submission.
func (s *Service) Intake(ctx context.Context, req *Request) (*Outcome, error) {
	if req.ChiefComplaint == "" {
		return nil, fmt.Errorf("chief_complaint is required")
	}

	caseID, err := s.patients.NewCaseID(ctx)
	if err != nil {
		return nil, err
	}

	result := s.classify(req, caseID)

	c := &patient.Case{
		CaseID:         caseID,
		Demographics:   patient.Demographics{Name: req.Name, Age: req.Age, Gender: req.Gender},
		MedicalHistory: req.MedicalHistory,
		ChiefComplaint: req.ChiefComplaint,
		Vitals:         req.Vitals,
		TriageLevel:    result.Level,
		RiskScore:      result.Confidence * 100,
		AmbulanceID:    req.AmbulanceID,
		OriginLat:      req.OriginLat,
		OriginLon:      req.OriginLon,
	}

	dest, err := s.selector.Select(ctx)
	switch {
	case errors.Is(err, hospital.ErrNotFound):
		s.logger.Warn().Str("case_id", caseID).Msg("no active facility, case left unrouted")
	case err != nil:
		return nil, err
	default:
		c.HospitalID = &dest.ID
		eta := time.Now().UTC().Add(transportETA)
		c.ETA = &eta
	}

	if err := s.patients.CreateCase(ctx, c); err != nil {
		return nil, err
	}

	out := &Outcome{Case: c, Triage: result, Routed: dest}
	out.Record = s.generateRecord(ctx, caseID, req, result)

	if dest != nil {
		out.Alert = s.raiseAlert(ctx, c, dest, result, req.Department)
	}

	return out, nil
}

// classify builds the feature vector and scores it. Malformed vitals degrade
// to a neutral-tier scoring_error result instead of rejecting the case.
func (s *Service) classify(req *Request, caseID string) triage.Result {
	features, err := triage.FeaturesFromVitals(req.Vitals.TriageVitals(), req.Age)
	if err != nil {
		s.logger.Warn().Err(err).Str("case_id", caseID).Msg("unusable vitals, classifying neutral")
		return triage.Result{Level: triage.NeutralTier, Confidence: 0, Fallback: triage.FallbackError}
	}
	return s.classifier.Classify(features)
}

// generateRecord structures the narrative into a draft clinical record.
// Failure here leaves the case without a record, nothing more.
func (s *Service) generateRecord(ctx context.Context, caseID string, req *Request, result triage.Result) *patient.Record {
	recordID, err := s.patients.NewRecordID(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("case_id", caseID).Msg("record id allocation failed")
		return nil
	}

	narrative := req.Notes
	if narrative == "" {
		narrative = req.ChiefComplaint
	}

	content := s.structurer.StructureNote(narrative)
	content.Entities = s.structurer.ExtractEntities(narrative)

	rec := &patient.Record{
		RecordID:      recordID,
		CaseID:        caseID,
		Content:       content,
		GeneratedByAI: true,
		Confidence:    result.Confidence,
	}
	if err := s.patients.CreateRecord(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("case_id", caseID).Msg("record persistence failed")
		return nil
	}
	return rec
}

// raiseAlert persists the facility alert and broadcasts it. A persistence
// failure skips the broadcast; a broadcast failure is logged only.
func (s *Service) raiseAlert(ctx context.Context, c *patient.Case, dest *hospital.Hospital, result triage.Result, department string) *alert.Alert {
	alertID, err := s.alerts.NewAlertID(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("case_id", c.CaseID).Msg("alert id allocation failed")
		return nil
	}

	alertType := alert.TypePatientArrival
	switch {
	case triage.IsCriticalTier(result.Level):
		alertType = alert.TypeCritical
	case c.RiskScore >= alert.HighRiskScore:
		alertType = alert.TypeHighRisk
	}

	a := &alert.Alert{
		AlertID:    alertID,
		CaseID:     c.CaseID,
		HospitalID: dest.ID,
		Type:       alertType,
		Severity:   alert.SeverityForTier(result.Level),
		Message:    fmt.Sprintf("Incoming %s: %s", result.Level, c.ChiefComplaint),
		Department: department,
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("case_id", c.CaseID).Msg("alert persistence failed")
		return nil
	}

	payload := map[string]any{
		"alert_id":        a.AlertID,
		"case_id":         c.CaseID,
		"hospital_id":     dest.ID,
		"triage_level":    c.TriageLevel,
		"chief_complaint": c.ChiefComplaint,
		"risk_score":      c.RiskScore,
		"eta":             c.ETA,
		"alert":           a,
	}
	if err := s.publisher.Publish(websocket.FacilityTopic(dest.ID.String()), websocket.EventNewCaseAlert, payload); err != nil {
		s.logger.Error().Err(err).Str("case_id", c.CaseID).Msg("alert broadcast failed")
	}
	return a
}

// UpdateVitals merges a vitals patch into the case and broadcasts the new
// readings to the case channel.
func (s *Service) UpdateVitals(ctx context.Context, caseID string, v patient.Vitals) (*patient.Case, error) {
	updated, err := s.patients.UpdateVitals(ctx, caseID, v)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"case_id": updated.CaseID,
		"vitals":  updated.Vitals,
	}
	if err := s.publisher.Publish(websocket.CaseTopic(updated.CaseID), websocket.EventVitalsUpdate, payload); err != nil {
		s.logger.Error().Err(err).Str("case_id", updated.CaseID).Msg("vitals broadcast failed")
	}
	return updated, nil
}
