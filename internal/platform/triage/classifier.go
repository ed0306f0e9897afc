// Package triage scores a fixed vital-sign feature vector into an ESI
// urgency tier with a confidence. The model is a set of per-tier linear
// weights trained offline and loaded from a JSON file; when it is missing the
// classifier fails open to the neutral tier so intake is never blocked.
package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Tier is an ESI urgency classification, most urgent first.
type Tier string

const (
	TierESI1 Tier = "ESI-1"
	TierESI2 Tier = "ESI-2"
	TierESI3 Tier = "ESI-3"
	TierESI4 Tier = "ESI-4"
	TierESI5 Tier = "ESI-5"
)

// Tiers lists the fixed tier set in model class order.
var Tiers = []Tier{TierESI1, TierESI2, TierESI3, TierESI4, TierESI5}

// NeutralTier is the fail-open classification used when no model is loaded
// or scoring fails.
const NeutralTier = TierESI3

// ErrMalformedVitals is returned when a blood pressure string cannot be
// parsed as two numbers.
var ErrMalformedVitals = errors.New("triage: malformed vitals")

// Feature order is fixed; the model's weight rows follow it.
const (
	featAge = iota
	featHeartRate
	featBPSystolic
	featBPDiastolic
	featOxygenSat
	featRespRate
	featTemperature
	FeatureCount
)

const (
	defaultAge           = 50
	defaultBloodPressure = "120/80"
)

// Vitals carries the raw intake vital signs. Nil fields default to neutral
// values rather than failing.
type Vitals struct {
	HeartRate        *int
	BloodPressure    *string
	OxygenSaturation *float64
	Temperature      *float64
	RespiratoryRate  *int
}

// FeaturesFromVitals builds the fixed-order feature vector. Missing age
// defaults to 50, a missing blood pressure to "120/80" and other missing
// fields to 0. A blood pressure string that does not parse as "sys/dia"
// fails with ErrMalformedVitals.
func FeaturesFromVitals(v Vitals, age *int) ([]float64, error) {
	features := make([]float64, FeatureCount)

	features[featAge] = defaultAge
	if age != nil {
		features[featAge] = float64(*age)
	}
	if v.HeartRate != nil {
		features[featHeartRate] = float64(*v.HeartRate)
	}

	bp := defaultBloodPressure
	if v.BloodPressure != nil && *v.BloodPressure != "" {
		bp = *v.BloodPressure
	}
	sys, dia, err := ParseBloodPressure(bp)
	if err != nil {
		return nil, err
	}
	features[featBPSystolic] = sys
	features[featBPDiastolic] = dia

	if v.OxygenSaturation != nil {
		features[featOxygenSat] = *v.OxygenSaturation
	}
	if v.RespiratoryRate != nil {
		features[featRespRate] = float64(*v.RespiratoryRate)
	}
	if v.Temperature != nil {
		features[featTemperature] = *v.Temperature
	}

	return features, nil
}

// ParseBloodPressure splits a "sys/dia" string into its numeric components.
func ParseBloodPressure(bp string) (sys, dia float64, err error) {
	parts := strings.Split(bp, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: blood pressure %q is not sys/dia", ErrMalformedVitals, bp)
	}
	sys, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: systolic %q: %v", ErrMalformedVitals, parts[0], err)
	}
	dia, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: diastolic %q: %v", ErrMalformedVitals, parts[1], err)
	}
	return sys, dia, nil
}

// Model holds per-tier linear weights and biases exported by offline training.
type Model struct {
	Classes []Tier      `json:"classes"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// LoadModel reads and validates a model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("triage: read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("triage: parse model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("triage: model has no classes")
	}
	if len(m.Weights) != len(m.Classes) || len(m.Bias) != len(m.Classes) {
		return fmt.Errorf("triage: model shape mismatch: %d classes, %d weight rows, %d biases",
			len(m.Classes), len(m.Weights), len(m.Bias))
	}
	for i, row := range m.Weights {
		if len(row) != FeatureCount {
			return fmt.Errorf("triage: weight row %d has %d features, want %d", i, len(row), FeatureCount)
		}
	}
	return nil
}

// Fallback distinguishes why a neutral-tier result was returned.
type Fallback string

const (
	FallbackNone      Fallback = ""
	FallbackUntrained Fallback = "model_not_loaded"
	FallbackError     Fallback = "scoring_error"
)

// Result is one classification. Confidence is the probability mass of the
// selected tier; Probabilities sum to 1 within floating tolerance. On a
// fallback result Confidence is 0 and Probabilities is nil.
type Result struct {
	Level         Tier             `json:"level"`
	Confidence    float64          `json:"confidence"`
	Probabilities map[Tier]float64 `json:"probabilities,omitempty"`
	Fallback      Fallback         `json:"fallback,omitempty"`
}

// Classifier scores feature vectors against a loaded model. It is stateless
// given the model and safe for concurrent use.
type Classifier struct {
	model  *Model
	logger zerolog.Logger
}

// NewClassifier wraps a model. A nil model produces neutral-tier fallbacks.
func NewClassifier(model *Model, logger zerolog.Logger) *Classifier {
	return &Classifier{model: model, logger: logger}
}

// Trained reports whether a model is loaded.
func (c *Classifier) Trained() bool { return c.model != nil }

// Classify scores the feature vector. It never fails: an unloaded model or
// an internal scoring problem degrades to the neutral tier with a fallback
// flag, so callers can proceed with intake regardless.
func (c *Classifier) Classify(features []float64) Result {
	if c.model == nil {
		return Result{Level: NeutralTier, Confidence: 0, Fallback: FallbackUntrained}
	}
	if len(features) != FeatureCount {
		c.logger.Error().
			Int("got", len(features)).
			Int("want", FeatureCount).
			Msg("triage: feature vector length mismatch")
		return Result{Level: NeutralTier, Confidence: 0, Fallback: FallbackError}
	}

	scores := make([]float64, len(c.model.Classes))
	for i, row := range c.model.Weights {
		s := c.model.Bias[i]
		for j, w := range row {
			s += w * features[j]
		}
		scores[i] = s
	}

	probs := softmax(scores)

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	result := Result{
		Level:         c.model.Classes[best],
		Confidence:    probs[best],
		Probabilities: make(map[Tier]float64, len(probs)),
	}
	for i, p := range probs {
		result.Probabilities[c.model.Classes[i]] = p
	}
	return result
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}

	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// IsCriticalTier reports whether the tier is one of the two most urgent
// classes. Severity derivation keys off this; refining it to use the full
// tier ordering is an intended extension point.
func IsCriticalTier(t Tier) bool {
	return t == TierESI1 || t == TierESI2
}
