// Package notes provides best-effort structuring of free-text field notes:
// lexical clinical entity extraction and section partitioning. It is pure
// enrichment; nothing here blocks or fails an intake.
package notes

import "strings"

// Entities groups the clinical terms recognized in a note. Matching is
// order-insensitive and duplicates are kept.
type Entities struct {
	Symptoms    []string `json:"symptoms"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
	Procedures  []string `json:"procedures"`
}

// StructuredNote partitions a free-text note into the four standard sections,
// alongside the clinical entities recognized in the full text.
type StructuredNote struct {
	HistoryOfPresentIllness string   `json:"history_of_present_illness"`
	PhysicalExam            string   `json:"physical_exam"`
	Assessment              string   `json:"assessment"`
	Plan                    string   `json:"plan"`
	Entities                Entities `json:"entities"`
}

// Lexicon holds the fixed vocabularies entity extraction matches against.
type Lexicon struct {
	Symptoms    []string
	Conditions  []string
	Medications []string
	Procedures  []string
}

// DefaultLexicon returns the built-in clinical vocabularies.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Symptoms: []string{
			"pain", "chest", "breathing", "difficulty", "unconscious",
			"bleeding", "fracture", "trauma", "shock", "dizziness", "nausea",
		},
		Conditions: []string{
			"diabetes", "hypertension", "asthma", "copd", "heart",
			"stroke", "seizure", "allergic", "sepsis",
		},
		Medications: []string{
			"aspirin", "epinephrine", "nitroglycerin", "morphine", "insulin",
			"albuterol", "naloxone", "heparin",
		},
		Procedures: []string{
			"intubation", "cpr", "defibrillation", "splint", "tourniquet",
			"iv", "oxygen",
		},
	}
}

// Structurer extracts entities and sections from field notes. A Structurer
// with a nil lexicon (language model unavailable) degrades to empty entity
// results instead of failing.
type Structurer struct {
	lex *Lexicon
}

func NewStructurer(lex *Lexicon) *Structurer {
	return &Structurer{lex: lex}
}

// ExtractEntities scans the text for known clinical terms. It never fails;
// empty input or an absent lexicon yields an empty result.
func (s *Structurer) ExtractEntities(text string) Entities {
	var out Entities
	if s.lex == nil || text == "" {
		return out
	}

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?()")
		if contains(s.lex.Symptoms, token) {
			out.Symptoms = append(out.Symptoms, token)
		}
		if contains(s.lex.Conditions, token) {
			out.Conditions = append(out.Conditions, token)
		}
		if contains(s.lex.Medications, token) {
			out.Medications = append(out.Medications, token)
		}
		if contains(s.lex.Procedures, token) {
			out.Procedures = append(out.Procedures, token)
		}
	}
	return out
}

var sectionIndicators = map[string][]string{
	"hpi":        {"chief", "complaint", "chief complaint"},
	"exam":       {"vital", "exam", "physical"},
	"assessment": {"impression", "assessment", "diagnosis"},
	"plan":       {"plan", "treatment", "intervention"},
}

// StructureNote partitions the note's lines into sections by scanning for
// section-indicating keywords. The first matching line wins per section;
// lines matching no indicator are dropped. Malformed or empty input returns
// an empty note.
func (s *Structurer) StructureNote(raw string) StructuredNote {
	var note StructuredNote

	for _, line := range strings.Split(raw, "\n") {
		lower := strings.ToLower(line)
		switch {
		case note.HistoryOfPresentIllness == "" && matchesAny(lower, sectionIndicators["hpi"]):
			note.HistoryOfPresentIllness = line
		case note.PhysicalExam == "" && matchesAny(lower, sectionIndicators["exam"]):
			note.PhysicalExam = line
		case note.Assessment == "" && matchesAny(lower, sectionIndicators["assessment"]):
			note.Assessment = line
		case note.Plan == "" && matchesAny(lower, sectionIndicators["plan"]):
			note.Plan = line
		}
	}
	return note
}

func matchesAny(line string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

func contains(vocab []string, token string) bool {
	for _, v := range vocab {
		if v == token {
			return true
		}
	}
	return false
}
