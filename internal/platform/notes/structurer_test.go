package notes

import (
	"reflect"
	"testing"
)

func TestExtractEntities(t *testing.T) {
	s := NewStructurer(DefaultLexicon())

	t.Run("recognizes terms across categories", func(t *testing.T) {
		got := s.ExtractEntities("Chest pain with difficulty breathing, history of diabetes. Gave aspirin, started IV oxygen.")

		want := Entities{
			Symptoms:    []string{"chest", "pain", "difficulty", "breathing"},
			Conditions:  []string{"diabetes"},
			Medications: []string{"aspirin"},
			Procedures:  []string{"iv", "oxygen"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		got := s.ExtractEntities("pain pain pain")
		if len(got.Symptoms) != 3 {
			t.Errorf("expected 3 symptom hits, got %d", len(got.Symptoms))
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := s.ExtractEntities("TRAUMA with BLEEDING")
		if len(got.Symptoms) != 2 {
			t.Errorf("expected 2 symptom hits, got %v", got.Symptoms)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got := s.ExtractEntities("")
		if len(got.Symptoms)+len(got.Conditions)+len(got.Medications)+len(got.Procedures) != 0 {
			t.Errorf("expected empty result, got %+v", got)
		}
	})

	t.Run("nil lexicon degrades to empty", func(t *testing.T) {
		disabled := NewStructurer(nil)
		got := disabled.ExtractEntities("chest pain")
		if len(got.Symptoms) != 0 {
			t.Errorf("expected empty result without lexicon, got %+v", got)
		}
	})
}

func TestStructureNote(t *testing.T) {
	s := NewStructurer(DefaultLexicon())

	t.Run("partitions sections", func(t *testing.T) {
		raw := "Chief complaint: crushing chest pain\n" +
			"Vitals: BP 90/60, HR 110\n" +
			"Impression: possible MI\n" +
			"Plan: transport code 3, aspirin given"

		note := s.StructureNote(raw)

		if note.HistoryOfPresentIllness != "Chief complaint: crushing chest pain" {
			t.Errorf("hpi: got %q", note.HistoryOfPresentIllness)
		}
		if note.PhysicalExam != "Vitals: BP 90/60, HR 110" {
			t.Errorf("exam: got %q", note.PhysicalExam)
		}
		if note.Assessment != "Impression: possible MI" {
			t.Errorf("assessment: got %q", note.Assessment)
		}
		if note.Plan != "Plan: transport code 3, aspirin given" {
			t.Errorf("plan: got %q", note.Plan)
		}
	})

	t.Run("first matching line wins", func(t *testing.T) {
		raw := "Assessment: first impression\nAssessment: revised impression"
		note := s.StructureNote(raw)
		if note.Assessment != "Assessment: first impression" {
			t.Errorf("expected first line to win, got %q", note.Assessment)
		}
	})

	t.Run("unmatched lines are dropped", func(t *testing.T) {
		note := s.StructureNote("random narrative line\nanother stray line")
		if !emptySections(note) {
			t.Errorf("expected empty note, got %+v", note)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if note := s.StructureNote(""); !emptySections(note) {
			t.Errorf("expected empty note, got %+v", note)
		}
	})
}

func emptySections(n StructuredNote) bool {
	return n.HistoryOfPresentIllness == "" && n.PhysicalExam == "" &&
		n.Assessment == "" && n.Plan == ""
}
