package patient

import (
	"context"
	"strings"
	"sync"
	"testing"
)

type mockRepo struct {
	mu      sync.Mutex
	cases   map[string]*Case
	records map[string][]*Record // keyed by case id, newest last
	taken   map[string]bool      // ids considered taken for allocation tests
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		cases:   make(map[string]*Case),
		records: make(map[string][]*Record),
		taken:   make(map[string]bool),
	}
}

func (m *mockRepo) CreateCase(ctx context.Context, c *Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.cases[c.CaseID] = &cp
	return nil
}

func (m *mockRepo) GetCase(ctx context.Context, caseID string) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) ListCases(ctx context.Context, limit, offset int) ([]*Case, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Case
	for _, c := range m.cases {
		cp := *c
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (m *mockRepo) CaseIDExists(ctx context.Context, caseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cases[caseID]
	return ok || m.taken[caseID], nil
}

func (m *mockRepo) UpdateVitals(ctx context.Context, caseID string, v Vitals) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	if v.HeartRate != nil {
		c.Vitals.HeartRate = v.HeartRate
	}
	if v.BloodPressure != nil {
		c.Vitals.BloodPressure = v.BloodPressure
	}
	if v.OxygenSaturation != nil {
		c.Vitals.OxygenSaturation = v.OxygenSaturation
	}
	if v.RespiratoryRate != nil {
		c.Vitals.RespiratoryRate = v.RespiratoryRate
	}
	if v.Temperature != nil {
		c.Vitals.Temperature = v.Temperature
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) CreateRecord(ctx context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.records[r.CaseID] = append(m.records[r.CaseID], &cp)
	return nil
}

func (m *mockRepo) GetRecordByCase(ctx context.Context, caseID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.records[caseID]
	if len(recs) == 0 {
		return nil, ErrRecordNotFound
	}
	cp := *recs[len(recs)-1]
	return &cp, nil
}

func (m *mockRepo) RecordIDExists(ctx context.Context, recordID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, recs := range m.records {
		for _, r := range recs {
			if r.RecordID == recordID {
				return true, nil
			}
		}
	}
	return m.taken[recordID], nil
}

// FinalizeRecord signs off the newest record only, matching the store.
func (m *mockRepo) FinalizeRecord(ctx context.Context, caseID, finalizedBy string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.records[caseID]
	if len(recs) == 0 {
		return nil, ErrRecordNotFound
	}
	r := recs[len(recs)-1]
	r.IsFinalized = true
	r.FinalizedBy = &finalizedBy
	cp := *r
	return &cp, nil
}

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestService_NewCaseID_Format(t *testing.T) {
	svc := NewService(newMockRepo())

	id, err := svc.NewCaseID(context.Background())
	if err != nil {
		t.Fatalf("NewCaseID() error: %v", err)
	}
	if !strings.HasPrefix(id, "PAT-") {
		t.Errorf("expected PAT- prefix, got %s", id)
	}
	if len(id) != len("PAT-")+8 {
		t.Errorf("expected 8 hex chars after prefix, got %s", id)
	}
}

func TestService_NewCaseID_Unique(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := svc.NewCaseID(ctx)
		if err != nil {
			t.Fatalf("NewCaseID() error: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate case id %s", id)
		}
		seen[id] = true
	}
}

func TestService_NewRecordID_Format(t *testing.T) {
	svc := NewService(newMockRepo())

	id, err := svc.NewRecordID(context.Background())
	if err != nil {
		t.Fatalf("NewRecordID() error: %v", err)
	}
	if !strings.HasPrefix(id, "MRN-") {
		t.Errorf("expected MRN- prefix, got %s", id)
	}
}

func TestService_CreateCase_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.CreateCase(ctx, &Case{ChiefComplaint: "chest pain"}); err == nil {
		t.Error("expected error for missing case_id")
	}
	if err := svc.CreateCase(ctx, &Case{CaseID: "PAT-00000001"}); err == nil {
		t.Error("expected error for missing chief_complaint")
	}
	if err := svc.CreateCase(ctx, &Case{CaseID: "PAT-00000001", ChiefComplaint: "chest pain"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestService_UpdateVitals_MergesFields(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c := &Case{
		CaseID:         "PAT-00000001",
		ChiefComplaint: "chest pain",
		Vitals:         Vitals{HeartRate: intPtr(98), BloodPressure: strPtr("130/85")},
	}
	if err := svc.CreateCase(ctx, c); err != nil {
		t.Fatalf("CreateCase() error: %v", err)
	}

	updated, err := svc.UpdateVitals(ctx, "PAT-00000001", Vitals{OxygenSaturation: floatPtr(94)})
	if err != nil {
		t.Fatalf("UpdateVitals() error: %v", err)
	}

	if updated.Vitals.HeartRate == nil || *updated.Vitals.HeartRate != 98 {
		t.Error("expected untouched heart rate to survive the merge")
	}
	if updated.Vitals.BloodPressure == nil || *updated.Vitals.BloodPressure != "130/85" {
		t.Error("expected untouched blood pressure to survive the merge")
	}
	if updated.Vitals.OxygenSaturation == nil || *updated.Vitals.OxygenSaturation != 94 {
		t.Error("expected oxygen saturation to be updated")
	}
}

func TestService_UpdateVitals_ConcurrentDisjointPatches(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c := &Case{CaseID: "PAT-00000001", ChiefComplaint: "mvc rollover"}
	if err := svc.CreateCase(ctx, c); err != nil {
		t.Fatalf("CreateCase() error: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := svc.UpdateVitals(ctx, "PAT-00000001", Vitals{HeartRate: intPtr(120)}); err != nil {
			t.Errorf("UpdateVitals(heart rate) error: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := svc.UpdateVitals(ctx, "PAT-00000001", Vitals{Temperature: floatPtr(37.9)}); err != nil {
			t.Errorf("UpdateVitals(temperature) error: %v", err)
		}
	}()
	wg.Wait()

	final, err := svc.GetCase(ctx, "PAT-00000001")
	if err != nil {
		t.Fatalf("GetCase() error: %v", err)
	}
	if final.Vitals.HeartRate == nil || *final.Vitals.HeartRate != 120 {
		t.Error("heart rate patch was lost")
	}
	if final.Vitals.Temperature == nil || *final.Vitals.Temperature != 37.9 {
		t.Error("temperature patch was lost")
	}
}

func TestService_UpdateVitals_UnknownCase(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.UpdateVitals(context.Background(), "PAT-missing", Vitals{HeartRate: intPtr(80)})
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_FinalizeRecord(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	rec := &Record{RecordID: "MRN-00000001", CaseID: "PAT-00000001", GeneratedByAI: true, Confidence: 0.82}
	if err := svc.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord() error: %v", err)
	}

	final, err := svc.FinalizeRecord(ctx, "PAT-00000001", "dr-jones")
	if err != nil {
		t.Fatalf("FinalizeRecord() error: %v", err)
	}
	if !final.IsFinalized {
		t.Error("expected record to be finalized")
	}
	if final.FinalizedBy == nil || *final.FinalizedBy != "dr-jones" {
		t.Error("expected finalized_by to be recorded")
	}

	// Finalizing again keeps the record finalized and refreshes the approver.
	again, err := svc.FinalizeRecord(ctx, "PAT-00000001", "dr-smith")
	if err != nil {
		t.Fatalf("FinalizeRecord() second call error: %v", err)
	}
	if !again.IsFinalized {
		t.Error("expected record to stay finalized")
	}

	if _, err := svc.FinalizeRecord(ctx, "PAT-00000001", ""); err == nil {
		t.Error("expected error for empty finalized_by")
	}

	if _, err := svc.FinalizeRecord(ctx, "PAT-missing", "dr-jones"); err != ErrRecordNotFound {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestService_FinalizeRecord_NewestOnly(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	older := &Record{RecordID: "MRN-00000001", CaseID: "PAT-00000001", GeneratedByAI: true}
	newer := &Record{RecordID: "MRN-00000002", CaseID: "PAT-00000001", GeneratedByAI: true}
	if err := svc.CreateRecord(ctx, older); err != nil {
		t.Fatalf("CreateRecord() error: %v", err)
	}
	if err := svc.CreateRecord(ctx, newer); err != nil {
		t.Fatalf("CreateRecord() error: %v", err)
	}

	final, err := svc.FinalizeRecord(ctx, "PAT-00000001", "dr-jones")
	if err != nil {
		t.Fatalf("FinalizeRecord() error: %v", err)
	}
	if final.RecordID != "MRN-00000002" {
		t.Errorf("expected the newest record finalized, got %s", final.RecordID)
	}

	repo.mu.Lock()
	first := repo.records["PAT-00000001"][0]
	if first.IsFinalized || first.FinalizedBy != nil {
		t.Error("expected the earlier draft left untouched")
	}
	repo.mu.Unlock()
}
