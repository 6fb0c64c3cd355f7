package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	departments      map[uuid.UUID]*Department
	doctors          map[uuid.UUID]*Doctor
	doctorProcedures map[uuid.UUID]*DoctorProcedure
	surgerySets      map[uuid.UUID]*SurgerySet
	implantBoxes     map[uuid.UUID]*ImplantBox
	codeTables       map[uuid.UUID]*CodeTableEntry
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		departments:      make(map[uuid.UUID]*Department),
		doctors:          make(map[uuid.UUID]*Doctor),
		doctorProcedures: make(map[uuid.UUID]*DoctorProcedure),
		surgerySets:      make(map[uuid.UUID]*SurgerySet),
		implantBoxes:     make(map[uuid.UUID]*ImplantBox),
		codeTables:       make(map[uuid.UUID]*CodeTableEntry),
	}
}

func (m *mockRepo) CreateDepartment(_ context.Context, d *Department) error {
	d.ID = uuid.New()
	m.departments[d.ID] = d
	return nil
}

func (m *mockRepo) GetDepartment(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) UpdateDepartment(_ context.Context, d *Department) error {
	if _, ok := m.departments[d.ID]; !ok {
		return ErrNotFound
	}
	m.departments[d.ID] = d
	return nil
}

func (m *mockRepo) DeleteDepartment(_ context.Context, id uuid.UUID) error {
	if _, ok := m.departments[id]; !ok {
		return ErrNotFound
	}
	delete(m.departments, id)
	return nil
}

func (m *mockRepo) ListDepartments(_ context.Context, country string, activeOnly bool) ([]*Department, error) {
	var result []*Department
	for _, d := range m.departments {
		if country != "" && d.Country != country {
			continue
		}
		if activeOnly && !d.IsActive {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func (m *mockRepo) CreateDoctor(_ context.Context, d *Doctor) error {
	d.ID = uuid.New()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockRepo) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) UpdateDoctor(_ context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.ID]; !ok {
		return ErrNotFound
	}
	m.doctors[d.ID] = d
	return nil
}

func (m *mockRepo) DeleteDoctor(_ context.Context, id uuid.UUID) error {
	if _, ok := m.doctors[id]; !ok {
		return ErrNotFound
	}
	delete(m.doctors, id)
	return nil
}

func (m *mockRepo) ListDoctors(_ context.Context, country, department string, activeOnly bool) ([]*Doctor, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		if country != "" && d.Country != country {
			continue
		}
		if department != "" && d.Department != department {
			continue
		}
		if activeOnly && !d.IsActive {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func (m *mockRepo) UpsertDoctorProcedure(_ context.Context, dp *DoctorProcedure) error {
	for _, existing := range m.doctorProcedures {
		if existing.DoctorID == dp.DoctorID && existing.ProcedureType == dp.ProcedureType {
			dp.ID = existing.ID
			m.doctorProcedures[dp.ID] = dp
			return nil
		}
	}
	dp.ID = uuid.New()
	m.doctorProcedures[dp.ID] = dp
	return nil
}

func (m *mockRepo) GetDoctorProcedure(_ context.Context, doctorID uuid.UUID, procedureType string) (*DoctorProcedure, error) {
	for _, dp := range m.doctorProcedures {
		if dp.DoctorID == doctorID && dp.ProcedureType == procedureType {
			return dp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListDoctorProcedures(_ context.Context, doctorID uuid.UUID) ([]*DoctorProcedure, error) {
	var result []*DoctorProcedure
	for _, dp := range m.doctorProcedures {
		if dp.DoctorID == doctorID {
			result = append(result, dp)
		}
	}
	return result, nil
}

func (m *mockRepo) DeleteDoctorProcedure(_ context.Context, id uuid.UUID) error {
	if _, ok := m.doctorProcedures[id]; !ok {
		return ErrNotFound
	}
	delete(m.doctorProcedures, id)
	return nil
}

func (m *mockRepo) CreateSurgerySet(_ context.Context, s *SurgerySet) error {
	s.ID = uuid.New()
	s.SortOrder = len(m.surgerySets) + 1
	m.surgerySets[s.ID] = s
	return nil
}

func (m *mockRepo) UpdateSurgerySet(_ context.Context, s *SurgerySet) error {
	if _, ok := m.surgerySets[s.ID]; !ok {
		return ErrNotFound
	}
	m.surgerySets[s.ID] = s
	return nil
}

func (m *mockRepo) DeleteSurgerySet(_ context.Context, id uuid.UUID) error {
	if _, ok := m.surgerySets[id]; !ok {
		return ErrNotFound
	}
	delete(m.surgerySets, id)
	return nil
}

func (m *mockRepo) ListSurgerySets(_ context.Context, country string, activeOnly bool) ([]*SurgerySet, error) {
	var result []*SurgerySet
	for _, s := range m.surgerySets {
		if country != "" && s.Country != country {
			continue
		}
		if activeOnly && !s.IsActive {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockRepo) ReorderSurgerySets(_ context.Context, country string, orderedIDs []uuid.UUID) error {
	for i, id := range orderedIDs {
		if s, ok := m.surgerySets[id]; ok && s.Country == country {
			s.SortOrder = i + 1
		}
	}
	return nil
}

func (m *mockRepo) CreateImplantBox(_ context.Context, b *ImplantBox) error {
	b.ID = uuid.New()
	b.SortOrder = len(m.implantBoxes) + 1
	m.implantBoxes[b.ID] = b
	return nil
}

func (m *mockRepo) UpdateImplantBox(_ context.Context, b *ImplantBox) error {
	if _, ok := m.implantBoxes[b.ID]; !ok {
		return ErrNotFound
	}
	m.implantBoxes[b.ID] = b
	return nil
}

func (m *mockRepo) DeleteImplantBox(_ context.Context, id uuid.UUID) error {
	if _, ok := m.implantBoxes[id]; !ok {
		return ErrNotFound
	}
	delete(m.implantBoxes, id)
	return nil
}

func (m *mockRepo) ListImplantBoxes(_ context.Context, country string, activeOnly bool) ([]*ImplantBox, error) {
	var result []*ImplantBox
	for _, b := range m.implantBoxes {
		if country != "" && b.Country != country {
			continue
		}
		if activeOnly && !b.IsActive {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (m *mockRepo) ReorderImplantBoxes(_ context.Context, country string, orderedIDs []uuid.UUID) error {
	for i, id := range orderedIDs {
		if b, ok := m.implantBoxes[id]; ok && b.Country == country {
			b.SortOrder = i + 1
		}
	}
	return nil
}

func (m *mockRepo) UpsertCodeTableEntry(_ context.Context, e *CodeTableEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.codeTables[e.ID] = e
	return nil
}

func (m *mockRepo) ListCodeTable(_ context.Context, listName, country string) ([]*CodeTableEntry, error) {
	var result []*CodeTableEntry
	for _, e := range m.codeTables {
		if e.ListName != listName {
			continue
		}
		if country != "" && e.Country != country {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (m *mockRepo) DeleteCodeTableEntry(_ context.Context, id uuid.UUID) error {
	if _, ok := m.codeTables[id]; !ok {
		return ErrNotFound
	}
	delete(m.codeTables, id)
	return nil
}

// -- Tests --

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func TestCreateDepartment_Validation(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.CreateDepartment(context.Background(), &Department{Country: "SG"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreateDepartment(context.Background(), &Department{Name: "Orthopedics"}); err == nil {
		t.Error("expected error for missing country")
	}

	d := &Department{Name: "Orthopedics", Country: "SG"}
	if err := svc.CreateDepartment(context.Background(), d); err != nil {
		t.Fatalf("CreateDepartment failed: %v", err)
	}
	if !d.IsActive {
		t.Error("new departments should start active")
	}
}

func TestListDepartments_CountryFilter(t *testing.T) {
	svc, _ := newTestService()
	for _, row := range []struct{ name, country string }{
		{"Orthopedics", "SG"}, {"Spine", "SG"}, {"Trauma", "MY"},
	} {
		if err := svc.CreateDepartment(context.Background(), &Department{Name: row.name, Country: row.country}); err != nil {
			t.Fatalf("CreateDepartment failed: %v", err)
		}
	}

	sg, err := svc.ListDepartments(context.Background(), "SG", true)
	if err != nil {
		t.Fatalf("ListDepartments failed: %v", err)
	}
	if len(sg) != 2 {
		t.Errorf("SG departments = %d, want 2", len(sg))
	}
}

func TestSaveDoctorProcedure_InheritsDoctorCountry(t *testing.T) {
	svc, _ := newTestService()
	doctor := &Doctor{Name: "Dr. Tan", Department: "Orthopedics", Country: "SG"}
	if err := svc.CreateDoctor(context.Background(), doctor); err != nil {
		t.Fatalf("CreateDoctor failed: %v", err)
	}

	dp := &DoctorProcedure{
		DoctorID:      doctor.ID,
		ProcedureType: "Knee Replacement",
		SurgerySets:   []string{"Knee Set A"},
		ImplantBoxes:  []string{"Implant Box 1"},
	}
	if err := svc.SaveDoctorProcedure(context.Background(), dp); err != nil {
		t.Fatalf("SaveDoctorProcedure failed: %v", err)
	}
	if dp.Country != "SG" {
		t.Errorf("country = %q, want SG (inherited from doctor)", dp.Country)
	}
}

func TestRecommendedSelection(t *testing.T) {
	svc, _ := newTestService()
	doctor := &Doctor{Name: "Dr. Tan", Department: "Orthopedics", Country: "SG"}
	if err := svc.CreateDoctor(context.Background(), doctor); err != nil {
		t.Fatalf("CreateDoctor failed: %v", err)
	}
	dp := &DoctorProcedure{
		DoctorID:      doctor.ID,
		ProcedureType: "Knee Replacement",
		SurgerySets:   []string{"Knee Set A", "Knee Set B"},
		ImplantBoxes:  []string{"Implant Box 1"},
	}
	if err := svc.SaveDoctorProcedure(context.Background(), dp); err != nil {
		t.Fatalf("SaveDoctorProcedure failed: %v", err)
	}

	sets, boxes, err := svc.RecommendedSelection(context.Background(), doctor.ID, "Knee Replacement")
	if err != nil {
		t.Fatalf("RecommendedSelection failed: %v", err)
	}
	if len(sets) != 2 || len(boxes) != 1 {
		t.Errorf("selection = %v / %v", sets, boxes)
	}

	// Unknown pairings recommend nothing rather than erroring.
	sets, boxes, err = svc.RecommendedSelection(context.Background(), doctor.ID, "Hip Replacement")
	if err != nil {
		t.Fatalf("RecommendedSelection for unknown pairing failed: %v", err)
	}
	if sets != nil || boxes != nil {
		t.Errorf("unknown pairing should recommend nothing, got %v / %v", sets, boxes)
	}
}

func TestReorderSurgerySets(t *testing.T) {
	svc, repo := newTestService()
	var ids []uuid.UUID
	for _, name := range []string{"Set A", "Set B", "Set C"} {
		s := &SurgerySet{Name: name, Country: "SG"}
		if err := svc.CreateSurgerySet(context.Background(), s); err != nil {
			t.Fatalf("CreateSurgerySet failed: %v", err)
		}
		ids = append(ids, s.ID)
	}

	// Reverse the order.
	reversed := []uuid.UUID{ids[2], ids[1], ids[0]}
	if err := svc.ReorderSurgerySets(context.Background(), "SG", reversed); err != nil {
		t.Fatalf("ReorderSurgerySets failed: %v", err)
	}
	if repo.surgerySets[ids[2]].SortOrder != 1 {
		t.Errorf("Set C sort order = %d, want 1", repo.surgerySets[ids[2]].SortOrder)
	}
	if repo.surgerySets[ids[0]].SortOrder != 3 {
		t.Errorf("Set A sort order = %d, want 3", repo.surgerySets[ids[0]].SortOrder)
	}

	if err := svc.ReorderSurgerySets(context.Background(), "", reversed); err == nil {
		t.Error("expected error for missing country")
	}
}

func TestSaveCodeTableEntry_Defaults(t *testing.T) {
	svc, _ := newTestService()
	e := &CodeTableEntry{ListName: "countries", Code: "SG", IsActive: true}
	if err := svc.SaveCodeTableEntry(context.Background(), e); err != nil {
		t.Fatalf("SaveCodeTableEntry failed: %v", err)
	}
	if e.Display != "SG" {
		t.Errorf("display = %q, want code fallback", e.Display)
	}

	if err := svc.SaveCodeTableEntry(context.Background(), &CodeTableEntry{Code: "X"}); err == nil {
		t.Error("expected error for missing list name")
	}
}
