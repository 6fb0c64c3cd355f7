package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service exposes the reference data behind the booking forms: departments,
// doctors, the sets and boxes they usually need, and named code lists.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// -- Departments --

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	if d.Name == "" {
		return fmt.Errorf("department name is required")
	}
	if d.Country == "" {
		return fmt.Errorf("country is required")
	}
	d.IsActive = true
	return s.repo.CreateDepartment(ctx, d)
}

func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.repo.GetDepartment(ctx, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, d *Department) error {
	if d.Name == "" {
		return fmt.Errorf("department name is required")
	}
	return s.repo.UpdateDepartment(ctx, d)
}

func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDepartment(ctx, id)
}

func (s *Service) ListDepartments(ctx context.Context, country string, activeOnly bool) ([]*Department, error) {
	return s.repo.ListDepartments(ctx, country, activeOnly)
}

// -- Doctors --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return fmt.Errorf("doctor name is required")
	}
	if d.Country == "" {
		return fmt.Errorf("country is required")
	}
	d.IsActive = true
	return s.repo.CreateDoctor(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return fmt.Errorf("doctor name is required")
	}
	return s.repo.UpdateDoctor(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDoctor(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, country, department string, activeOnly bool) ([]*Doctor, error) {
	return s.repo.ListDoctors(ctx, country, department, activeOnly)
}

// -- Doctor-procedure links --

// SaveDoctorProcedure records which sets and boxes a (doctor, procedure type)
// pairing recommends, replacing any previous recommendation.
func (s *Service) SaveDoctorProcedure(ctx context.Context, dp *DoctorProcedure) error {
	if dp.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor id is required")
	}
	if dp.ProcedureType == "" {
		return fmt.Errorf("procedure type is required")
	}
	doctor, err := s.repo.GetDoctor(ctx, dp.DoctorID)
	if err != nil {
		return err
	}
	dp.Country = doctor.Country
	return s.repo.UpsertDoctorProcedure(ctx, dp)
}

// RecommendedSelection resolves the sets and boxes preselected when booking
// the given doctor for the given procedure type. An unknown pairing is not
// an error; it just recommends nothing.
func (s *Service) RecommendedSelection(ctx context.Context, doctorID uuid.UUID, procedureType string) (sets, boxes []string, err error) {
	dp, err := s.repo.GetDoctorProcedure(ctx, doctorID, procedureType)
	if err == ErrNotFound {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return dp.SurgerySets, dp.ImplantBoxes, nil
}

func (s *Service) ListDoctorProcedures(ctx context.Context, doctorID uuid.UUID) ([]*DoctorProcedure, error) {
	return s.repo.ListDoctorProcedures(ctx, doctorID)
}

func (s *Service) DeleteDoctorProcedure(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDoctorProcedure(ctx, id)
}

// -- Surgery sets --

func (s *Service) CreateSurgerySet(ctx context.Context, set *SurgerySet) error {
	if set.Name == "" {
		return fmt.Errorf("surgery set name is required")
	}
	if set.Country == "" {
		return fmt.Errorf("country is required")
	}
	set.IsActive = true
	return s.repo.CreateSurgerySet(ctx, set)
}

func (s *Service) UpdateSurgerySet(ctx context.Context, set *SurgerySet) error {
	if set.Name == "" {
		return fmt.Errorf("surgery set name is required")
	}
	return s.repo.UpdateSurgerySet(ctx, set)
}

func (s *Service) DeleteSurgerySet(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSurgerySet(ctx, id)
}

func (s *Service) ListSurgerySets(ctx context.Context, country string, activeOnly bool) ([]*SurgerySet, error) {
	return s.repo.ListSurgerySets(ctx, country, activeOnly)
}

// ReorderSurgerySets persists a new display order for a country's sets.
func (s *Service) ReorderSurgerySets(ctx context.Context, country string, orderedIDs []uuid.UUID) error {
	if country == "" {
		return fmt.Errorf("country is required")
	}
	if len(orderedIDs) == 0 {
		return fmt.Errorf("ordered ids are required")
	}
	return s.repo.ReorderSurgerySets(ctx, country, orderedIDs)
}

// -- Implant boxes --

func (s *Service) CreateImplantBox(ctx context.Context, b *ImplantBox) error {
	if b.Name == "" {
		return fmt.Errorf("implant box name is required")
	}
	if b.Country == "" {
		return fmt.Errorf("country is required")
	}
	b.IsActive = true
	return s.repo.CreateImplantBox(ctx, b)
}

func (s *Service) UpdateImplantBox(ctx context.Context, b *ImplantBox) error {
	if b.Name == "" {
		return fmt.Errorf("implant box name is required")
	}
	return s.repo.UpdateImplantBox(ctx, b)
}

func (s *Service) DeleteImplantBox(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteImplantBox(ctx, id)
}

func (s *Service) ListImplantBoxes(ctx context.Context, country string, activeOnly bool) ([]*ImplantBox, error) {
	return s.repo.ListImplantBoxes(ctx, country, activeOnly)
}

func (s *Service) ReorderImplantBoxes(ctx context.Context, country string, orderedIDs []uuid.UUID) error {
	if country == "" {
		return fmt.Errorf("country is required")
	}
	if len(orderedIDs) == 0 {
		return fmt.Errorf("ordered ids are required")
	}
	return s.repo.ReorderImplantBoxes(ctx, country, orderedIDs)
}

// -- Code tables --

func (s *Service) SaveCodeTableEntry(ctx context.Context, e *CodeTableEntry) error {
	if e.ListName == "" {
		return fmt.Errorf("list name is required")
	}
	if e.Code == "" {
		return fmt.Errorf("code is required")
	}
	if e.Display == "" {
		e.Display = e.Code
	}
	return s.repo.UpsertCodeTableEntry(ctx, e)
}

func (s *Service) ListCodeTable(ctx context.Context, listName, country string) ([]*CodeTableEntry, error) {
	if listName == "" {
		return nil, fmt.Errorf("list name is required")
	}
	return s.repo.ListCodeTable(ctx, listName, country)
}

func (s *Service) DeleteCodeTableEntry(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCodeTableEntry(ctx, id)
}
