package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for the reference-data tables backing
// the booking forms.
type Repository interface {
	// Departments
	CreateDepartment(ctx context.Context, d *Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error)
	UpdateDepartment(ctx context.Context, d *Department) error
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
	ListDepartments(ctx context.Context, country string, activeOnly bool) ([]*Department, error)

	// Doctors
	CreateDoctor(ctx context.Context, d *Doctor) error
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
	ListDoctors(ctx context.Context, country, department string, activeOnly bool) ([]*Doctor, error)

	// Doctor-procedure links
	UpsertDoctorProcedure(ctx context.Context, dp *DoctorProcedure) error
	GetDoctorProcedure(ctx context.Context, doctorID uuid.UUID, procedureType string) (*DoctorProcedure, error)
	ListDoctorProcedures(ctx context.Context, doctorID uuid.UUID) ([]*DoctorProcedure, error)
	DeleteDoctorProcedure(ctx context.Context, id uuid.UUID) error

	// Surgery sets
	CreateSurgerySet(ctx context.Context, s *SurgerySet) error
	UpdateSurgerySet(ctx context.Context, s *SurgerySet) error
	DeleteSurgerySet(ctx context.Context, id uuid.UUID) error
	ListSurgerySets(ctx context.Context, country string, activeOnly bool) ([]*SurgerySet, error)
	ReorderSurgerySets(ctx context.Context, country string, orderedIDs []uuid.UUID) error

	// Implant boxes
	CreateImplantBox(ctx context.Context, b *ImplantBox) error
	UpdateImplantBox(ctx context.Context, b *ImplantBox) error
	DeleteImplantBox(ctx context.Context, id uuid.UUID) error
	ListImplantBoxes(ctx context.Context, country string, activeOnly bool) ([]*ImplantBox, error)
	ReorderImplantBoxes(ctx context.Context, country string, orderedIDs []uuid.UUID) error

	// Code tables
	UpsertCodeTableEntry(ctx context.Context, e *CodeTableEntry) error
	ListCodeTable(ctx context.Context, listName, country string) ([]*CodeTableEntry, error)
	DeleteCodeTableEntry(ctx context.Context, id uuid.UUID) error
}
