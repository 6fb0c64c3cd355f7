package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("catalog entry not found")

// Department is a hospital department cases are booked against.
type Department struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Country   string    `db:"country" json:"country"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Doctor is a surgeon cases can be booked for.
type Doctor struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	Country    string    `db:"country" json:"country"`
	IsActive   bool      `db:"is_active" json:"isActive"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// DoctorProcedure links a doctor and procedure type to the surgery sets and
// implant boxes that pairing usually needs. Booking forms preselect from it.
type DoctorProcedure struct {
	ID            uuid.UUID `db:"id" json:"id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctorId"`
	ProcedureType string    `db:"procedure_type" json:"procedureType"`
	SurgerySets   []string  `db:"surgery_sets" json:"surgerySets"`
	ImplantBoxes  []string  `db:"implant_boxes" json:"implantBoxes"`
	Country       string    `db:"country" json:"country"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// SurgerySet is an instrument set available for booking. SortOrder is the
// persisted display position.
type SurgerySet struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Country   string    `db:"country" json:"country"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	SortOrder int       `db:"sort_order" json:"sortOrder"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ImplantBox is an implant container available for booking.
type ImplantBox struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Country   string    `db:"country" json:"country"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	SortOrder int       `db:"sort_order" json:"sortOrder"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CodeTableEntry is one row of a named enumeration (countries, hospitals,
// and the like) served to clients as dropdown data.
type CodeTableEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ListName  string    `db:"list_name" json:"listName"`
	Code      string    `db:"code" json:"code"`
	Display   string    `db:"display" json:"display"`
	Country   string    `db:"country" json:"country"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	SortOrder int       `db:"sort_order" json:"sortOrder"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
