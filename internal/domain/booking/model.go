package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced by the service. Handlers map these to HTTP codes.
var (
	ErrNotFound         = errors.New("case booking not found")
	ErrConcurrentUpdate = errors.New("case was modified by another user, refresh and retry")
)

// Duplicate-suppression windows for status history (see StatusHistoryEntry).
const (
	sameStatusWindow = 30 * time.Second
	anyStatusWindow  = 5 * time.Second
)

// Item types for case quantities.
const (
	ItemTypeSurgerySet = "surgery_set"
	ItemTypeImplantBox = "implant_box"
)

// CaseBooking maps to the case_bookings table.
type CaseBooking struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	ReferenceNumber     string     `db:"reference_number" json:"referenceNumber"`
	Hospital            string     `db:"hospital" json:"hospital"`
	Department          string     `db:"department" json:"department"`
	SurgeryDate         time.Time  `db:"surgery_date" json:"surgeryDate"`
	ProcedureType       string     `db:"procedure_type" json:"procedureType"`
	ProcedureName       string     `db:"procedure_name" json:"procedureName"`
	DoctorID            *uuid.UUID `db:"doctor_id" json:"doctorId,omitempty"`
	DoctorName          string     `db:"doctor_name" json:"doctorName"`
	TimeOfProcedure     string     `db:"time_of_procedure" json:"timeOfProcedure"`
	SpecialInstruction  string     `db:"special_instruction" json:"specialInstruction"`
	SurgerySetSelection []string   `db:"surgery_set_selection" json:"surgerySetSelection"`
	ImplantBox          []string   `db:"implant_box" json:"implantBox"`
	Status              CaseStatus `db:"status" json:"status"`
	Country             string     `db:"country" json:"country"`
	IsAmended           bool       `db:"is_amended" json:"isAmended"`
	AmendedBy           string     `db:"amended_by" json:"amendedBy,omitempty"`
	AmendedAt           *time.Time `db:"amended_at" json:"amendedAt,omitempty"`
	SubmittedBy         string     `db:"submitted_by" json:"submittedBy"`
	SubmittedAt         time.Time  `db:"submitted_at" json:"submittedAt"`
	ProcessedBy         string     `db:"processed_by" json:"processedBy,omitempty"`
	ProcessedAt         *time.Time `db:"processed_at" json:"processedAt,omitempty"`
	ProcessOrderDetails string     `db:"process_order_details" json:"processOrderDetails,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// StatusHistoryEntry maps to the status_history table. Append-only; the
// owning case's status column must always equal its newest entry's status.
type StatusHistoryEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CaseID      uuid.UUID  `db:"case_id" json:"caseId"`
	Status      CaseStatus `db:"status" json:"status"`
	Timestamp   time.Time  `db:"timestamp" json:"timestamp"`
	ProcessedBy string     `db:"processed_by" json:"processedBy"`
	Details     string     `db:"details" json:"details,omitempty"`
	Attachments []string   `db:"attachments" json:"attachments,omitempty"`
}

// ChangeRecord is a single field difference inside an amendment.
type ChangeRecord struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// AmendmentHistoryEntry maps to the amendment_history table.
type AmendmentHistoryEntry struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	CaseID    uuid.UUID      `db:"case_id" json:"caseId"`
	AmendedBy string         `db:"amended_by" json:"amendedBy"`
	Timestamp time.Time      `db:"timestamp" json:"timestamp"`
	Reason    string         `db:"reason" json:"reason"`
	Changes   []ChangeRecord `db:"changes" json:"changes"`
}

// CaseQuantity maps to the case_booking_quantities table. Rows for a case are
// replaced wholesale whenever its set/box selection or any quantity changes.
type CaseQuantity struct {
	ID       uuid.UUID `db:"id" json:"id"`
	CaseID   uuid.UUID `db:"case_id" json:"caseId"`
	ItemType string    `db:"item_type" json:"itemType"`
	ItemName string    `db:"item_name" json:"itemName"`
	Quantity int       `db:"quantity" json:"quantity"`
}

// ListFilter narrows case listings. Country is the isolation key: when set,
// only that country's cases are returned; the service sets it from the
// caller's claims for non-admin users.
type ListFilter struct {
	Country     string
	Status      CaseStatus
	Department  string
	DoctorName  string
	SubmittedBy string
	DateFrom    *time.Time
	DateTo      *time.Time
}
