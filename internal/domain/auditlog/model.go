package auditlog

import (
	"time"

	"github.com/google/uuid"
)

// Categories group audit entries by what they concern.
const (
	CategoryCaseBooking = "case_booking"
	CategoryCatalog     = "catalog"
	CategorySecurity    = "security"
	CategorySystem      = "system"
)

// Outcome status values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry maps to the audit_logs table. Append-only.
type Entry struct {
	ID         uuid.UUID              `db:"id" json:"id"`
	Timestamp  time.Time              `db:"timestamp" json:"timestamp"`
	UserName   string                 `db:"user_name" json:"userName"`
	UserID     string                 `db:"user_id" json:"userId"`
	UserRole   string                 `db:"user_role" json:"userRole"`
	Action     string                 `db:"action" json:"action"`
	Category   string                 `db:"category" json:"category"`
	Target     string                 `db:"target" json:"target"`
	Details    string                 `db:"details" json:"details,omitempty"`
	Status     string                 `db:"status" json:"status"`
	Metadata   map[string]interface{} `db:"metadata" json:"metadata,omitempty"`
	Country    string                 `db:"country" json:"country,omitempty"`
	Department string                 `db:"department" json:"department,omitempty"`
}

// Filter narrows audit listings.
type Filter struct {
	Country  string
	Category string
	UserName string
	Action   string
	From     *time.Time
	To       *time.Time
}
