package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CaseRepository is the storage contract for case bookings and their
// history, quantity, and counter sub-resources.
type CaseRepository interface {
	Create(ctx context.Context, cb *CaseBooking) error
	GetByID(ctx context.Context, id uuid.UUID) (*CaseBooking, error)
	// UpdateStatusGuarded writes status, processed_by/at and updated_at in a
	// single conditional update keyed on the previously observed updated_at.
	// It reports whether the guard matched; false means another writer got
	// there first.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, status CaseStatus, actor string, prevUpdatedAt, now time.Time) (bool, error)
	// UpdateAmended writes the amendable fields plus the amendment markers
	// (is_amended, amended_by, amended_at, updated_at) in one statement.
	UpdateAmended(ctx context.Context, cb *CaseBooking) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*CaseBooking, int, error)

	// Status history
	AddStatusHistory(ctx context.Context, e *StatusHistoryEntry) error
	ListStatusHistory(ctx context.Context, caseID uuid.UUID) ([]*StatusHistoryEntry, error)
	// CountRecentSameStatus counts history rows for the case with the given
	// status created after cutoff.
	CountRecentSameStatus(ctx context.Context, caseID uuid.UUID, status CaseStatus, cutoff time.Time) (int, error)
	// LatestStatusHistory returns the newest history row for the case, or
	// nil when none exists.
	LatestStatusHistory(ctx context.Context, caseID uuid.UUID) (*StatusHistoryEntry, error)

	// Amendments
	AddAmendment(ctx context.Context, e *AmendmentHistoryEntry) error
	ListAmendments(ctx context.Context, caseID uuid.UUID) ([]*AmendmentHistoryEntry, error)

	// Quantities
	ReplaceQuantities(ctx context.Context, caseID uuid.UUID, quantities []*CaseQuantity) error
	GetQuantities(ctx context.Context, caseID uuid.UUID) ([]*CaseQuantity, error)
}

// CounterRepository mints per-(country, year) reference sequences.
type CounterRepository interface {
	// NextSequence atomically increments and returns the counter for the
	// country/year pair, creating it at 1 when absent.
	NextSequence(ctx context.Context, country string, year int) (int, error)
}

// TxRunner runs a function inside a storage transaction. Repository calls
// made with the context it passes to fn join that transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
