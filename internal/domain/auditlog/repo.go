package auditlog

import (
	"context"
	"time"
)

// Repository is the storage contract for the audit trail.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error)
	// PurgeBefore deletes entries older than cutoff and returns how many
	// rows were removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
