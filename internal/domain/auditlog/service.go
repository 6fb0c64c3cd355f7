package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/casebook/casebook/internal/platform/auth"
	"github.com/casebook/casebook/internal/platform/middleware"
)

// DefaultRetentionDays is how long audit entries are kept unless configured
// otherwise.
const DefaultRetentionDays = 365

// Service appends to and queries the audit trail. It doubles as the concrete
// recorder behind the booking service's audit hook and the HTTP access-audit
// middleware.
type Service struct {
	repo          Repository
	logger        zerolog.Logger
	retentionDays int
}

func NewService(repo Repository, retentionDays int, logger zerolog.Logger) *Service {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Service{repo: repo, logger: logger, retentionDays: retentionDays}
}

// Record appends an entry, filling defaults.
func (s *Service) Record(ctx context.Context, e *Entry) error {
	if e.Action == "" {
		return fmt.Errorf("action is required")
	}
	if e.Category == "" {
		e.Category = CategorySystem
	}
	if e.Status == "" {
		e.Status = StatusSuccess
	}
	return s.repo.Append(ctx, e)
}

// RecordCaseAction satisfies the booking service's audit hook. The actor is
// taken from the request context the booking handler propagated.
func (s *Service) RecordCaseAction(ctx context.Context, action, target, details string, country, department string) error {
	return s.Record(ctx, &Entry{
		UserName:   auth.UserNameFromContext(ctx),
		UserID:     auth.UserIDFromContext(ctx),
		UserRole:   auth.RoleFromContext(ctx),
		Action:     action,
		Category:   CategoryCaseBooking,
		Target:     target,
		Details:    details,
		Country:    country,
		Department: department,
	})
}

// RecordAccess satisfies middleware.AuditRecorder, persisting HTTP access
// entries from the audit middleware.
func (s *Service) RecordAccess(entry middleware.AuditEntry) error {
	status := StatusSuccess
	if entry.StatusCode >= 400 {
		status = StatusFailure
	}
	target := entry.Resource
	if entry.ResourceID != "" {
		target = entry.Resource + "/" + entry.ResourceID
	}
	return s.repo.Append(context.Background(), &Entry{
		Timestamp: entry.Timestamp,
		UserName:  entry.UserName,
		UserID:    entry.UserID,
		UserRole:  entry.UserRole,
		Action:    entry.Action,
		Category:  CategorySecurity,
		Target:    target,
		Status:    status,
		Country:   entry.Country,
		Metadata: map[string]interface{}{
			"method":     entry.Method,
			"path":       entry.Path,
			"ip":         entry.IPAddress,
			"userAgent":  entry.UserAgent,
			"requestId":  entry.RequestID,
			"statusCode": entry.StatusCode,
		},
	})
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Purge removes entries older than the retention window.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	removed, err := s.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("purged audit entries")
	}
	return removed, nil
}
