package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// CaseEvent carries the template data for a booking lifecycle notification.
type CaseEvent struct {
	Reference   string
	Hospital    string
	Department  string
	SurgeryDate string
	OldStatus   string
	NewStatus   string
	Actor       string
	Changes     string
	Reason      string
}

// Dispatcher sends booking lifecycle notifications to a fixed recipient list.
// Delivery is best-effort: failures are logged and never surfaced to the
// caller, so a notification outage cannot fail a booking write.
type Dispatcher struct {
	manager    *NotificationManager
	logger     zerolog.Logger
	recipients []string
	enabled    bool
}

// NewDispatcher constructs a Dispatcher. With enabled false every call is a
// no-op, which is how deployments without SMTP credentials run.
func NewDispatcher(mgr *NotificationManager, logger zerolog.Logger, recipients []string, enabled bool) *Dispatcher {
	return &Dispatcher{
		manager:    mgr,
		logger:     logger,
		recipients: recipients,
		enabled:    enabled,
	}
}

// CaseBooked announces a newly created booking.
func (d *Dispatcher) CaseBooked(ctx context.Context, ev CaseEvent) {
	d.dispatch(ctx, "case-booked", map[string]string{
		"reference":    ev.Reference,
		"hospital":     ev.Hospital,
		"department":   ev.Department,
		"surgery_date": ev.SurgeryDate,
		"submitted_by": ev.Actor,
	})
}

// StatusChanged announces a status transition.
func (d *Dispatcher) StatusChanged(ctx context.Context, ev CaseEvent) {
	templateID := "status-changed"
	data := map[string]string{
		"reference":    ev.Reference,
		"old_status":   ev.OldStatus,
		"new_status":   ev.NewStatus,
		"processed_by": ev.Actor,
	}
	if ev.NewStatus == "Case Cancelled" {
		templateID = "case-cancelled"
		data["hospital"] = ev.Hospital
		data["reason"] = ev.Reason
	}
	d.dispatch(ctx, templateID, data)
}

// CaseAmended announces an amendment with its change summary.
func (d *Dispatcher) CaseAmended(ctx context.Context, ev CaseEvent) {
	d.dispatch(ctx, "case-amended", map[string]string{
		"reference":  ev.Reference,
		"amended_by": ev.Actor,
		"changes":    ev.Changes,
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, templateID string, data map[string]string) {
	if !d.enabled || d.manager == nil {
		return
	}
	for _, recipient := range d.recipients {
		if _, err := d.manager.SendFromTemplate(ctx, templateID, data, recipient); err != nil {
			d.logger.Warn().Err(err).
				Str("template", templateID).
				Str("recipient", recipient).
				Msg("notification delivery failed")
		}
	}
}
