package booking

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/casebook/casebook/internal/platform/notification"
)

// Auditor records booking actions in the audit trail. Recording is
// best-effort; the service logs failures and never propagates them.
type Auditor interface {
	RecordCaseAction(ctx context.Context, action, target, details string, country, department string) error
}

// Notifier announces booking lifecycle events. Implemented by
// notification.Dispatcher; calls never fail the write path.
type Notifier interface {
	CaseBooked(ctx context.Context, ev notification.CaseEvent)
	StatusChanged(ctx context.Context, ev notification.CaseEvent)
	CaseAmended(ctx context.Context, ev notification.CaseEvent)
}

// UsageRecalculator rebuilds usage aggregates after a quantity-affecting
// amendment. Best-effort collaborator.
type UsageRecalculator interface {
	Recalculate(ctx context.Context, usageDate time.Time, country, department string) error
}

// AmendmentRequest carries the partial edits of an amendment. Nil pointers
// mean "leave unchanged"; Quantities, when non-nil, is diffed against stored
// per-item quantities (absent items default to 1).
type AmendmentRequest struct {
	Hospital            *string        `json:"hospital,omitempty"`
	Department          *string        `json:"department,omitempty"`
	SurgeryDate         *time.Time     `json:"surgeryDate,omitempty"`
	ProcedureType       *string        `json:"procedureType,omitempty"`
	ProcedureName       *string        `json:"procedureName,omitempty"`
	DoctorID            *uuid.UUID     `json:"doctorId,omitempty"`
	DoctorName          *string        `json:"doctorName,omitempty"`
	TimeOfProcedure     *string        `json:"timeOfProcedure,omitempty"`
	SpecialInstruction  *string        `json:"specialInstruction,omitempty"`
	SurgerySetSelection []string       `json:"surgerySetSelection,omitempty"`
	ImplantBox          []string       `json:"implantBox,omitempty"`
	Quantities          map[string]int `json:"quantities,omitempty"`
	Reason              string         `json:"reason,omitempty"`
}

// StatusUpdateRequest carries a status transition.
type StatusUpdateRequest struct {
	Status      CaseStatus `json:"status"`
	Details     string     `json:"details,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
}

// Service orchestrates the case write path: creation, status transitions,
// amendments, and the reads around them. All collaborators are injected.
type Service struct {
	cases    CaseRepository
	counters CounterRepository
	tx       TxRunner
	auditor  Auditor
	notifier Notifier
	usage    UsageRecalculator
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(cases CaseRepository, counters CounterRepository, tx TxRunner, auditor Auditor, notifier Notifier, usage UsageRecalculator, logger zerolog.Logger) *Service {
	return &Service{
		cases:    cases,
		counters: counters,
		tx:       tx,
		auditor:  auditor,
		notifier: notifier,
		usage:    usage,
		logger:   logger,
		now:      time.Now,
	}
}

// -- Creation --

// CreateCase validates the booking, mints its reference number, and writes
// the case row, its initial history row, and its quantity rows in one
// transaction. Audit and notification run after commit, best-effort.
func (s *Service) CreateCase(ctx context.Context, cb *CaseBooking, quantities map[string]int, actor string) error {
	if cb.Hospital == "" {
		return fmt.Errorf("hospital is required")
	}
	if cb.Department == "" {
		return fmt.Errorf("department is required")
	}
	if cb.SurgeryDate.IsZero() {
		return fmt.Errorf("surgery date is required")
	}
	if cb.ProcedureType == "" {
		return fmt.Errorf("procedure type is required")
	}
	if cb.Country == "" {
		return fmt.Errorf("country is required")
	}

	now := s.now().UTC()
	cb.Status = StatusCaseBooked
	cb.SubmittedBy = actor
	cb.SubmittedAt = now
	cb.CreatedAt = now
	cb.UpdatedAt = now

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		seq, err := s.counters.NextSequence(ctx, cb.Country, now.Year())
		if err != nil {
			return fmt.Errorf("mint reference number: %w", err)
		}
		cb.ReferenceNumber = FormatReference(cb.Country, now.Year(), seq)

		if err := s.cases.Create(ctx, cb); err != nil {
			return fmt.Errorf("insert case: %w", err)
		}

		if err := s.cases.AddStatusHistory(ctx, &StatusHistoryEntry{
			CaseID:      cb.ID,
			Status:      StatusCaseBooked,
			Timestamp:   now,
			ProcessedBy: actor,
			Details:     "Case created",
		}); err != nil {
			return fmt.Errorf("insert initial history: %w", err)
		}

		return s.cases.ReplaceQuantities(ctx, cb.ID, buildQuantities(cb, quantities))
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "case_created", cb.ReferenceNumber,
		fmt.Sprintf("Case booked for %s on %s", cb.Hospital, cb.SurgeryDate.Format("2006-01-02")),
		cb.Country, cb.Department)
	s.notifier.CaseBooked(ctx, notification.CaseEvent{
		Reference:   cb.ReferenceNumber,
		Hospital:    cb.Hospital,
		Department:  cb.Department,
		SurgeryDate: cb.SurgeryDate.Format("2006-01-02"),
		Actor:       actor,
	})
	return nil
}

// FormatReference renders a case reference number.
func FormatReference(country string, year, seq int) string {
	return fmt.Sprintf("TMC-%s-%d-%03d", country, year, seq)
}

// buildQuantities resolves the quantity rows implied by the case's current
// selection. Items missing from the supplied map default to quantity 1.
func buildQuantities(cb *CaseBooking, quantities map[string]int) []*CaseQuantity {
	var rows []*CaseQuantity
	appendRows := func(names []string, itemType string) {
		for _, name := range names {
			qty := 1
			if q, ok := quantities[name]; ok && q > 0 {
				qty = q
			}
			rows = append(rows, &CaseQuantity{ItemType: itemType, ItemName: name, Quantity: qty})
		}
	}
	appendRows(cb.SurgerySetSelection, ItemTypeSurgerySet)
	appendRows(cb.ImplantBox, ItemTypeImplantBox)
	return rows
}

// -- Status transition --

// UpdateStatus transitions a case to a new status. Same-status calls are
// idempotent no-ops. The case-row update and the history insert run in one
// transaction; the update is guarded on the previously read updated_at, and
// a guard miss surfaces ErrConcurrentUpdate with nothing written. The
// history insert is skipped when a same-status row exists within the last
// 30 seconds or any row exists within the last 5 seconds.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req StatusUpdateRequest, actor string) error {
	if !req.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", req.Status)
	}

	cb, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if cb.Status == req.Status {
		// Idempotent no-op.
		return nil
	}

	now := s.now().UTC()
	oldStatus := cb.Status

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		matched, err := s.cases.UpdateStatusGuarded(ctx, id, req.Status, actor, cb.UpdatedAt, now)
		if err != nil {
			return fmt.Errorf("update case status: %w", err)
		}
		if !matched {
			return ErrConcurrentUpdate
		}

		suppressed, err := s.historySuppressed(ctx, id, req.Status, now)
		if err != nil {
			return err
		}
		if suppressed {
			return nil
		}

		return s.cases.AddStatusHistory(ctx, &StatusHistoryEntry{
			CaseID:      id,
			Status:      req.Status,
			Timestamp:   now,
			ProcessedBy: actor,
			Details:     NormalizeOrderDetails(req.Details),
			Attachments: req.Attachments,
		})
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "status_changed", cb.ReferenceNumber,
		fmt.Sprintf("%s -> %s", oldStatus, req.Status), cb.Country, cb.Department)
	s.notifier.StatusChanged(ctx, notification.CaseEvent{
		Reference: cb.ReferenceNumber,
		Hospital:  cb.Hospital,
		OldStatus: string(oldStatus),
		NewStatus: string(req.Status),
		Actor:     actor,
		Reason:    NormalizeOrderDetails(req.Details),
	})
	return nil
}

// historySuppressed applies the duplicate-suppression rules: a same-status
// row within the 30s window, or any row within the 5s window, suppresses the
// insert. The windows stay separate constants; the combined check covers
// both observed behaviors in one pass.
func (s *Service) historySuppressed(ctx context.Context, caseID uuid.UUID, status CaseStatus, now time.Time) (bool, error) {
	count, err := s.cases.CountRecentSameStatus(ctx, caseID, status, now.Add(-sameStatusWindow))
	if err != nil {
		return false, fmt.Errorf("check duplicate history: %w", err)
	}
	if count > 0 {
		return true, nil
	}

	latest, err := s.cases.LatestStatusHistory(ctx, caseID)
	if err != nil {
		return false, fmt.Errorf("check latest history: %w", err)
	}
	if latest != nil && now.Sub(latest.Timestamp) < anyStatusWindow {
		return true, nil
	}
	return false, nil
}

// -- Amendment --

// Amend applies a partial edit to a case. Only fields that actually differ
// are staged; list fields diff as sets and quantities diff against stored
// rows (absent means 1). A diff with zero change records is a no-op. All
// writes share one timestamp and one transaction; usage recalculation and
// audit run afterwards, best-effort.
func (s *Service) Amend(ctx context.Context, id uuid.UUID, req AmendmentRequest, actor string) error {
	cb, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return err
	}

	storedQty, err := s.cases.GetQuantities(ctx, id)
	if err != nil {
		return fmt.Errorf("load quantities: %w", err)
	}

	var changes []ChangeRecord
	staged := *cb
	selectionChanged := false

	stageString := func(field string, current *string, proposed *string) {
		if proposed != nil && *proposed != *current {
			changes = append(changes, ChangeRecord{Field: field, OldValue: *current, NewValue: *proposed})
			*current = *proposed
		}
	}

	stageString("Hospital", &staged.Hospital, req.Hospital)
	stageString("Department", &staged.Department, req.Department)
	if req.SurgeryDate != nil && !req.SurgeryDate.Equal(staged.SurgeryDate) {
		changes = append(changes, ChangeRecord{
			Field:    "Surgery Date",
			OldValue: staged.SurgeryDate.Format("2006-01-02"),
			NewValue: req.SurgeryDate.Format("2006-01-02"),
		})
		staged.SurgeryDate = *req.SurgeryDate
	}
	stageString("Procedure Type", &staged.ProcedureType, req.ProcedureType)
	stageString("Procedure Name", &staged.ProcedureName, req.ProcedureName)
	if req.DoctorName != nil && *req.DoctorName != staged.DoctorName {
		changes = append(changes, ChangeRecord{Field: "Doctor", OldValue: staged.DoctorName, NewValue: *req.DoctorName})
		staged.DoctorName = *req.DoctorName
		staged.DoctorID = req.DoctorID
	}
	stageString("Time of Procedure", &staged.TimeOfProcedure, req.TimeOfProcedure)
	stageString("Special Instruction", &staged.SpecialInstruction, req.SpecialInstruction)

	if req.SurgerySetSelection != nil {
		if summary, changed := diffSelection(staged.SurgerySetSelection, req.SurgerySetSelection); changed {
			changes = append(changes, ChangeRecord{
				Field:    "Surgery Set Selection",
				OldValue: strings.Join(staged.SurgerySetSelection, ", "),
				NewValue: summary,
			})
			staged.SurgerySetSelection = req.SurgerySetSelection
			selectionChanged = true
		}
	}
	if req.ImplantBox != nil {
		if summary, changed := diffSelection(staged.ImplantBox, req.ImplantBox); changed {
			changes = append(changes, ChangeRecord{
				Field:    "Implant Box",
				OldValue: strings.Join(staged.ImplantBox, ", "),
				NewValue: summary,
			})
			staged.ImplantBox = req.ImplantBox
			selectionChanged = true
		}
	}

	quantityChanges := diffQuantities(storedQty, req.Quantities, staged.SurgerySetSelection, staged.ImplantBox)
	changes = append(changes, quantityChanges...)
	quantitiesChanged := selectionChanged || len(quantityChanges) > 0

	if len(changes) == 0 {
		// Idempotent no-op.
		return nil
	}

	now := s.now().UTC()
	staged.IsAmended = true
	staged.AmendedBy = actor
	staged.AmendedAt = &now

	reason := req.Reason
	if reason == "" {
		reason = "Case amended"
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.cases.UpdateAmended(ctx, &staged); err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		if quantitiesChanged {
			if err := s.cases.ReplaceQuantities(ctx, id, buildQuantities(&staged, req.Quantities)); err != nil {
				return fmt.Errorf("replace quantities: %w", err)
			}
		}
		return s.cases.AddAmendment(ctx, &AmendmentHistoryEntry{
			CaseID:    id,
			AmendedBy: actor,
			Timestamp: now,
			Reason:    reason,
			Changes:   changes,
		})
	})
	if err != nil {
		return err
	}

	if quantitiesChanged && s.usage != nil {
		if err := s.usage.Recalculate(ctx, staged.SurgeryDate, staged.Country, staged.Department); err != nil {
			s.logger.Warn().Err(err).Str("reference", cb.ReferenceNumber).Msg("usage recalculation failed")
		}
	}
	s.audit(ctx, "case_amended", cb.ReferenceNumber, summarizeChanges(changes), cb.Country, staged.Department)
	s.notifier.CaseAmended(ctx, notification.CaseEvent{
		Reference: cb.ReferenceNumber,
		Actor:     actor,
		Changes:   summarizeChanges(changes),
	})
	return nil
}

// diffSelection compares two name lists as sets and renders the difference
// as "Added: X; Removed: Y".
func diffSelection(current, proposed []string) (string, bool) {
	currentSet := make(map[string]bool, len(current))
	for _, name := range current {
		currentSet[name] = true
	}
	proposedSet := make(map[string]bool, len(proposed))
	for _, name := range proposed {
		proposedSet[name] = true
	}

	var added, removed []string
	for _, name := range proposed {
		if !currentSet[name] {
			added = append(added, name)
		}
	}
	for _, name := range current {
		if !proposedSet[name] {
			removed = append(removed, name)
		}
	}
	if len(added) == 0 && len(removed) == 0 {
		return "", false
	}

	var parts []string
	if len(added) > 0 {
		parts = append(parts, "Added: "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "Removed: "+strings.Join(removed, ", "))
	}
	return strings.Join(parts, "; "), true
}

// diffQuantities compares a proposed quantity map against stored rows.
// Items absent from either side carry the implicit default quantity 1.
// Only items present in the staged selection produce change records.
func diffQuantities(stored []*CaseQuantity, proposed map[string]int, sets, boxes []string) []ChangeRecord {
	if proposed == nil {
		return nil
	}

	storedByName := make(map[string]int, len(stored))
	for _, q := range stored {
		storedByName[q.ItemName] = q.Quantity
	}

	selected := make([]string, 0, len(sets)+len(boxes))
	selected = append(selected, sets...)
	selected = append(selected, boxes...)
	sort.Strings(selected)

	var changes []ChangeRecord
	for _, name := range selected {
		oldQty, ok := storedByName[name]
		if !ok {
			oldQty = 1
		}
		newQty, ok := proposed[name]
		if !ok || newQty <= 0 {
			newQty = 1
		}
		if oldQty != newQty {
			changes = append(changes, ChangeRecord{
				Field:    name + " Quantity",
				OldValue: strconv.Itoa(oldQty),
				NewValue: strconv.Itoa(newQty),
			})
		}
	}
	return changes
}

func summarizeChanges(changes []ChangeRecord) string {
	parts := make([]string, 0, len(changes))
	for _, ch := range changes {
		parts = append(parts, ch.Field)
	}
	return strings.Join(parts, ", ")
}

// -- Reads and delete --

func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*CaseBooking, error) {
	return s.cases.GetByID(ctx, id)
}

// ListCases returns cases scoped by the filter. Callers outside the admin
// and IT roles must set filter.Country from their claims; the handler does
// this via auth.ScopedCountry.
func (s *Service) ListCases(ctx context.Context, filter ListFilter, limit, offset int) ([]*CaseBooking, int, error) {
	return s.cases.List(ctx, filter, limit, offset)
}

func (s *Service) GetStatusHistory(ctx context.Context, caseID uuid.UUID) ([]*StatusHistoryEntry, error) {
	return s.cases.ListStatusHistory(ctx, caseID)
}

func (s *Service) GetAmendments(ctx context.Context, caseID uuid.UUID) ([]*AmendmentHistoryEntry, error) {
	return s.cases.ListAmendments(ctx, caseID)
}

func (s *Service) GetQuantities(ctx context.Context, caseID uuid.UUID) ([]*CaseQuantity, error) {
	return s.cases.GetQuantities(ctx, caseID)
}

// DeleteCase removes a case and, via cascade, its history and quantity rows.
// Admin only; the route guard enforces the role.
func (s *Service) DeleteCase(ctx context.Context, id uuid.UUID) error {
	cb, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.cases.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, "case_deleted", cb.ReferenceNumber, "Case deleted", cb.Country, cb.Department)
	return nil
}

func (s *Service) audit(ctx context.Context, action, target, details, country, department string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.RecordCaseAction(ctx, action, target, details, country, department); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Str("target", target).Msg("audit record failed")
	}
}
