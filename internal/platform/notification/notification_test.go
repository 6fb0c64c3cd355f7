package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTemplateEngine_Render(t *testing.T) {
	e := NewTemplateEngine()

	subject, body, err := e.Render("status-changed", map[string]string{
		"reference":    "TMC-SG-2026-001",
		"old_status":   "Case Booked",
		"new_status":   "Order Preparation",
		"processed_by": "Alex Tan",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Case TMC-SG-2026-001: Order Preparation" {
		t.Errorf("unexpected subject: %q", subject)
	}
	if !strings.Contains(body, "moved from Case Booked to Order Preparation") {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestTemplateEngine_MissingTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestTemplateEngine_UnmatchedPlaceholdersLeftAsIs(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render("case-amended", map[string]string{"reference": "TMC-SG-2026-002"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "{{amended_by}}") {
		t.Errorf("expected unmatched placeholder to survive, got %q", body)
	}
}

func TestManager_SendEmail(t *testing.T) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	mgr := NewNotificationManager(email, sms, NewTemplateEngine())

	n := &Notification{
		Type:      TypeEmail,
		Recipient: "ops@example.com",
		Subject:   "hello",
		Body:      "world",
	}
	if err := mgr.Send(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n.Status != "sent" {
		t.Errorf("expected sent status, got %s", n.Status)
	}
	if n.SentAt == nil {
		t.Error("expected SentAt to be set")
	}
	calls := email.Calls()
	if len(calls) != 1 || calls[0].To != "ops@example.com" {
		t.Errorf("unexpected email calls: %+v", calls)
	}
}

func TestManager_SendFailureRecorded(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	mgr := NewNotificationManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "ops@example.com"}
	if err := mgr.Send(context.Background(), n); err == nil {
		t.Fatal("expected send error")
	}
	if n.Status != "failed" {
		t.Errorf("expected failed status, got %s", n.Status)
	}
	if n.Error != "smtp down" {
		t.Errorf("unexpected error string: %s", n.Error)
	}
}

func TestManager_Retry(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	mgr := NewNotificationManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "ops@example.com"}
	_ = mgr.Send(context.Background(), n)

	email.ShouldFail = false
	if err := mgr.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("unexpected retry error: %v", err)
	}

	got, err := mgr.GetNotification(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "sent" {
		t.Errorf("expected sent after retry, got %s", got.Status)
	}

	// Retrying a sent notification should fail
	if err := mgr.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected error retrying a sent notification")
	}
}

func TestDispatcher_StatusChanged(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewNotificationManager(email, &MockSMSSender{}, NewTemplateEngine())
	d := NewDispatcher(mgr, zerolog.Nop(), []string{"ops@example.com"}, true)

	d.StatusChanged(context.Background(), CaseEvent{
		Reference: "TMC-SG-2026-003",
		OldStatus: "Case Booked",
		NewStatus: "Order Preparation",
		Actor:     "Alex Tan",
	})

	calls := email.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Subject, "TMC-SG-2026-003") {
		t.Errorf("unexpected subject: %q", calls[0].Subject)
	}
}

func TestDispatcher_CancelledUsesCancellationTemplate(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewNotificationManager(email, &MockSMSSender{}, NewTemplateEngine())
	d := NewDispatcher(mgr, zerolog.Nop(), []string{"ops@example.com"}, true)

	d.StatusChanged(context.Background(), CaseEvent{
		Reference: "TMC-SG-2026-004",
		OldStatus: "Case Booked",
		NewStatus: "Case Cancelled",
		Hospital:  "General Hospital",
		Reason:    "patient unavailable",
		Actor:     "Alex Tan",
	})

	calls := email.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Subject, "cancelled") {
		t.Errorf("expected cancellation subject, got %q", calls[0].Subject)
	}
	if !strings.Contains(calls[0].Body, "patient unavailable") {
		t.Errorf("expected reason in body, got %q", calls[0].Body)
	}
}

func TestDispatcher_DisabledIsNoOp(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewNotificationManager(email, &MockSMSSender{}, NewTemplateEngine())
	d := NewDispatcher(mgr, zerolog.Nop(), []string{"ops@example.com"}, false)

	d.CaseBooked(context.Background(), CaseEvent{Reference: "TMC-SG-2026-005"})

	if len(email.Calls()) != 0 {
		t.Error("disabled dispatcher should not send")
	}
}

func TestDispatcher_FailureDoesNotPanic(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	mgr := NewNotificationManager(email, &MockSMSSender{}, NewTemplateEngine())
	d := NewDispatcher(mgr, zerolog.Nop(), []string{"ops@example.com"}, true)

	d.CaseAmended(context.Background(), CaseEvent{Reference: "TMC-SG-2026-006", Changes: "Added: Set A"})
}
