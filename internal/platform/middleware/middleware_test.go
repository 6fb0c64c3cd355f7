package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/casebook/casebook/internal/platform/auth"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	if err := RequestID()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rid, _ := c.Get("request_id").(string)
	if rid == "" {
		t.Error("expected a generated request_id")
	}
	if rec.Header().Get("X-Request-ID") != rid {
		t.Error("expected X-Request-ID response header to match context value")
	}
}

func TestRequestID_HonorsIncomingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	if err := RequestID()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rid, _ := c.Get("request_id").(string); rid != "req-123" {
		t.Errorf("expected req-123, got %s", rid)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		panic("boom")
	}

	err := Recovery(zerolog.Nop())(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
}

func TestRateLimit_ExhaustsBurst(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	allowed := 0
	var lastErr error
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := mw(handler)(c); err != nil {
			lastErr = err
		} else {
			allowed++
		}
	}

	if allowed != 2 {
		t.Errorf("expected 2 allowed requests, got %d", allowed)
	}
	httpErr, ok := lastErr.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", lastErr)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
}

func TestRateLimit_SeparateKeys(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := mw(handler)(c); err != nil {
			t.Errorf("expected first request from %s to pass, got %v", ip, err)
		}
	}
}

func TestAudit_RecordsEntry(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/case-bookings/42/status", nil)
	ctx := req.Context()
	ctx = context.WithValue(ctx, auth.UserIDKey, "user-1")
	ctx = context.WithValue(ctx, auth.UserRoleKey, auth.RoleOperations)
	ctx = context.WithValue(ctx, auth.CountryKey, "Singapore")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "req-abc")

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	var got AuditEntry
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		got = entry
		return nil
	})

	if err := Audit(zerolog.Nop(), recorder)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", got.UserID)
	}
	if got.Country != "Singapore" {
		t.Errorf("expected Singapore, got %s", got.Country)
	}
	if got.Resource != "case-bookings" {
		t.Errorf("expected case-bookings, got %s", got.Resource)
	}
	if got.ResourceID != "42" {
		t.Errorf("expected resource id 42, got %s", got.ResourceID)
	}
	if got.Action != "update" {
		t.Errorf("expected update action, got %s", got.Action)
	}
	if got.RequestID != "req-abc" {
		t.Errorf("expected req-abc, got %s", got.RequestID)
	}
}

func TestAudit_SkipsNonAPIRoutes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	called := false
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		called = true
		return nil
	})

	if err := Audit(zerolog.Nop(), recorder)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("expected no audit entry for non-API route")
	}
}

func TestAudit_RecorderFailureDoesNotFailRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/case-bookings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		return context.DeadlineExceeded
	})

	if err := Audit(zerolog.Nop(), recorder)(handler)(c); err != nil {
		t.Errorf("recorder failure should not fail the request: %v", err)
	}
}

func TestSplitResourcePath(t *testing.T) {
	tests := []struct {
		path     string
		resource string
		id       string
	}{
		{"/api/v1/case-bookings", "case-bookings", ""},
		{"/api/v1/case-bookings/42", "case-bookings", "42"},
		{"/api/v1/case-bookings/42/status", "case-bookings", "42"},
		{"/api/v1/departments/7", "departments", "7"},
		{"/api/v1/", "", ""},
	}

	for _, tt := range tests {
		resource, id := splitResourcePath(tt.path)
		if resource != tt.resource || id != tt.id {
			t.Errorf("splitResourcePath(%q) = (%q, %q), want (%q, %q)",
				tt.path, resource, id, tt.resource, tt.id)
		}
	}
}
