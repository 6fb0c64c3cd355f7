package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newHandlerFixture() (*Handler, *serviceFixture) {
	f := newServiceFixture()
	return NewHandler(f.svc), f
}

func TestHandler_GetCase_NotFound(t *testing.T) {
	h, _ := newHandlerFixture()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetCase(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHandler_GetCase_InvalidID(t *testing.T) {
	h, _ := newHandlerFixture()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetCase(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandler_UpdateStatus_ConflictMapsTo409(t *testing.T) {
	h, f := newHandlerFixture()
	cb := newBookedCase(t, f)
	f.repo.failGuard = true

	e := echo.New()
	body := `{"status":"Order Preparation"}`
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(cb.ID.String())

	err := h.UpdateStatus(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("err = %v, want 409", err)
	}
}

func TestHandler_CreateCase(t *testing.T) {
	h, _ := newHandlerFixture()

	e := echo.New()
	body := `{
		"hospital": "General Hospital",
		"department": "Orthopedics",
		"surgeryDate": "2025-06-15T00:00:00Z",
		"procedureType": "Knee Replacement",
		"country": "SG",
		"surgerySetSelection": ["Knee Set A"],
		"quantities": {"Knee Set A": 2}
	}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateCase(c); err != nil {
		t.Fatalf("CreateCase failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var got CaseBooking
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got.ReferenceNumber == "" {
		t.Error("response missing reference number")
	}
	if got.Status != StatusCaseBooked {
		t.Errorf("status = %q", got.Status)
	}
}

func TestHandler_AmendCase_NotFound(t *testing.T) {
	h, _ := newHandlerFixture()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"hospital":"X"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.AmendCase(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}
