package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(t *testing.T, query string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(newContext(t, ""))
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_ClampsLimit(t *testing.T) {
	p := FromContext(newContext(t, "limit=500"))
	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_ParsesValues(t *testing.T) {
	p := FromContext(newContext(t, "limit=50&offset=100"))
	if p.Limit != 50 || p.Offset != 100 {
		t.Errorf("expected (50, 100), got (%d, %d)", p.Limit, p.Offset)
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	r := NewResponse(nil, 100, 20, 60)
	if !r.HasMore {
		t.Error("expected HasMore true at offset 60 of 100")
	}

	r = NewResponse(nil, 100, 20, 80)
	if r.HasMore {
		t.Error("expected HasMore false at offset 80 of 100")
	}
}

func TestParams_Offsets(t *testing.T) {
	p := Params{Limit: 20, Offset: 30}
	if p.NextOffset() != 50 {
		t.Errorf("expected next offset 50, got %d", p.NextOffset())
	}
	if p.PreviousOffset() != 10 {
		t.Errorf("expected previous offset 10, got %d", p.PreviousOffset())
	}

	p = Params{Limit: 20, Offset: 10}
	if p.PreviousOffset() != 0 {
		t.Errorf("expected previous offset clamped to 0, got %d", p.PreviousOffset())
	}
}
