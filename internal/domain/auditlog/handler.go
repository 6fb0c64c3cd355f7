package auditlog

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/casebook/casebook/internal/platform/auth"
	"github.com/casebook/casebook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	group := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleIT))
	group.GET("/audit-logs", h.ListEntries)
	group.POST("/audit-logs/purge", h.Purge)
}

func (h *Handler) ListEntries(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	filter := Filter{
		Category: c.QueryParam("category"),
		UserName: c.QueryParam("user"),
		Action:   c.QueryParam("action"),
	}
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		filter.From = &t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		filter.To = &t
	}

	filter.Country = auth.ScopedCountry(auth.RoleFromContext(ctx), auth.CountryFromContext(ctx))
	if filter.Country == "" {
		filter.Country = c.QueryParam("country")
	}

	entries, total, err := h.svc.List(ctx, filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}

func (h *Handler) Purge(c echo.Context) error {
	removed, err := h.svc.Purge(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}
