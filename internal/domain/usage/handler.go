package usage

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/casebook/casebook/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	group := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleOperations, auth.RoleOperationsManager,
		auth.RoleSalesManager, auth.RoleIT,
	))
	group.GET("/usage", h.QueryUsage)
	group.POST("/usage/recalculate", h.Recalculate)
}

func (h *Handler) QueryUsage(c echo.Context) error {
	ctx := c.Request().Context()

	from, err := time.Parse("2006-01-02", c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "from date is required (YYYY-MM-DD)")
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "to date is required (YYYY-MM-DD)")
	}

	country := auth.ScopedCountry(auth.RoleFromContext(ctx), auth.CountryFromContext(ctx))
	if country == "" {
		country = c.QueryParam("country")
	}

	items, err := h.svc.Query(ctx, country, c.QueryParam("department"), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Recalculate(c echo.Context) error {
	var req struct {
		Date       string `json:"date"`
		Country    string `json:"country"`
		Department string `json:"department"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	ctx := c.Request().Context()
	country := auth.ScopedCountry(auth.RoleFromContext(ctx), auth.CountryFromContext(ctx))
	if country == "" {
		country = req.Country
	}

	if err := h.svc.Recalculate(ctx, date, country, req.Department); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
