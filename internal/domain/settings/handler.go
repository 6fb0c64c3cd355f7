package settings

import (
	"errors"
	"net/http"

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
	readGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleOperations, auth.RoleOperationsManager,
		auth.RoleSales, auth.RoleSalesManager, auth.RoleDriver, auth.RoleIT,
	))
	readGroup.GET("/settings", h.ListSettings)
	readGroup.GET("/settings/:key", h.GetSetting)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleIT))
	writeGroup.PUT("/settings/:key", h.SetSetting)
	writeGroup.DELETE("/settings/:key", h.DeleteSetting)
}

func (h *Handler) ListSettings(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetSetting(c echo.Context) error {
	setting, err := h.svc.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, setting)
}

func (h *Handler) SetSetting(c echo.Context) error {
	var body struct {
		Value interface{} `json:"value"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	setting, err := h.svc.Set(ctx, c.Param("key"), body.Value, auth.UserNameFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, setting)
}

func (h *Handler) DeleteSetting(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("key")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
