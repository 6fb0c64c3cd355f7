package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
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
	// Read endpoints – every authenticated role
	readGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleOperations, auth.RoleOperationsManager,
		auth.RoleSales, auth.RoleSalesManager, auth.RoleDriver, auth.RoleIT,
	))
	readGroup.GET("/case-bookings", h.ListCases)
	readGroup.GET("/case-bookings/:id", h.GetCase)
	readGroup.GET("/case-bookings/:id/status-history", h.GetStatusHistory)
	readGroup.GET("/case-bookings/:id/amendments", h.GetAmendments)
	readGroup.GET("/case-bookings/:id/quantities", h.GetQuantities)

	// Booking creation – admin, operations, sales
	createGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleOperations, auth.RoleSales,
	))
	createGroup.POST("/case-bookings", h.CreateCase)

	// Status transitions – drivers move delivery statuses, so every
	// operational role can transition
	statusGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleOperations, auth.RoleOperationsManager,
		auth.RoleSales, auth.RoleSalesManager, auth.RoleDriver,
	))
	statusGroup.PATCH("/case-bookings/:id/status", h.UpdateStatus)

	// Amendments – admin, operations(-manager), sales(-manager)
	amendGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleOperations, auth.RoleOperationsManager,
		auth.RoleSales, auth.RoleSalesManager,
	))
	amendGroup.PUT("/case-bookings/:id/amend", h.AmendCase)

	// Deletion – admin only
	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.DELETE("/case-bookings/:id", h.DeleteCase)
}

type createCaseRequest struct {
	Hospital            string         `json:"hospital"`
	Department          string         `json:"department"`
	SurgeryDate         time.Time      `json:"surgeryDate"`
	ProcedureType       string         `json:"procedureType"`
	ProcedureName       string         `json:"procedureName"`
	DoctorID            *uuid.UUID     `json:"doctorId"`
	DoctorName          string         `json:"doctorName"`
	TimeOfProcedure     string         `json:"timeOfProcedure"`
	SpecialInstruction  string         `json:"specialInstruction"`
	SurgerySetSelection []string       `json:"surgerySetSelection"`
	ImplantBox          []string       `json:"implantBox"`
	Country             string         `json:"country"`
	Quantities          map[string]int `json:"quantities"`
}

func (h *Handler) CreateCase(c echo.Context) error {
	var req createCaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	country := req.Country
	// Non-admin callers book into their own country regardless of the body.
	if scoped := auth.ScopedCountry(auth.RoleFromContext(ctx), auth.CountryFromContext(ctx)); scoped != "" {
		country = scoped
	}

	cb := &CaseBooking{
		Hospital:            req.Hospital,
		Department:          req.Department,
		SurgeryDate:         req.SurgeryDate,
		ProcedureType:       req.ProcedureType,
		ProcedureName:       req.ProcedureName,
		DoctorID:            req.DoctorID,
		DoctorName:          req.DoctorName,
		TimeOfProcedure:     req.TimeOfProcedure,
		SpecialInstruction:  req.SpecialInstruction,
		SurgerySetSelection: req.SurgerySetSelection,
		ImplantBox:          req.ImplantBox,
		Country:             country,
	}
	if err := h.svc.CreateCase(ctx, cb, req.Quantities, auth.UserNameFromContext(ctx)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, cb)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cb, err := h.svc.GetCase(c.Request().Context(), id)
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, cb)
}

func (h *Handler) ListCases(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	filter := ListFilter{
		Status:      CaseStatus(c.QueryParam("status")),
		Department:  c.QueryParam("department"),
		DoctorName:  c.QueryParam("doctor"),
		SubmittedBy: c.QueryParam("submitted_by"),
	}
	if from := c.QueryParam("date_from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_from")
		}
		filter.DateFrom = &t
	}
	if to := c.QueryParam("date_to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_to")
		}
		filter.DateTo = &t
	}

	// Country scoping: scoped roles see only their own country; admin and
	// IT may filter explicitly.
	filter.Country = auth.ScopedCountry(auth.RoleFromContext(ctx), auth.CountryFromContext(ctx))
	if filter.Country == "" {
		filter.Country = c.QueryParam("country")
	}

	cases, total, err := h.svc.ListCases(ctx, filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(cases, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.UpdateStatus(ctx, id, req, auth.UserNameFromContext(ctx)); err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(req.Status)})
}

func (h *Handler) AmendCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req AmendmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.Amend(ctx, id, req, auth.UserNameFromContext(ctx)); err != nil {
		return caseError(err)
	}
	cb, err := h.svc.GetCase(ctx, id)
	if err != nil {
		return caseError(err)
	}
	return c.JSON(http.StatusOK, cb)
}

func (h *Handler) DeleteCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteCase(c.Request().Context(), id); err != nil {
		return caseError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetStatusHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	history, err := h.svc.GetStatusHistory(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) GetAmendments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	amendments, err := h.svc.GetAmendments(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, amendments)
}

func (h *Handler) GetQuantities(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	quantities, err := h.svc.GetQuantities(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, quantities)
}

// caseError maps service errors onto HTTP status codes.
func caseError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConcurrentUpdate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
