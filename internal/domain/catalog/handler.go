package catalog

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
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
	// Read endpoints – every authenticated role (booking forms need them)
	readGroup := api.Group("", auth.RequireRole(
		auth.RoleAdmin, auth.RoleOperations, auth.RoleOperationsManager,
		auth.RoleSales, auth.RoleSalesManager, auth.RoleDriver, auth.RoleIT,
	))
	readGroup.GET("/departments", h.ListDepartments)
	readGroup.GET("/doctors", h.ListDoctors)
	readGroup.GET("/doctors/:id/procedures", h.ListDoctorProcedures)
	readGroup.GET("/doctors/:id/procedures/:type/selection", h.GetRecommendedSelection)
	readGroup.GET("/surgery-sets", h.ListSurgerySets)
	readGroup.GET("/implant-boxes", h.ListImplantBoxes)
	readGroup.GET("/code-tables/:list", h.ListCodeTable)

	// Maintenance – admin and operations managers
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleOperationsManager))
	writeGroup.POST("/departments", h.CreateDepartment)
	writeGroup.PUT("/departments/:id", h.UpdateDepartment)
	writeGroup.DELETE("/departments/:id", h.DeleteDepartment)
	writeGroup.POST("/doctors", h.CreateDoctor)
	writeGroup.PUT("/doctors/:id", h.UpdateDoctor)
	writeGroup.DELETE("/doctors/:id", h.DeleteDoctor)
	writeGroup.PUT("/doctors/:id/procedures", h.SaveDoctorProcedure)
	writeGroup.DELETE("/doctor-procedures/:id", h.DeleteDoctorProcedure)
	writeGroup.POST("/surgery-sets", h.CreateSurgerySet)
	writeGroup.PUT("/surgery-sets/:id", h.UpdateSurgerySet)
	writeGroup.DELETE("/surgery-sets/:id", h.DeleteSurgerySet)
	writeGroup.PUT("/surgery-sets/reorder", h.ReorderSurgerySets)
	writeGroup.POST("/implant-boxes", h.CreateImplantBox)
	writeGroup.PUT("/implant-boxes/:id", h.UpdateImplantBox)
	writeGroup.DELETE("/implant-boxes/:id", h.DeleteImplantBox)
	writeGroup.PUT("/implant-boxes/reorder", h.ReorderImplantBoxes)
	writeGroup.POST("/code-tables", h.SaveCodeTableEntry)
	writeGroup.DELETE("/code-tables/entries/:id", h.DeleteCodeTableEntry)
}

// scopedCountry resolves the country filter for the calling user: scoped
// roles are pinned to their own country, admin and IT may pass ?country=.
func scopedCountry(c echo.Context) string {
	ctx := c.Request().Context()
	if scoped := auth.ScopedCountry(auth.RoleFromContext(ctx), auth.CountryFromContext(ctx)); scoped != "" {
		return scoped
	}
	return c.QueryParam("country")
}

func activeOnly(c echo.Context) bool {
	return c.QueryParam("include_inactive") != "true"
}

// -- Departments --

func (h *Handler) CreateDepartment(c echo.Context) error {
	var d Department
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDepartment(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Department
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDepartment(c.Request().Context(), &d); err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDepartment(c.Request().Context(), id); err != nil {
		return catalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	items, err := h.svc.ListDepartments(c.Request().Context(), scopedCountry(c), activeOnly(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// -- Doctors --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDoctor(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDoctor(c.Request().Context(), &d); err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return catalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	items, err := h.svc.ListDoctors(c.Request().Context(), scopedCountry(c), c.QueryParam("department"), activeOnly(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// -- Doctor-procedure links --

func (h *Handler) SaveDoctorProcedure(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var dp DoctorProcedure
	if err := c.Bind(&dp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dp.DoctorID = doctorID
	if err := h.svc.SaveDoctorProcedure(c.Request().Context(), &dp); err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, dp)
}

func (h *Handler) ListDoctorProcedures(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListDoctorProcedures(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetRecommendedSelection(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sets, boxes, err := h.svc.RecommendedSelection(c.Request().Context(), doctorID, c.Param("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string][]string{
		"surgerySets":  sets,
		"implantBoxes": boxes,
	})
}

func (h *Handler) DeleteDoctorProcedure(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDoctorProcedure(c.Request().Context(), id); err != nil {
		return catalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Surgery sets --

func (h *Handler) CreateSurgerySet(c echo.Context) error {
	var s SurgerySet
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSurgerySet(c.Request().Context(), &s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) UpdateSurgerySet(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var s SurgerySet
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.ID = id
	if err := h.svc.UpdateSurgerySet(c.Request().Context(), &s); err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteSurgerySet(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSurgerySet(c.Request().Context(), id); err != nil {
		return catalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListSurgerySets(c echo.Context) error {
	items, err := h.svc.ListSurgerySets(c.Request().Context(), scopedCountry(c), activeOnly(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

type reorderRequest struct {
	Country    string      `json:"country"`
	OrderedIDs []uuid.UUID `json:"orderedIds"`
}

func (h *Handler) ReorderSurgerySets(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ReorderSurgerySets(c.Request().Context(), req.Country, req.OrderedIDs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Implant boxes --

func (h *Handler) CreateImplantBox(c echo.Context) error {
	var b ImplantBox
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateImplantBox(c.Request().Context(), &b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) UpdateImplantBox(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var b ImplantBox
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b.ID = id
	if err := h.svc.UpdateImplantBox(c.Request().Context(), &b); err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteImplantBox(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteImplantBox(c.Request().Context(), id); err != nil {
		return catalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListImplantBoxes(c echo.Context) error {
	items, err := h.svc.ListImplantBoxes(c.Request().Context(), scopedCountry(c), activeOnly(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ReorderImplantBoxes(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ReorderImplantBoxes(c.Request().Context(), req.Country, req.OrderedIDs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Code tables --

func (h *Handler) SaveCodeTableEntry(c echo.Context) error {
	var e CodeTableEntry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveCodeTableEntry(c.Request().Context(), &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListCodeTable(c echo.Context) error {
	items, err := h.svc.ListCodeTable(c.Request().Context(), c.Param("list"), scopedCountry(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DeleteCodeTableEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteCodeTableEntry(c.Request().Context(), id); err != nil {
		return catalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func catalogError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
