package queue

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/queue")
	g.GET("/current-patient", h.CurrentPatient, auth.RequireRole("physician"))
	g.GET("/waiting", h.ListWaiting, auth.RequireRole("physician", "registrar"))
	g.POST("/check-in", h.CheckIn, auth.RequireRole("registrar"))
}

func (h *Handler) CurrentPatient(c echo.Context) error {
	p, err := h.svc.ActivePatient(c.Request().Context())
	if errors.Is(err, ErrNoActivePatient) {
		return echo.NewHTTPError(http.StatusNotFound, "no active patient")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListWaiting(c echo.Context) error {
	entries, err := h.svc.ListWaiting(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) CheckIn(c echo.Context) error {
	var e Entry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CheckIn(c.Request().Context(), &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}
