package conversation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/conversations", auth.RequireRole("physician"))
	g.POST("", h.StartConversation)
	g.GET("", h.ListConversations)
	g.GET("/:id", h.GetConversation)
}

func (h *Handler) StartConversation(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	ref, err := h.svc.Start(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusCreated, ref)
}

func (h *Handler) ListConversations(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	recs, total, err := h.svc.repo.ListByDoctor(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if recs == nil {
		recs = []Record{}
	}
	return c.JSON(http.StatusOK, pagination.Response{
		Data:   recs,
		Total:  total,
		Limit:  pg.Limit,
		Offset: pg.Offset,
	})
}

type conversationDetail struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

func (h *Handler) GetConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	rec, err := h.svc.repo.GetByID(ctx, id)
	if errors.Is(err, ErrConversationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if rec.DoctorID != auth.DoctorIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "not your conversation")
	}

	msgs, err := h.svc.repo.ListMessages(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return c.JSON(http.StatusOK, conversationDetail{SessionID: rec.SessionID, Messages: msgs})
}
