package encounter

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/consultation"
	"github.com/clinic/clinic/internal/domain/conversation"
	"github.com/clinic/clinic/internal/domain/queue"
	"github.com/clinic/clinic/internal/platform/ai"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	orch    *Orchestrator
	catalog consultation.CatalogRepository
}

func NewHandler(orch *Orchestrator, catalog consultation.CatalogRepository) *Handler {
	return &Handler{orch: orch, catalog: catalog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/encounter", auth.RequireRole("physician"))
	g.GET("/state", h.GetState)
	g.POST("/call-next", h.CallNext)
	g.POST("/messages", h.SendMessage)
	g.GET("/draft", h.GetDraft)
	g.POST("/draft/diagnosis", h.SetDiagnosis)
	g.POST("/draft/notes", h.SetNotes)
	g.POST("/draft/prescriptions", h.AddPrescriptionRow)
	g.DELETE("/draft/prescriptions/:index", h.RemovePrescriptionRow)
	g.PATCH("/draft/prescriptions/:index", h.UpdatePrescriptionRow)
	g.POST("/draft/services/toggle", h.ToggleService)
	g.POST("/draft/merge", h.MergeSuggestion)
	g.POST("/complete", h.Complete)

	api.GET("/encounters", h.ListCompleted, auth.RequireRole("physician", "registrar"))

	// The queue screen calls next through the same state machine.
	api.POST("/queue/call-next", h.CallNext, auth.RequireRole("physician"))
}

type stateResponse struct {
	State   State                `json:"state"`
	Patient *queue.ActivePatient `json:"patient,omitempty"`
}

func (h *Handler) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, stateResponse{
		State:   h.orch.State(),
		Patient: h.orch.Patient(),
	})
}

func (h *Handler) CallNext(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	p, err := h.orch.CallNext(c.Request().Context(), doctorID)
	switch {
	case errors.Is(err, queue.ErrNoPatientWaiting):
		return echo.NewHTTPError(http.StatusNotFound, "no patient waiting")
	case errors.Is(err, queue.ErrEncounterInProgress):
		return echo.NewHTTPError(http.StatusConflict, "encounter already in progress")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sess, err := h.orch.Session()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}

	turn, err := sess.Send(c.Request().Context(), req.Message)
	switch {
	case errors.Is(err, conversation.ErrSendInFlight):
		return echo.NewHTTPError(http.StatusConflict, "a message is already in flight")
	case errors.Is(err, ai.ErrUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "assistant unavailable")
	case errors.Is(err, conversation.ErrSessionCreate):
		return echo.NewHTTPError(http.StatusBadGateway, "could not open assistant session")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, turn)
}

func (h *Handler) GetDraft(c echo.Context) error {
	draft, err := h.orch.Draft()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}
	return c.JSON(http.StatusOK, draft.View())
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *Handler) SetDiagnosis(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	draft, err := h.orch.Draft()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}
	draft.SetDiagnosis(req.Text)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetNotes(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	draft, err := h.orch.Draft()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}
	draft.SetTreatmentNotes(req.Text)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddPrescriptionRow(c echo.Context) error {
	draft, err := h.orch.Draft()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}
	draft.AddPrescriptionRow()
	return c.JSON(http.StatusOK, draft.View())
}

func (h *Handler) RemovePrescriptionRow(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	draft, err := h.orch.Draft()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}
	if err := draft.RemovePrescriptionRow(index); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, draft.View())
}

type updateRowRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) UpdatePrescriptionRow(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	var req updateRowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	draft, err := h.orch.Draft()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}
	if err := draft.UpdatePrescriptionRow(index, req.Field, req.Value); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, draft.View())
}

type toggleServiceRequest struct {
	ServiceID uuid.UUID `json:"service_id"`
}

func (h *Handler) ToggleService(c echo.Context) error {
	var req toggleServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	draft, err := h.orch.Draft()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}

	svc, err := h.catalog.GetByID(c.Request().Context(), req.ServiceID)
	if errors.Is(err, consultation.ErrServiceNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "service not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	draft.ToggleService(consultation.SelectedService{
		ID:    svc.ID,
		Name:  svc.Name,
		Price: svc.Price,
	})
	return c.JSON(http.StatusOK, draft.View())
}

type mergeRequest struct {
	TurnID    uuid.UUID              `json:"turn_id"`
	Selection conversation.Selection `json:"selection"`
}

func (h *Handler) MergeSuggestion(c echo.Context) error {
	var req mergeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.orch.MergeSuggestion(req.TurnID, req.Selection)
	switch {
	case errors.Is(err, ErrNoEncounter):
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	case errors.Is(err, conversation.ErrTurnNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "turn not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	draft, err := h.orch.Draft()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	}
	return c.JSON(http.StatusOK, draft.View())
}

func (h *Handler) Complete(c echo.Context) error {
	enc, err := h.orch.Complete(c.Request().Context())
	switch {
	case errors.Is(err, ErrNoEncounter):
		return echo.NewHTTPError(http.StatusConflict, "no encounter in progress")
	case errors.Is(err, ErrSubmitInFlight):
		return echo.NewHTTPError(http.StatusConflict, "completion already in progress")
	case errors.Is(err, consultation.ErrEmptyDiagnosis):
		return echo.NewHTTPError(http.StatusBadRequest, "diagnosis is required")
	case errors.Is(err, ErrSubmissionFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, enc)
}

func (h *Handler) ListCompleted(c echo.Context) error {
	pg := pagination.FromContext(c)
	encs, total, err := h.orch.repo.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if encs == nil {
		encs = []Completed{}
	}
	return c.JSON(http.StatusOK, pagination.Response{
		Data:   encs,
		Total:  total,
		Limit:  pg.Limit,
		Offset: pg.Offset,
	})
}
