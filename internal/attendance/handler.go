package attendance

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
)

// Handler wires HTTP endpoints for attendance tracking.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     access.Guard
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard access.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(access.CompAttendance))

		r.With(h.guard.RequireFeature(access.FeatAttendanceMark)).Post("/check-in", h.checkIn)
		r.With(h.guard.RequireFeature(access.FeatAttendanceMark)).Post("/check-out", h.checkOut)
		r.Get("/{employeeID}", h.history)
		r.With(h.guard.RequireFeature(access.FeatAttendanceViewReports)).Get("/reports/daily", h.report)
	})
}

type markRequest struct {
	EmployeeID string `json:"employeeId" validate:"required,uuid4"`
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.decodeMark(w, r)
	if !ok {
		return
	}
	rec, err := h.service.CheckIn(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"record": rec})
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	id, ok := h.decodeMark(w, r)
	if !ok {
		return
	}
	rec, err := h.service.CheckOut(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "employeeID must be a UUID")
		return
	}
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	records, err := h.service.History(r.Context(), id, from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Report(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (h *Handler) decodeMark(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req markRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return uuid.Nil, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "employeeId must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) rangeParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	const layout = "2006-01-02"
	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	to := now
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(layout, v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(layout, v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	return from, to, true
}
