package leave

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

// Handler wires HTTP endpoints for leave management.
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

// MountRoutes registers leave routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(access.CompLeave))

		r.With(h.guard.RequireFeature(access.FeatLeaveApply)).Post("/", h.apply)
		r.Get("/employee/{employeeID}", h.history)
		r.With(h.guard.RequireFeature(access.FeatLeaveApprove)).Get("/pending", h.pending)
		r.With(h.guard.RequireFeature(access.FeatLeaveApprove)).Post("/{requestID}/approve", h.approve)
		r.With(h.guard.RequireFeature(access.FeatLeaveApprove)).Post("/{requestID}/reject", h.reject)
		r.Get("/{requestID}/trail", h.trail)
	})
}

type applyRequest struct {
	EmployeeID string `json:"employeeId" validate:"required,uuid4"`
	Type       string `json:"type" validate:"required,oneof=CASUAL SICK EARNED UNPAID"`
	FromDate   string `json:"fromDate" validate:"required"`
	ToDate     string `json:"toDate" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "employeeId must be a UUID")
		return
	}
	from, err := time.Parse("2006-01-02", req.FromDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "fromDate must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", req.ToDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "toDate must be YYYY-MM-DD")
		return
	}

	created, err := h.service.Apply(r.Context(), Request{
		EmployeeID: employeeID,
		Type:       req.Type,
		FromDate:   from,
		ToDate:     to,
		Reason:     req.Reason,
	}, h.actorID(r), r.Header.Get("Idempotency-Key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"request": created})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "employeeID must be a UUID")
		return
	}
	requests, err := h.service.History(r.Context(), employeeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.Pending(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": requests})
}

type decisionRequest struct {
	Note string `json:"note"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, int64, string) (Request, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "requestID must be a UUID")
		return
	}
	var req decisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	decided, err := fn(r.Context(), id, h.actorID(r), req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"request": decided})
}

func (h *Handler) trail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "requestID must be a UUID")
		return
	}
	logs, err := h.service.Trail(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"trail": logs})
}

func (h *Handler) actorID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
