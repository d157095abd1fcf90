package remuneration

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
)

// Handler wires HTTP endpoints for salary and payroll periods.
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

// MountRoutes registers remuneration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(access.CompSalary))

		r.With(h.guard.RequireFeature(access.FeatSalaryViewAll)).Get("/salary/{employeeID}", h.salary)
		r.With(h.guard.RequireFeature(access.FeatSalaryEdit)).Put("/salary/{employeeID}", h.setSalary)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(access.CompRemuneration))

		r.Post("/periods", h.openPeriod)
		r.Post("/periods/{periodID}/transition", h.transition)
	})
}

func (h *Handler) salary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeParam(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Salary(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"salary": rec, "gross": rec.Gross()})
}

type salaryRequest struct {
	BasicPay      int64  `json:"basicPay" validate:"required,gt=0"`
	HouseRent     int64  `json:"houseRent" validate:"gte=0"`
	Allowances    int64  `json:"allowances" validate:"gte=0"`
	VariablePct   int    `json:"variablePct" validate:"gte=0,lte=100"`
	EffectiveFrom string `json:"effectiveFrom"`
}

func (h *Handler) setSalary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeParam(w, r)
	if !ok {
		return
	}
	var req salaryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec := SalaryRecord{
		EmployeeID:  id,
		BasicPay:    req.BasicPay,
		HouseRent:   req.HouseRent,
		Allowances:  req.Allowances,
		VariablePct: req.VariablePct,
	}
	if req.EffectiveFrom != "" {
		from, err := time.Parse("2006-01-02", req.EffectiveFrom)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "effectiveFrom must be YYYY-MM-DD")
			return
		}
		rec.EffectiveFrom = from
	}
	created, err := h.service.SetSalary(r.Context(), rec)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"salary": created})
}

type openPeriodRequest struct {
	Year  int `json:"year" validate:"required,gte=2000"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}

func (h *Handler) openPeriod(w http.ResponseWriter, r *http.Request) {
	var req openPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.OpenPeriod(r.Context(), req.Year, req.Month)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"period": period})
}

type transitionRequest struct {
	Status   string `json:"status" validate:"required,oneof=OPEN CLOSED LOCKED"`
	Override bool   `json:"override"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "periodID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "periodID must be an integer")
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.TransitionPeriod(r.Context(), periodID, req.Status, req.Override)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"period": period})
}

func (h *Handler) employeeParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "employeeID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
