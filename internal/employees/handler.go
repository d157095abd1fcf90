package employees

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

// Handler wires HTTP endpoints for employee management.
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

// MountRoutes registers employee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(access.CompEmployees))

		r.With(h.guard.RequireFeature(access.FeatEmployeeViewAll)).Get("/", h.list)
		r.Get("/{employeeID}", h.get)
		r.With(h.guard.RequireFeature(access.FeatEmployeeCreate)).Post("/", h.create)
		r.With(h.guard.RequireFeature(access.FeatEmployeeEdit)).Put("/{employeeID}", h.update)
		r.With(h.guard.RequireFeature(access.FeatEmployeeDelete)).Delete("/{employeeID}", h.deactivate)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list employees", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"employees":  items,
		"pagination": pagination,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"employee": emp})
}

type employeeRequest struct {
	EmployeeNo  string `json:"employeeNo" validate:"required"`
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	RoleID      string `json:"roleId"`
	JoinDate    string `json:"joinDate"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	emp := Employee{
		EmployeeNo:  req.EmployeeNo,
		FullName:    req.FullName,
		Email:       req.Email,
		Department:  req.Department,
		Designation: req.Designation,
		RoleID:      req.RoleID,
	}
	if req.JoinDate != "" {
		joined, err := time.Parse("2006-01-02", req.JoinDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "joinDate must be YYYY-MM-DD")
			return
		}
		emp.JoinDate = joined
	}
	created, err := h.service.Create(r.Context(), emp)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"employee": created})
}

type employeeUpdateRequest struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	RoleID      string `json:"roleId"`
	Status      string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req employeeUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	status := req.Status
	if status == "" {
		status = StatusActive
	}
	updated, err := h.service.Update(r.Context(), Employee{
		ID:          id,
		FullName:    req.FullName,
		Email:       req.Email,
		Department:  req.Department,
		Designation: req.Designation,
		RoleID:      req.RoleID,
		Status:      status,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"employee": updated})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deactivated": true})
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "employeeID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
