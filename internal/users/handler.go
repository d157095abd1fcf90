package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

// Handler exposes the account administration API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     access.Guard
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard access.Guard, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		audit:     audit,
		validator: validator.New(),
	}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(access.CompAdmin))
		r.Get("/", h.list)
		r.Get("/{userID}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireFeature(access.FeatRolesManage))
			r.Put("/{userID}/role", h.assignRole)
			r.Put("/{userID}/status", h.setStatus)
		})
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": accounts})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userParam(w, r)
	if !ok {
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": account})
}

type assignRoleRequest struct {
	RoleID string `json:"roleId" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userParam(w, r)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.AssignRole(r.Context(), id, req.RoleID)
	if err != nil {
		if err == access.ErrRoleNotFound {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "user.assign-role", id, map[string]any{"role": account.RoleID})
	httpx.JSON(w, http.StatusOK, map[string]any{"user": account})
}

type setStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userParam(w, r)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.SetActive(r.Context(), id, *req.Active)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "user.set-status", id, map[string]any{"active": *req.Active})
	httpx.JSON(w, http.StatusOK, map[string]any{"user": account})
}

func (h *Handler) userParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid User", "userID must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) recordAudit(r *http.Request, action string, userID int64, meta map[string]any) {
	if h.audit == nil {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	var actorID int64
	if sess != nil {
		if id, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
			actorID = id
		}
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
