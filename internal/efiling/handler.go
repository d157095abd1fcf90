package efiling

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

// RepositoryPort defines data access methods for documents.
type RepositoryPort interface {
	Insert(ctx context.Context, doc Document) (Document, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler wires HTTP endpoints for employee document filing.
type Handler struct {
	logger    *slog.Logger
	repo      RepositoryPort
	guard     access.Guard
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort, guard access.Guard) *Handler {
	return &Handler{logger: logger, repo: repo, guard: guard, validator: validator.New()}
}

// MountRoutes registers efiling routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(access.CompEFiling))

		r.Post("/", h.file)
		r.Get("/employee/{employeeID}", h.list)
		r.Delete("/{documentID}", h.remove)
	})
}

type fileRequest struct {
	EmployeeID  string `json:"employeeId" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required"`
	Category    string `json:"category" validate:"required"`
	StoragePath string `json:"storagePath" validate:"required"`
}

func (h *Handler) file(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
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
	doc, err := h.repo.Insert(r.Context(), Document{
		ID:          uuid.New(),
		EmployeeID:  employeeID,
		Title:       strings.TrimSpace(req.Title),
		Category:    req.Category,
		StoragePath: req.StoragePath,
		UploadedBy:  h.actorID(r),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"document": doc})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "employeeID must be a UUID")
		return
	}
	docs, err := h.repo.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "documentID must be a UUID")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) actorID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
