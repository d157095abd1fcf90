package rating

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

// Handler wires HTTP endpoints for peer ratings.
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

// MountRoutes registers rating routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(access.CompPeerRating))

		r.Post("/", h.submit)
		r.Get("/{employeeID}/summary", h.summary)
	})
}

type submitRequest struct {
	RaterID string `json:"raterId" validate:"required,uuid4"`
	RateeID string `json:"rateeId" validate:"required,uuid4"`
	Score   int    `json:"score" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	raterID, err := uuid.Parse(req.RaterID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "raterId must be a UUID")
		return
	}
	rateeID, err := uuid.Parse(req.RateeID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "rateeId must be a UUID")
		return
	}
	created, err := h.service.Submit(r.Context(), raterID, rateeID, req.Score, req.Comment)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"rating": created})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	rateeID, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "employeeID must be a UUID")
		return
	}
	now := time.Now().UTC()
	year := now.Year()
	month := int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		year, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("month"); v != "" {
		month, _ = strconv.Atoi(v)
	}
	summary, err := h.service.MonthSummary(r.Context(), rateeID, year, month)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"summary": summary})
}
