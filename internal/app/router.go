package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/attendance"
	"github.com/helmsman-hr/helmsman/internal/auth"
	"github.com/helmsman-hr/helmsman/internal/efiling"
	"github.com/helmsman-hr/helmsman/internal/employees"
	"github.com/helmsman-hr/helmsman/internal/leave"
	"github.com/helmsman-hr/helmsman/internal/observability"
	"github.com/helmsman-hr/helmsman/internal/rating"
	"github.com/helmsman-hr/helmsman/internal/remuneration"
	"github.com/helmsman-hr/helmsman/internal/shared"
	"github.com/helmsman-hr/helmsman/internal/users"
	"github.com/helmsman-hr/helmsman/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler         *auth.Handler
	AccessHandler       *access.Handler
	UsersHandler        *users.Handler
	EmployeesHandler    *employees.Handler
	AttendanceHandler   *attendance.Handler
	LeaveHandler        *leave.Handler
	RemunerationHandler *remuneration.Handler
	RatingHandler       *rating.Handler
	EfilingHandler      *efiling.Handler

	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router with Helmsman defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/admin/access", params.AccessHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/admin/users", params.UsersHandler.MountRoutes)
	}
	if params.EmployeesHandler != nil {
		r.Route("/employees", params.EmployeesHandler.MountRoutes)
	}
	if params.AttendanceHandler != nil {
		r.Route("/attendance", params.AttendanceHandler.MountRoutes)
	}
	if params.LeaveHandler != nil {
		r.Route("/leave", params.LeaveHandler.MountRoutes)
	}
	if params.RemunerationHandler != nil {
		r.Route("/remuneration", params.RemunerationHandler.MountRoutes)
	}
	if params.RatingHandler != nil {
		r.Route("/rating", params.RatingHandler.MountRoutes)
	}
	if params.EfilingHandler != nil {
		r.Route("/efiling", params.EfilingHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
