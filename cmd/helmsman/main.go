package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/app"
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

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "helmsman_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)
	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	metrics := observability.NewMetrics()

	levelStore := access.NewLevelStore(dbpool)
	roleStore := access.NewRoleStore(dbpool)
	cascader := access.NewCascader(roleStore, logger, metrics)
	levelService := access.NewLevelService(levelStore, roleStore, cascader, logger)
	roleService := access.NewRoleService(roleStore, levelStore, logger)
	decider := access.NewDecider(roleStore, logger)
	guard := access.Guard{Decider: decider, Logger: logger}
	accessHandler := access.NewHandler(logger, levelService, roleService, guard, auditLogger)

	usersService := users.NewService(users.NewRepository(dbpool), roleService)
	usersHandler := users.NewHandler(logger, usersService, guard, auditLogger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, roleService, sessionManager, csrfManager)

	employeesService := employees.NewService(employees.NewRepository(dbpool))
	employeesHandler := employees.NewHandler(logger, employeesService, guard)

	attendanceService := attendance.NewService(attendance.NewRepository(dbpool))
	attendanceHandler := attendance.NewHandler(logger, attendanceService, guard)

	leaveService := leave.NewService(leave.NewRepository(dbpool), approvalRecorder, idempotencyStore, logger)
	leaveHandler := leave.NewHandler(logger, leaveService, guard)

	remunerationService := remuneration.NewService(remuneration.NewRepository(dbpool), redisClient, logger)
	remunerationHandler := remuneration.NewHandler(logger, remunerationService, guard)

	ratingService := rating.NewService(rating.NewRepository(dbpool))
	ratingHandler := rating.NewHandler(logger, ratingService, guard)

	efilingHandler := efiling.NewHandler(logger, efiling.NewRepository(dbpool), guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobsClient, guard.RequireComponent(access.CompAdmin), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		AuthHandler:         authHandler,
		AccessHandler:       accessHandler,
		UsersHandler:        usersHandler,
		EmployeesHandler:    employeesHandler,
		AttendanceHandler:   attendanceHandler,
		LeaveHandler:        leaveHandler,
		RemunerationHandler: remunerationHandler,
		RatingHandler:       ratingHandler,
		EfilingHandler:      efilingHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
