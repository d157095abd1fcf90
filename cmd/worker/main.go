package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/helmsman-hr/helmsman/internal/access"
	"github.com/helmsman-hr/helmsman/internal/app"
	"github.com/helmsman-hr/helmsman/internal/attendance"
	jobmetrics "github.com/helmsman-hr/helmsman/internal/jobs"
	"github.com/helmsman-hr/helmsman/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := jobmetrics.NewMetrics(nil)

	levelStore := access.NewLevelStore(pool)
	roleStore := access.NewRoleStore(pool)
	cascader := access.NewCascader(roleStore, logger, nil)
	driftJob := jobs.NewDriftScanJob(levelStore, roleStore, cascader, logger, metrics)

	attendanceService := attendance.NewService(attendance.NewRepository(pool))
	digestJob := jobs.NewAttendanceDigestJob(attendanceService, logger, metrics)

	driftTask, err := jobs.NewDriftScanTask(jobs.DriftScanPayload{Repair: false})
	if err != nil {
		logger.Error("build drift task", slog.Any("error", err))
		os.Exit(1)
	}
	digestTask, err := jobs.NewAttendanceDigestTask(jobs.AttendanceDigestPayload{})
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAccessDriftScan, Handler: driftJob.Handle},
			{Type: jobs.TaskAttendanceDigest, Handler: digestJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 1 * * *", Task: driftTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 2 * * *", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
