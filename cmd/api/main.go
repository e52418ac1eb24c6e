package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpapi "github.com/spec-kit/civic-service/internal/api/http"
	"github.com/spec-kit/civic-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-service/internal/auth"
	"github.com/spec-kit/civic-service/internal/config"
	"github.com/spec-kit/civic-service/internal/events"
	"github.com/spec-kit/civic-service/internal/identifier"
	"github.com/spec-kit/civic-service/internal/observability"
	"github.com/spec-kit/civic-service/internal/persistence"
	"github.com/spec-kit/civic-service/internal/repository"
	"github.com/spec-kit/civic-service/internal/service"
	"github.com/spec-kit/civic-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	rd := persistence.NewRedis(cfg.Redis, logger)
	defer rd.Close()

	pool := pg.PoolHandle()
	grievanceRepo := repository.NewGrievanceRepository(pool)
	settlementRepo := repository.NewSettlementRepository(pool)
	citizenRepo := repository.NewCitizenRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	var sequencer identifier.Sequencer
	switch {
	case rd.Ping(ctx) == nil:
		sequencer = persistence.NewRedisSequencer(rd.Client)
		logger.Info("using redis sequencer")
	case pool != nil:
		sequencer = repository.NewSequenceRepository(pool)
		logger.Info("using postgres sequencer")
	default:
		sequencer = identifier.NewMemorySequencer()
		logger.Warn("using in-memory sequencer; numbers reset on restart")
	}
	numbers := identifier.NewGenerator(sequencer)

	dispatcher := events.NewInMemoryDispatcher()

	grievanceService := service.NewGrievanceService(service.GrievanceDependencies{
		GrievanceRepo: grievanceRepo,
		Numbers:       numbers,
		Dispatcher:    dispatcher,
	})
	settlementService := service.NewSettlementService(service.SettlementDependencies{
		SettlementRepo: settlementRepo,
		Numbers:        numbers,
		Dispatcher:     dispatcher,
	})
	reportService := service.NewReportService(grievanceRepo, settlementRepo)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CitizenRepo: citizenRepo,
		StaffRepo:   staffRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), citizenRepo, staffRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httpapi.RegisterMiddlewares(app, cfg, logger, metrics)
	httpapi.RegisterRoutes(app, httpapi.RouteConfig{
		Accounts:        handlers.NewAccountsHandler(authService),
		Grievances:      handlers.NewGrievancesHandler(grievanceService),
		StaffGrievances: handlers.NewStaffGrievancesHandler(grievanceService, reportService),
		Settlements:     handlers.NewSettlementsHandler(settlementService),
		Health:          handlers.NewHealthHandler(cfg.App.Version, pg, rd),
		AuthMiddleware:  authMiddleware,
	})

	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
