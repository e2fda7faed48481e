package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/district-helpdesk/internal/api/http"
	"github.com/spec-kit/district-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/district-helpdesk/internal/auth"
	"github.com/spec-kit/district-helpdesk/internal/config"
	"github.com/spec-kit/district-helpdesk/internal/directory"
	"github.com/spec-kit/district-helpdesk/internal/events"
	"github.com/spec-kit/district-helpdesk/internal/mailrelay"
	"github.com/spec-kit/district-helpdesk/internal/observability"
	"github.com/spec-kit/district-helpdesk/internal/persistence"
	"github.com/spec-kit/district-helpdesk/internal/policy"
	"github.com/spec-kit/district-helpdesk/internal/realtime"
	"github.com/spec-kit/district-helpdesk/internal/repository"
	"github.com/spec-kit/district-helpdesk/internal/service"
	"github.com/spec-kit/district-helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	articleRepo := repository.NewArticleRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	metrics := observability.NewMetrics()
	feed := realtime.NewChangeFeed(redis.Client, logger)
	dispatcher := events.NewInMemoryDispatcher()

	relay := newRelay(ctx, cfg.Rabbit, logger)
	defer relay.Close() //nolint:errcheck
	events.AttachRelay(dispatcher, relay, logger)

	catalog := service.NewCatalogService(categoryRepo, articleRepo, feed, logger)
	if err := catalog.Refresh(ctx); err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	catalog.Watch(ctx)

	var sender mailrelay.Sender
	if cfg.Mail.Enabled() {
		sender = mailrelay.NewClient(cfg.Mail, nil)
	} else {
		logger.Warn("mail relay not configured, notifications disabled")
	}

	access := policy.NewAccessPolicy(policy.MutateSuperAdminOnly)
	ticketService := service.NewTicketService(ticketRepo, historyRepo, access, catalog, cfg.SLA, dispatcher, feed, metrics, logger)
	intakeService := service.NewIntakeService(catalog, ticketService, dispatcher, metrics, logger, cfg.Intake)
	intakeService.EvictIdle(ctx)

	notifications := service.NewNotificationService(sender, ticketRepo, departmentRepo, metrics, logger)
	notifications.Register(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(staffRepo, resetRepo, tokens, sender, cfg.Auth, logger)
	authMiddleware := auth.NewAuthMiddleware(tokens, staffRepo)

	watchdog := worker.NewSLAWatchdog(ticketRepo, historyRepo, catalog, dispatcher, logger, cfg.SLA.SweepInterval())
	go watchdog.Run(ctx)

	var searcher directory.Searcher
	if cfg.Directory.Enabled() {
		searcher = directory.NewClient(cfg.Directory, nil)
	} else {
		logger.Warn("directory search not configured")
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis, cfg.App.Version),
		Staff:          handlers.NewStaffHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Intake:         handlers.NewIntakeHandler(intakeService, catalog),
		Directory:      handlers.NewDirectoryHandler(searcher),
		Catalog:        handlers.NewCatalogHandler(catalog),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

// newRelay connects the broker relay when configured, falling back to the
// noop relay so event publication never depends on broker availability.
func newRelay(ctx context.Context, cfg config.RabbitConfig, logger *zap.Logger) events.Relay {
	if cfg.URL == "" {
		return events.NewNoopRelay(logger)
	}
	relay, err := events.NewRelay(ctx, events.RelayOptions{
		URL:           cfg.URL,
		Exchange:      cfg.Exchange,
		RetryAttempts: cfg.RetryAttempts,
	}, logger)
	if err != nil {
		logger.Warn("broker relay unavailable, falling back to noop", zap.Error(err))
		return events.NewNoopRelay(logger)
	}
	return relay
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
