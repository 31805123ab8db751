package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/realtime"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	metrics := observability.NewMetrics()

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	ticketRepo := repository.NewTicketRepository(pg.PoolHandle())
	commentRepo := repository.NewCommentRepository(pg.PoolHandle())
	attachmentRepo := repository.NewAttachmentRepository(pg.PoolHandle())
	magicLinkRepo := repository.NewMagicLinkRepository(rdb.Client)

	hub := realtime.NewHub(logger, metrics)
	dispatcher := events.NewInMemoryDispatcher(logger)
	realtime.NewBridge(hub).RegisterHandlers(dispatcher)

	queue := worker.NewQueue(256, 4, logger)
	queue.Start(ctx)
	defer queue.Close()

	mail := mailer.New(cfg.SMTP, logger)
	notifications := service.NewNotificationService(userRepo, mail, queue, logger)
	notifications.RegisterHandlers(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, magicLinkRepo, tokens, cfg.Auth.BcryptCost, logger)
	if err := authService.EnsureDefaultAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal("seed default admin", zap.Error(err))
	}

	files := storage.NewFileStore(cfg.Uploads, logger)
	ticketService := service.NewTicketService(
		ticketRepo, commentRepo, attachmentRepo, userRepo, magicLinkRepo,
		files, dispatcher, cfg.Auth.MagicLinkTTL(), cfg.App.PublicURL, logger,
	)
	statsService := service.NewStatsService(ticketRepo)
	userAdminService := service.NewUserAdminService(userRepo, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	apihttp.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	authMW := auth.NewMiddleware(tokens, userRepo)
	apihttp.RegisterRoutes(app, apihttp.Handlers{
		Health:     handlers.NewHealthHandler(cfg.App.Version, pg, rdb, hub),
		Auth:       handlers.NewAuthHandler(authService),
		Tickets:    handlers.NewTicketsHandler(ticketService),
		Stats:      handlers.NewStatsHandler(statsService),
		AdminUsers: handlers.NewAdminUsersHandler(userAdminService),
	}, authMW, hub, logger)

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	waitForShutdown(app, logger, cancel)
}

func waitForShutdown(app *fiber.App, logger *zap.Logger, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
