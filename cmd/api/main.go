package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/deliverynote-service/internal/api/http"
	"github.com/spec-kit/deliverynote-service/internal/api/http/handlers"
	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/config"
	"github.com/spec-kit/deliverynote-service/internal/events"
	"github.com/spec-kit/deliverynote-service/internal/export"
	"github.com/spec-kit/deliverynote-service/internal/notify"
	"github.com/spec-kit/deliverynote-service/internal/observability"
	"github.com/spec-kit/deliverynote-service/internal/persistence"
	"github.com/spec-kit/deliverynote-service/internal/service"
	"github.com/spec-kit/deliverynote-service/internal/storage"
)

func main() {
	var envFiles []string
	var migrateOnly bool

	flagSet := pflag.NewFlagSet("deliverynote-api", pflag.ContinueOnError)
	flagSet.StringSliceVar(&envFiles, "env-file", nil, "env files to load before reading the environment")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("invalid flags: %v", err)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	if cfg.Postgres.RunMigrations || migrateOnly {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if migrateOnly {
		return
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := pg.Repositories()
	revocations := auth.NewMemoryRevocationList()
	if redis.Enabled() {
		revocations = auth.NewRedisRevocationList(redis.Client)
	}

	uploader, err := storage.NewUploader(ctx, cfg.Assets)
	if err != nil {
		logger.Fatal("failed to init asset storage", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, notify.NewMailer(cfg.Notification, logger), logger, metrics).RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          repos.Users,
		PasswordResetRepo: repos.PasswordResets,
		Revocations:       revocations,
		Uploader:          uploader,
		Dispatcher:        dispatcher,
		Logger:            logger,
		Metrics:           metrics,
	})
	clientService := service.NewClientService(service.ClientDependencies{
		ClientRepo: repos.Clients,
		Logger:     logger,
		Metrics:    metrics,
	})
	projectService := service.NewProjectService(service.ProjectDependencies{
		ProjectRepo: repos.Projects,
		ClientRepo:  repos.Clients,
		Logger:      logger,
		Metrics:     metrics,
	})
	noteService := service.NewDeliveryNoteService(service.DeliveryNoteDependencies{
		NoteRepo:       repos.DeliveryNotes,
		ProjectRepo:    repos.Projects,
		ClientRepo:     repos.Clients,
		UserRepo:       repos.Users,
		Uploader:       uploader,
		Exporter:       export.NewExporter(cfg.Export.StorageDir, export.NewPDFRenderer()),
		Dispatcher:     dispatcher,
		Logger:         logger,
		Metrics:        metrics,
		MaxUploadBytes: cfg.Assets.MaxUploadBytes,
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users, authService.Revocations(), logger)
	limiter := httptransport.NewRateLimiter(cfg.RateLimit, logger)
	defer limiter.Stop()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Assets.MaxUploadBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Clients:        handlers.NewClientsHandler(clientService),
		Projects:       handlers.NewProjectsHandler(projectService),
		DeliveryNotes:  handlers.NewDeliveryNotesHandler(noteService),
		AuthMiddleware: authMiddleware,
		RateLimiter:    limiter,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
