package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trailbliss/trailbliss-api/internal/handlers"
	"github.com/trailbliss/trailbliss-api/internal/mailer"
	"github.com/trailbliss/trailbliss-api/internal/migrations"
	"github.com/trailbliss/trailbliss-api/internal/notify"
	"github.com/trailbliss/trailbliss-api/internal/repository"
	"github.com/trailbliss/trailbliss-api/internal/service"
	"github.com/trailbliss/trailbliss-api/internal/storage"
	"github.com/trailbliss/trailbliss-api/pkg/config"
	"github.com/trailbliss/trailbliss-api/pkg/database"
	"github.com/trailbliss/trailbliss-api/pkg/events"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
	mw "github.com/trailbliss/trailbliss-api/pkg/middleware"
)

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Postgres, Redis and NATS outages are tolerated at startup; requests
	// that need them fail individually.
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to create database pool", "error", err)
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Run(pool); err != nil {
			logger.Error("Migration failed, continuing", "error", err)
		}
	}

	rdb, err := database.ConnectRedis(cfg.Redis)
	if err != nil {
		logger.Error("Failed to create redis client", "error", err)
		return err
	}
	defer rdb.Close()

	m := mailer.New(cfg.Email)
	bus := connectEventBus(cfg.NATS, m)
	defer bus.Close()

	images, err := storage.NewLocalImageStore(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		logger.Error("Failed to prepare upload directory", "dir", cfg.Storage.UploadDir, "error", err)
		return err
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(pool)
	spotRepo := repository.NewSpotRepository(pool)
	guideRepo := repository.NewGuideRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	otpRepo := repository.NewOTPRepository(rdb)
	rateLimitRepo := repository.NewRateLimitRepository(rdb)
	idempotencyRepo := repository.NewIdempotencyRepository(rdb)

	// Initialize services
	h := handlers.New(handlers.Services{
		Accounts:     service.NewAccountService(accountRepo, otpRepo, cfg),
		Verification: service.NewVerificationService(otpRepo, m, cfg),
		Spots:        service.NewSpotService(spotRepo, images),
		Guides:       service.NewGuideService(guideRepo, images),
		Bookings:     service.NewBookingService(bookingRepo, guideRepo, bus),
		Feedback:     service.NewFeedbackService(feedbackRepo),
	}, rateLimitRepo, cfg).WithIdempotency(idempotencyRepo)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(cfg, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting trailbliss API", "port", cfg.Server.Port, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down trailbliss API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}
	return nil
}

// connectEventBus returns a NATS bus with the booking notifier attached, or a
// no-op bus when NATS is disabled or unreachable.
func connectEventBus(cfg config.NATSConfig, m mailer.Service) events.EventBus {
	if !cfg.Enabled {
		logger.Info("NATS disabled, booking events are dropped")
		return events.NopEventBus{}
	}

	bus, err := events.NewNATSEventBus(cfg.URL)
	if err != nil {
		logger.Warn("Failed to connect to NATS, booking events are dropped", "url", cfg.URL, "error", err)
		return events.NopEventBus{}
	}

	if err := notify.New(m).Start(bus); err != nil {
		logger.Warn("Failed to start booking notifier", "error", err)
	}
	return bus
}

func newRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(appName))
	r.Use(mw.Logging)
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics)

	r.Mount("/api", h.Routes())
	r.Get("/openapi.json", handlers.OpenAPI())

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.UploadDir))))
	r.Handle("/*", http.FileServer(http.Dir(cfg.Storage.StaticDir)))

	return r
}
