package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repairdesk_backend/internal/adapters"
	"repairdesk_backend/internal/adapters/storage"
	"repairdesk_backend/internal/booking"
	"repairdesk_backend/internal/calendar"
	"repairdesk_backend/internal/email"
	"repairdesk_backend/internal/events"
	"repairdesk_backend/internal/evidence"
	apphttp "repairdesk_backend/internal/http"
	"repairdesk_backend/internal/http/router"
	"repairdesk_backend/internal/notification"
	"repairdesk_backend/internal/orders"
	ordersrepo "repairdesk_backend/internal/orders/repository"
	"repairdesk_backend/internal/workshop"
	"repairdesk_backend/platform/config"
	"repairdesk_backend/platform/db"
	"repairdesk_backend/platform/logger"
	"repairdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for evidence photo uploads (MinIO)
	objectStore, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	evidenceBucket := cfg.GetMinioBucketEvidence()
	if err := withRetry(ctx, log, "ensure evidence bucket", 5, 2*time.Second, func() error {
		return objectStore.EnsureBucketExists(ctx, evidenceBucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", evidenceBucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "evidenceBucket", evidenceBucket)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// The calendar module reads scheduled orders through an adapter over
	// the orders repository, and the orders module projects transitions
	// back into the calendar through another. Building the repository
	// here first breaks the cycle.
	calendarSource := adapters.NewCalendarOrderSourceAdapter(ordersrepo.New(pool))
	calendarModule := calendar.NewModule(pool, calendarSource, cfg, eventBus, log, val)

	projector := adapters.NewCalendarProjectorAdapter(calendarModule.Service())
	ordersModule := orders.NewModule(pool, projector, eventBus, log, val)

	bookingReader := adapters.NewBookingOrderReaderAdapter(ordersModule.Repository())
	bookingModule := booking.NewModule(bookingReader, cfg, eventBus, log, val)

	workshopReader := adapters.NewWorkshopOrderReaderAdapter(ordersModule.Repository())
	workshopModule := workshop.NewModule(workshopReader, cfg, log)

	evidenceModule := evidence.NewModule(pool, objectStore, evidenceBucket, val)

	// Notification module subscribes to domain events and serves the
	// in-app alert feed.
	notificationModule := notification.New(pool, sender, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			ordersModule,
			calendarModule,
			bookingModule,
			workshopModule,
			evidenceModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
