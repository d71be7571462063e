package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repairdesk_backend/internal/adapters"
	"repairdesk_backend/internal/calendar"
	"repairdesk_backend/internal/email"
	"repairdesk_backend/internal/events"
	"repairdesk_backend/internal/notification"
	ordersrepo "repairdesk_backend/internal/orders/repository"
	"repairdesk_backend/internal/scheduler"
	"repairdesk_backend/platform/config"
	"repairdesk_backend/platform/db"
	"repairdesk_backend/platform/logger"
	"repairdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	// Repair alerts raised by the sweep go through the same notification
	// module the API uses.
	sender := email.NewSender(cfg)
	notificationModule := notification.New(pool, sender, log)
	notificationModule.RegisterHandlers(eventBus)

	val := validator.New()

	// Worker-side calendar wiring (no HTTP handlers required).
	calendarSource := adapters.NewCalendarOrderSourceAdapter(ordersrepo.New(pool))
	calendarModule := calendar.NewModule(pool, calendarSource, cfg, eventBus, log, val)

	worker, err := scheduler.NewWorker(cfg, calendarModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	cron, err := scheduler.NewCron(cfg, log)
	if err != nil {
		log.Error("failed to initialize reconcile cron", "error", err)
		panic("failed to initialize reconcile cron: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cron.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	_ = g.Wait()

	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
