package scheduler

import (
	"context"
	"fmt"

	"repairdesk_backend/internal/calendar/transport"
	"repairdesk_backend/platform/config"
	"repairdesk_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Reconciler runs one calendar reconciliation sweep.
type Reconciler interface {
	Reconcile(ctx context.Context, fix bool) (*transport.ReconcileResponse, error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	reconciler Reconciler
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reconciler Reconciler, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		reconciler: reconciler,
		log:        log,
	}

	mux.HandleFunc(TaskCalendarReconcile, w.handleCalendarReconcile)

	return w, nil
}

func (w *Worker) handleCalendarReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCalendarReconcilePayload(task)
	if err != nil {
		return err
	}

	result, err := w.reconciler.Reconcile(ctx, payload.Fix)
	if err != nil {
		w.log.Error("calendar reconciliation sweep failed", "error", err)
		return err
	}

	w.log.Info("calendar reconciliation sweep finished",
		"checkedOrders", result.CheckedOrders,
		"checkedEvents", result.CheckedEvents,
		"divergences", len(result.Divergences),
		"repaired", result.Repaired,
		"fix", payload.Fix,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
