package scheduler

import (
	"context"
	"fmt"

	"repairdesk_backend/platform/config"
	"repairdesk_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Cron enqueues the recurring reconciliation sweep. The sweep always
// runs in fix mode; dry runs are for the manual API endpoint.
type Cron struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewCron(cfg config.SchedulerConfig, log *logger.Logger) (*Cron, error) {
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

	sched := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	task, err := NewCalendarReconcileTask(CalendarReconcilePayload{Fix: true})
	if err != nil {
		return nil, err
	}

	cronspec := cfg.GetReconcileCron()
	if cronspec == "" {
		cronspec = "@every 15m"
	}

	if _, err := sched.Register(cronspec, task, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register reconcile cron: %w", err)
	}

	log.Info("reconcile cron registered", "cron", cronspec, "queue", queue)

	return &Cron{scheduler: sched, log: log}, nil
}

func (c *Cron) Run(ctx context.Context) {
	if c == nil || c.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		c.scheduler.Shutdown()
	}()

	if err := c.scheduler.Run(); err != nil {
		c.log.Error("reconcile cron stopped", "error", err)
	}
}
