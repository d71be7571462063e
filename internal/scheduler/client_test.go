package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type testSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }
func (c testSchedulerConfig) GetReconcileCron() string  { return "@every 15m" }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestEnqueueReconcile(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{
		redisURL: "redis://" + srv.Addr(),
		queue:    "default",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueReconcile(context.Background(), true); err != nil {
		t.Fatalf("EnqueueReconcile: %v", err)
	}

	if len(srv.Keys()) == 0 {
		t.Fatal("expected enqueued task keys in redis")
	}
}

func TestParseCalendarReconcilePayload(t *testing.T) {
	task, err := NewCalendarReconcileTask(CalendarReconcilePayload{Fix: true})
	if err != nil {
		t.Fatalf("NewCalendarReconcileTask: %v", err)
	}
	if task.Type() != TaskCalendarReconcile {
		t.Fatalf("task type = %q, want %q", task.Type(), TaskCalendarReconcile)
	}

	payload, err := ParseCalendarReconcilePayload(task)
	if err != nil {
		t.Fatalf("ParseCalendarReconcilePayload: %v", err)
	}
	if !payload.Fix {
		t.Fatal("expected fix flag to round-trip")
	}
}
