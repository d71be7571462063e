// Package scheduler runs the background jobs of the order workflow on
// asynq. The only recurring job today is the calendar reconciliation
// sweep.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCalendarReconcile = "calendar.reconcile"

type CalendarReconcilePayload struct {
	Fix bool `json:"fix"`
}

func NewCalendarReconcileTask(payload CalendarReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCalendarReconcile, data), nil
}

func ParseCalendarReconcilePayload(task *asynq.Task) (CalendarReconcilePayload, error) {
	var payload CalendarReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CalendarReconcilePayload{}, err
	}
	return payload, nil
}
