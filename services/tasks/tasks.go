package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"medilink/models"
)

const (
	TypeSendReminder     = "reminder:send"
	TypeSweepOverdue     = "appointment:sweep"
	SweepInterval        = time.Minute
	ReminderLeadTime     = 30 * time.Minute
	reminderMaxRetention = 24 * time.Hour
)

// NewReminderTask builds a delayed reminder push for one participant.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.Retention(reminderMaxRetention),
	}
	return task, opts, nil
}

// NewSweepTask builds the periodic pass that no-shows stale UPCOMING
// appointments whose scheduled window has fully elapsed.
func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TypeSweepOverdue, nil)
}
