package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"medilink/config"
	"medilink/models"
	appointmentSvc "medilink/services/appointment"
	"medilink/services/notification"
	"medilink/services/tasks"
)

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewQueueClient returns the asynq client services enqueue through.
func NewQueueClient() *asynq.Client {
	return asynq.NewClient(redisOpts())
}

// InitWorker runs the background worker: reminder delivery and the periodic
// no-show sweep over stale UPCOMING appointments.
func InitWorker(apptSvc appointmentSvc.AppointmentService, notifSvc notification.NotificationService) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(notifSvc))
	mux.HandleFunc(tasks.TypeSweepOverdue, handleSweepTask(apptSvc))

	go monitorRedisConnection()
	go sweepTicker()

	go func() {
		log.Println("[Worker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// sweepTicker enqueues the overdue sweep on a fixed interval. The sweep is
// idempotent so overlapping runs are harmless.
func sweepTicker() {
	client := NewQueueClient()
	ticker := time.NewTicker(tasks.SweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		if _, err := client.Enqueue(tasks.NewSweepTask()); err != nil {
			log.Printf("[Worker] failed to enqueue sweep: %v", err)
		}
	}
}

func handleSweepTask(apptSvc appointmentSvc.AppointmentService) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		swept, err := apptSvc.MarkOverdueNoShows(ctx, time.Now())
		if err != nil {
			log.Printf("[SweepHandler] sweep failed: %v", err)
			return err
		}
		if swept > 0 {
			log.Printf("[SweepHandler] marked %d appointments NO_SHOW", swept)
		}
		return nil
	}
}

func handleReminderTask(notifSvc notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] invalid payload: %v", err)
			return err
		}

		data := map[string]string{
			"event":         models.EventAppointmentReminder,
			"appointmentId": p.AppointmentID,
			"fireDate":      p.FireDate,
		}

		var err error
		switch p.Target {
		case string(models.RolePatient):
			err = notifSvc.SendPatientPush(ctx, p.UserID, p.Title, p.Body, data)
		case string(models.RoleDoctor):
			err = notifSvc.SendDoctorPush(ctx, p.UserID, p.Title, p.Body, data)
		default:
			log.Printf("[ReminderHandler] unknown target type: %s", p.Target)
			return nil
		}

		if err != nil {
			log.Printf("[ReminderHandler] failed to send notification: %v", err)
		}
		return err
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[Worker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
