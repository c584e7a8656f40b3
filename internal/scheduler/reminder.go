// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gocial/backend/internal/config"
	"gocial/backend/internal/model"
	"gocial/backend/internal/notify"
	"gocial/backend/internal/repository"
)

// ReminderJob notifies the host and validated participants of activities
// starting within the reminder window. Each user is reminded once per
// activity; the StateStore holds the dedup markers so several instances
// can run the job side by side.
type ReminderJob struct {
	activities     repository.ActivityRepository
	participations repository.ParticipationRepository
	state          repository.StateStore
	notifier       notify.Notifier
	interval       time.Duration
	window         time.Duration
	scheduler      *gocron.Scheduler
	logger         *zap.Logger
	now            func() time.Time
}

func NewReminderJob(
	cfg config.SchedulerConfig,
	activities repository.ActivityRepository,
	participations repository.ParticipationRepository,
	state repository.StateStore,
	notifier notify.Notifier,
	logger *zap.Logger,
) *ReminderJob {
	return &ReminderJob{
		activities:     activities,
		participations: participations,
		state:          state,
		notifier:       notifier,
		interval:       cfg.ReminderInterval,
		window:         cfg.ReminderWindow,
		scheduler:      gocron.NewScheduler(time.UTC),
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (j *ReminderJob) Start() error {
	if j.interval <= 0 || j.window <= 0 {
		return fmt.Errorf("reminder interval and window must be positive")
	}
	_, err := j.scheduler.Every(j.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.interval)
		defer cancel()
		if err := j.Run(ctx); err != nil {
			j.logger.Error("reminder run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	j.scheduler.StartAsync()
	return nil
}

func (j *ReminderJob) Stop() {
	j.scheduler.Stop()
}

// Run sends the reminders due now.
func (j *ReminderJob) Run(ctx context.Context) error {
	now := j.now()
	activities, err := j.activities.ListStartingBetween(ctx, now, now.Add(j.window))
	if err != nil {
		return fmt.Errorf("failed to list upcoming activities: %w", err)
	}

	sent := 0
	for i := range activities {
		a := &activities[i]
		userIDs, err := j.participations.ListUserIDs(ctx, a.ID, model.ParticipationValidated)
		if err != nil {
			j.logger.Warn("could not list participants for reminder",
				zap.String("activity_id", a.ID.String()), zap.Error(err))
			continue
		}
		userIDs = append(userIDs, a.HostID)

		// Markers outlive the window so a reminder is never sent twice.
		ttl := a.Date.Sub(now) + j.window
		for _, userID := range userIDs {
			first, err := j.state.SetNX(ctx, reminderKey(a.ID, userID), []byte("1"), ttl)
			if err != nil {
				j.logger.Warn("reminder dedup failed", zap.Error(err))
				continue
			}
			if !first {
				continue
			}
			j.notifier.Notify(ctx, notify.Event{
				UserID: userID,
				Type:   model.NotifActivityReminder,
				Title:  "Starting soon",
				Body:   fmt.Sprintf("%q starts at %s", a.Title, a.Date.Format(time.RFC3339)),
				Data: map[string]interface{}{
					"activity_id": a.ID.String(),
					"date":        a.Date,
				},
			})
			sent++
		}
	}

	if sent > 0 {
		j.logger.Info("reminders sent", zap.Int("count", sent))
	}
	return nil
}

func reminderKey(activityID, userID uuid.UUID) string {
	return fmt.Sprintf("reminder:%s:%s", activityID, userID)
}
